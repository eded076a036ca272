package recipe

import (
	"context"
	"testing"

	"meal-planner/internal/core/ai/provider"
	"meal-planner/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var photo = provider.ImageAttachment{Data: []byte{0x89, 0x50, 0x4e, 0x47}, MIMEType: "image/png"}

func TestAnalyzeIngredientImage(t *testing.T) {
	raw := `Resultado:
{"detectedIngredients": [
   {"name": "Tomate", "quantity": 3, "unit": "piece", "category": "vegetable", "confidence": 0.92},
   {"name": "Manzana", "quantity": 0, "unit": "kg", "category": "fruit", "confidence": 1.4}
 ],
 "missingIngredients": [
   {"name": "leche", "quantity": 1, "unit": "LITER", "category": "DAIRY", "confidence": 0.8},
   {"name": "tomate", "quantity": 1}
 ],
 "suggestions": ["Sal", "Aceite", "sal"]}`

	completer := newFakeCompleter(reply{text: raw})
	g := NewGenerator(completer, nil, nil, DefaultRetryPolicy(), nil)

	got, err := g.AnalyzeIngredientImage(context.Background(), photo, inventory("Tomate", "Leche"))
	require.NoError(t, err)

	prompt := completer.lastPrompt()
	assert.Equal(t, provider.KindImage, prompt.Kind())
	assert.True(t, prompt.IsCacheable())
	assert.Contains(t, prompt.Text(), "- Tomate (1 PIECE)")

	require.Len(t, got.DetectedIngredients, 2)
	assert.Equal(t, "Tomate", got.DetectedIngredients[0].Name)
	assert.Equal(t, common.UnitPiece, got.DetectedIngredients[0].Unit)
	assert.Equal(t, common.CategoryVegetable, got.DetectedIngredients[0].Category)
	assert.InDelta(t, 0.92, got.DetectedIngredients[0].Confidence, 1e-9)
	assert.Equal(t, "leche", got.DetectedIngredients[1].Name)
	assert.Equal(t, common.UnitLiter, got.DetectedIngredients[1].Unit)

	require.Len(t, got.MissingIngredients, 1)
	manzana := got.MissingIngredients[0]
	assert.Equal(t, "Manzana", manzana.Name)
	assert.Equal(t, 1.0, manzana.Quantity)
	assert.Equal(t, common.UnitPiece, manzana.Unit)
	assert.Equal(t, common.CategoryFruit, manzana.Category)
	assert.Equal(t, 1.0, manzana.Confidence)

	assert.Equal(t, []string{"Sal", "Aceite"}, got.Suggestions)
}

func TestAnalyzeIngredientImageUnparseable(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"prose", "Veo una cocina con **tomates** y leche."},
		{"broken json", `{"detectedIngredients": [ {"name": `},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(newFakeCompleter(reply{text: tt.raw}), nil, nil, DefaultRetryPolicy(), nil)

			got, err := g.AnalyzeIngredientImage(context.Background(), photo, nil)
			require.NoError(t, err)
			assert.NotNil(t, got.DetectedIngredients)
			assert.Empty(t, got.DetectedIngredients)
			assert.NotNil(t, got.MissingIngredients)
			assert.Empty(t, got.MissingIngredients)
			assert.NotNil(t, got.Suggestions)
			assert.Empty(t, got.Suggestions)
		})
	}
}

func TestAnalyzeIngredientImageRequiresImage(t *testing.T) {
	completer := newFakeCompleter()
	g := NewGenerator(completer, nil, nil, DefaultRetryPolicy(), nil)

	_, err := g.AnalyzeIngredientImage(context.Background(), provider.ImageAttachment{}, nil)
	assert.True(t, common.IsValidationError(err))
	assert.Equal(t, 0, completer.calls())
}
