package recipe

import (
	"testing"

	"meal-planner/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pestoMarkdown = `**Título:** Pasta al Pesto

**Descripción:** Una pasta rápida con salsa de albahaca.

**Ingredientes:**
* Pasta: 200 g
* Albahaca: 1 taza
• Queso parmesano

**Tiempo de Cocción Estimado:** 20 minutos
**Nivel de Dificultad:** Fácil
**Número de Porciones:** 2

**Instrucciones:**
1. Cocina la pasta.
2. Mezcla con el pesto.`

func TestParseJSON(t *testing.T) {
	raw := `Aquí tienes tu receta:
{"title": "Huevos revueltos", "description": "Clásico desayuno",
 "ingredients": [{"name": "Huevos", "quantity": 2, "unit": "piece"}, "Sal"],
 "instructions": "1. Batir\n2. Cocinar", "cookingTime": "15 minutos",
 "difficulty": "Fácil", "servings": 2, "suggestedIngredients": ["Cebollino"]}
¡Buen provecho!`

	parsed := Parse(raw)
	require.Equal(t, SourceJSON, parsed.Source)

	f := parsed.Fields
	assert.Equal(t, "Huevos revueltos", f.Title)
	assert.Equal(t, "1. Batir\n2. Cocinar", f.Instructions)
	assert.Equal(t, 15, f.CookingTime)
	assert.Equal(t, 2, f.Servings)
	assert.Equal(t, []string{"Cebollino"}, f.SuggestedIngredients)
	require.Len(t, f.Ingredients, 2)
	assert.Equal(t, "Huevos", f.Ingredients[0].Name)
	assert.Equal(t, 2.0, f.Ingredients[0].Quantity)
	assert.Equal(t, "Sal", f.Ingredients[1].Name)
}

func TestParseInstructionsShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "string kept unchanged",
			raw:  `{"title": "A", "instructions": "  Paso uno.\nPaso dos.  "}`,
			want: "  Paso uno.\nPaso dos.  ",
		},
		{
			name: "string array joined with blank line",
			raw:  `{"title": "A", "instructions": ["Paso uno.", "Paso dos.", "Paso tres."]}`,
			want: "Paso uno.\n\nPaso dos.\n\nPaso tres.",
		},
		{
			name: "object array uses description",
			raw:  `{"title": "A", "instructions": [{"step": 1, "description": "Cortar"}, {"step": 2, "description": "Freír"}]}`,
			want: "Cortar\n\nFreír",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := Parse(tt.raw)
			require.Equal(t, SourceJSON, parsed.Source)
			assert.Equal(t, tt.want, parsed.Fields.Instructions)
		})
	}
}

func TestParseStripsCodeFences(t *testing.T) {
	raw := "```json\n{\"title\": \"Tostada con aguacate\", \"instructions\": \"Tostar y untar\"}\n```"

	parsed := Parse(raw)
	require.Equal(t, SourceJSON, parsed.Source)
	assert.Equal(t, "Tostada con aguacate", parsed.Fields.Title)
}

func TestParseRepairsSloppyJSON(t *testing.T) {
	raw := `{title: "Avena con fruta", instructions: "Mezclar todo", servings: 1,}`

	parsed := Parse(raw)
	require.Equal(t, SourceJSON, parsed.Source)
	assert.Equal(t, "Avena con fruta", parsed.Fields.Title)
	assert.Equal(t, 1, parsed.Fields.Servings)
}

func TestParseMarkdown(t *testing.T) {
	parsed := Parse(pestoMarkdown)
	require.Equal(t, SourceMarkdown, parsed.Source)

	f := parsed.Fields
	assert.Equal(t, "Pasta al Pesto", f.Title)
	assert.Equal(t, "Una pasta rápida con salsa de albahaca.", f.Description)
	assert.Equal(t, 20, f.CookingTime)
	assert.Equal(t, "Fácil", f.Difficulty)
	assert.Equal(t, 2, f.Servings)
	assert.Equal(t, "1. Cocina la pasta.\n2. Mezcla con el pesto.", f.Instructions)

	require.Len(t, f.Ingredients, 3)
	for i, name := range []string{"Pasta", "Albahaca", "Queso parmesano"} {
		assert.Equal(t, name, f.Ingredients[i].Name)
		assert.Equal(t, 1.0, f.Ingredients[i].Quantity)
		assert.Equal(t, common.UnitPiece, f.Ingredients[i].Unit)
	}
}

func TestParseMarkdownTitleVariants(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bold label next line", "**Título:**\nEnsalada César\n\n**Instrucciones:** Mezclar.", "Ensalada César"},
		{"heading", "## Crema de calabacín\n\nInstrucciones: Hervir y triturar.", "Crema de calabacín"},
		{"bold span", "Te propongo **Tortilla francesa** para hoy.\n\nInstrucciones: Batir y cuajar.", "Tortilla francesa"},
		{"plain label", "Título: Arroz con pollo\nInstrucciones: Cocinar todo junto.", "Arroz con pollo"},
		{"first line when only other markers", "Sopa de verduras\n\nInstrucciones: Hervir las verduras.", "Sopa de verduras"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := Parse(tt.raw)
			require.Equal(t, SourceMarkdown, parsed.Source)
			assert.Equal(t, tt.want, parsed.Fields.Title)
		})
	}
}

func TestParseFallsBackToDefault(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace", "   \n\t  "},
		{"plain prose", "lo siento, no puedo ayudar con eso"},
		{"json without recipe fields", `{"error": "model busy"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := Parse(tt.raw)
			assert.Equal(t, SourceDefault, parsed.Source)

			recipe := Normalize(parsed, 0)
			assert.Equal(t, DefaultRecipe(), recipe)
			assert.Equal(t, DefaultTitle, recipe.Title)
			assert.Equal(t, DefaultCookingTime, recipe.CookingTime)
			assert.Equal(t, DefaultDifficulty, recipe.Difficulty)
			assert.Equal(t, DefaultServings, recipe.Servings)
			assert.Empty(t, recipe.SuggestedIngredients)
			assert.NotNil(t, recipe.SuggestedIngredients)
		})
	}
}

func TestParseAndNormalize(t *testing.T) {
	t.Run("requested servings used when missing", func(t *testing.T) {
		recipe, source := ParseAndNormalize(`{"title": "Batido", "ingredients": [{"name": "Leche", "quantity": 0, "unit": "taza"}]}`, 3)
		assert.Equal(t, SourceJSON, source)
		assert.Equal(t, 3, recipe.Servings)
		assert.Equal(t, DefaultCookingTime, recipe.CookingTime)
		assert.Equal(t, DefaultInstructions, recipe.Instructions)
		require.Len(t, recipe.Ingredients, 1)
		assert.Equal(t, 1.0, recipe.Ingredients[0].Quantity)
		assert.Equal(t, common.UnitPiece, recipe.Ingredients[0].Unit)
	})

	t.Run("model servings win", func(t *testing.T) {
		recipe, _ := ParseAndNormalize(`{"title": "Batido", "servings": 1}`, 3)
		assert.Equal(t, 1, recipe.Servings)
	})

	t.Run("suggestions deduplicated", func(t *testing.T) {
		recipe, _ := ParseAndNormalize(`{"title": "Batido", "suggestedIngredients": ["Miel", "miel", " ", "Canela"]}`, 0)
		assert.Equal(t, []string{"Miel", "Canela"}, recipe.SuggestedIngredients)
	})
}
