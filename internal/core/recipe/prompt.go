package recipe

import (
	"fmt"
	"strings"

	"meal-planner/internal/core/ai/provider"
	"meal-planner/internal/pkg/common"
)

// PromptInput 組裝提示詞所需的全部資料
type PromptInput struct {
	Ingredients        []common.InventoryIngredient
	MealType           common.MealType
	Style              string
	ExclusionContext   string
	Servings           int
	SuggestIngredients bool
	Options            GenerationOptions
}

const recipeJSONExample = `{
  "title": "Título corto",
  "description": "Descripción breve de la receta",
  "ingredients": [{"name": "Ingrediente", "quantity": 1, "unit": "PIECE"}],
  "instructions": "1. Primer paso\n2. Segundo paso\n3. Tercer paso",
  "cookingTime": 20,
  "difficulty": "Fácil",
  "servings": %d,
  "suggestedIngredients": []
}`

// BuildPrompt 組裝生成食譜的提示詞；有附圖時回傳 WithImage
func BuildPrompt(in PromptInput) provider.Prompt {
	servings := in.Servings
	if servings <= 0 {
		servings = DefaultServings
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Eres un chef experto en cocina casera. Genera UNA receta de %s en español.\n\n", in.MealType.Label())

	sb.WriteString("INGREDIENTES DISPONIBLES (usa EXCLUSIVAMENTE estos):\n")
	sb.WriteString(common.FormatInventory(in.Ingredients))
	sb.WriteString("\n")
	if len(in.Ingredients) < minSelected {
		sb.WriteString("La lista es corta: crea una receta sencilla solo con lo disponible.\n")
	}

	if len(in.Options.PreferredIngredients) > 0 {
		fmt.Fprintf(&sb, "\nDa prioridad a estos ingredientes: %s.\n", strings.Join(in.Options.PreferredIngredients, ", "))
	}
	if title := strings.TrimSpace(in.Options.CustomTitle); title != "" {
		fmt.Fprintf(&sb, "\nEl título de la receta debe ser exactamente: \"%s\".\n", title)
	}
	if desc := strings.TrimSpace(in.Options.CustomDescription); desc != "" {
		fmt.Fprintf(&sb, "\nLa receta debe ajustarse a esta descripción: \"%s\".\n", desc)
	}
	if in.Options.Image != nil {
		sb.WriteString("\nSe adjunta una foto del plato deseado: úsala como inspiración visual.\n")
	}

	if style := strings.TrimSpace(in.Style); style != "" {
		fmt.Fprintf(&sb, "\nESTILO PARA %s:\n%s\n", strings.ToUpper(in.MealType.Label()), style)
	}

	if ctx := strings.TrimSpace(in.ExclusionContext); ctx != "" {
		sb.WriteString("\n" + ctx + "\n")
	}

	sb.WriteString("\nREGLAS OBLIGATORIAS:\n")
	if in.SuggestIngredients {
		sb.WriteString("1. Usa solo los ingredientes listados. Puedes proponer hasta 3 ingredientes extra en \"suggestedIngredients\", pero no los uses en los pasos.\n")
	} else {
		sb.WriteString("1. Usa solo los ingredientes listados. No inventes ingredientes; \"suggestedIngredients\" debe ser una lista vacía.\n")
	}
	sb.WriteString("2. La dificultad debe ser \"Fácil\".\n")
	sb.WriteString("3. Máximo 4 pasos.\n")
	sb.WriteString("4. Tiempo de cocción entre 15 y 25 minutos.\n")
	sb.WriteString("5. El título debe tener como máximo 4 palabras.\n")
	sb.WriteString("6. Usa entre 3 y 4 ingredientes.\n")
	fmt.Fprintf(&sb, "7. La receta es para %d porciones.\n", servings)
	sb.WriteString("8. \"instructions\" debe ser un STRING con los pasos separados por saltos de línea, NUNCA un array.\n")
	sb.WriteString("9. Escribe todo en español.\n")

	sb.WriteString("\nResponde SOLO con un objeto JSON con este formato, sin texto adicional:\n")
	fmt.Fprintf(&sb, recipeJSONExample, servings)

	text := sb.String()
	if in.Options.Image != nil {
		return provider.WithImage(text, *in.Options.Image)
	}
	return provider.TextOnly(text)
}

// BuildSimplePrompt 只依食材清單與偏好設定生成
func BuildSimplePrompt(ingredients []string, prefs *common.RecipePreferences) provider.Prompt {
	servings := DefaultServings
	var sb strings.Builder
	sb.WriteString("Eres un chef experto. Crea una receta en español usando estos ingredientes:\n")
	for _, name := range ingredients {
		sb.WriteString("- " + name + "\n")
	}

	if prefs != nil {
		if prefs.Servings > 0 {
			servings = prefs.Servings
		}
		if prefs.Cuisine != "" {
			fmt.Fprintf(&sb, "\nEstilo de cocina: %s.\n", prefs.Cuisine)
		}
		if prefs.MaxCookingTime > 0 {
			fmt.Fprintf(&sb, "Tiempo máximo de cocción: %d minutos.\n", prefs.MaxCookingTime)
		}
		if prefs.Difficulty != "" {
			fmt.Fprintf(&sb, "Dificultad deseada: %s.\n", prefs.Difficulty)
		}
		if len(prefs.DietaryRestrictions) > 0 {
			fmt.Fprintf(&sb, "Restricciones alimentarias: %s.\n", strings.Join(prefs.DietaryRestrictions, ", "))
		}
	}

	fmt.Fprintf(&sb, "\nLa receta es para %d porciones. Puedes sugerir ingredientes adicionales en \"suggestedIngredients\".\n", servings)
	sb.WriteString("\"instructions\" debe ser un STRING con los pasos separados por saltos de línea, NUNCA un array.\n")
	sb.WriteString("Responde SOLO con un objeto JSON con este formato:\n")
	fmt.Fprintf(&sb, recipeJSONExample, servings)
	return provider.TextOnly(sb.String())
}
