package recipe

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"meal-planner/internal/pkg/common"
)

var errNoMarkers = errors.New("no recognizable recipe markers")

// 標題依序嘗試的樣式，第一個命中者勝出
var titlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\*\*T[ií]tulo:\*\*[ \t]*([^\s*][^\n]*)`),
	regexp.MustCompile(`\*\*T[ií]tulo:\*\*[ \t]*\n[ \t]*([^\s][^\n]*)`),
	regexp.MustCompile(`(?m)^#{1,3}[ \t]+([^\n]+)$`),
	regexp.MustCompile(`\*\*([^*\n]+[^*:\n])\*\*`),
	regexp.MustCompile(`T[ií]tulo:[ \t]*([^\s][^\n]*)`),
	regexp.MustCompile(`(?m)^[^\n]*T[ií]tulo[^:\n]*:[ \t]*([^\s][^\n]*)$`),
}

var (
	descriptionBold  = regexp.MustCompile(`\*\*Descripci[oó]n:\*\*([\s\S]*?)(?:\*\*|\z)`)
	descriptionPlain = regexp.MustCompile(`Descripci[oó]n:([\s\S]*?)(?:Tiempo|Ingredientes|\z)`)

	ingredientsBold  = regexp.MustCompile(`\*\*Ingredientes:\*\*([\s\S]*?)(?:\*\*|\z)`)
	ingredientsPlain = regexp.MustCompile(`Ingredientes:([\s\S]*?)(?:\*\*|\z)`)
	bulletLine       = regexp.MustCompile(`(?m)^[ \t]*[*•][ \t]+([^\n]+)$`)

	cookingTimeSpan = regexp.MustCompile(`\*\*Tiempo de Cocci[oó]n Estimado:\*\*([^*]*)`)
	difficultySpan  = regexp.MustCompile(`\*\*Nivel de Dificultad:\*\*[ \t]*([^*\n]+)`)
	servingsSpan    = regexp.MustCompile(`\*\*N[uú]mero de Porciones:\*\*([^*]*)`)

	instructionsBold  = regexp.MustCompile(`\*\*Instrucciones:\*\*([\s\S]*?)(?:\*\*|\z)`)
	instructionsPlain = regexp.MustCompile(`Instrucciones:([\s\S]*?)(?:\*\*|\z)`)
	numberedList      = regexp.MustCompile(`(?m)(^[ \t]*\d+\.[ \t][\s\S]*?)(?:\*\*|\z)`)
)

// parseMarkdown 以啟發式規則從自由格式文字取出食譜欄位。
// Markdown 無法可靠地帶出數量與單位，食材一律記為 1 PIECE。
func parseMarkdown(text string) (fields RecipeFields, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("markdown extraction panicked: %v", r)
		}
	}()

	if strings.TrimSpace(text) == "" {
		return RecipeFields{}, errNoMarkers
	}

	title, titleFound := extractTitle(text)
	description := extractDescription(text)
	ingredients, ingredientsFound := extractIngredients(text)
	instructions := extractInstructions(text)
	cookingTime, timeFound := firstIntIn(cookingTimeSpan, text)
	servings, servingsFound := firstIntIn(servingsSpan, text)
	difficulty := ""
	if m := difficultySpan.FindStringSubmatch(text); m != nil {
		difficulty = strings.TrimSpace(m[1])
	}

	found := titleFound || description != "" || ingredientsFound || instructions != "" ||
		timeFound || servingsFound || difficulty != ""
	if !found {
		return RecipeFields{}, errNoMarkers
	}

	if !titleFound {
		title = firstNonBlankLine(text)
	}

	return RecipeFields{
		Title:        title,
		Description:  description,
		Ingredients:  ingredients,
		Instructions: instructions,
		CookingTime:  cookingTime,
		Difficulty:   difficulty,
		Servings:     servings,
	}, nil
}

func extractTitle(text string) (string, bool) {
	for _, p := range titlePatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			if title := cleanTitle(m[1]); title != "" {
				return title, true
			}
		}
	}
	return "", false
}

func cleanTitle(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "*#:"))
}

func firstNonBlankLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if l := cleanTitle(line); l != "" {
			return l
		}
	}
	return ""
}

func extractDescription(text string) string {
	for _, p := range []*regexp.Regexp{descriptionBold, descriptionPlain} {
		if m := p.FindStringSubmatch(text); m != nil {
			if d := strings.TrimSpace(m[1]); d != "" {
				return d
			}
		}
	}
	return ""
}

func extractIngredients(text string) ([]common.RecipeIngredient, bool) {
	var block string
	found := false
	for _, p := range []*regexp.Regexp{ingredientsBold, ingredientsPlain} {
		if m := p.FindStringSubmatch(text); m != nil {
			block, found = m[1], true
			break
		}
	}
	if !found {
		return nil, false
	}

	var ingredients []common.RecipeIngredient
	for _, m := range bulletLine.FindAllStringSubmatch(block, -1) {
		name, _, _ := strings.Cut(m[1], ":")
		name = strings.TrimSpace(strings.Trim(name, "*"))
		if name == "" {
			continue
		}
		ingredients = append(ingredients, common.RecipeIngredient{
			Name:     name,
			Quantity: 1,
			Unit:     common.UnitPiece,
		})
	}
	return ingredients, true
}

func extractInstructions(text string) string {
	for _, p := range []*regexp.Regexp{instructionsBold, instructionsPlain, numberedList} {
		if m := p.FindStringSubmatch(text); m != nil {
			if s := strings.TrimSpace(strings.ReplaceAll(m[1], "*", "")); s != "" {
				return s
			}
		}
	}
	return ""
}

func firstIntIn(p *regexp.Regexp, text string) (int, bool) {
	m := p.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	digits := firstIntPattern.FindString(m[1])
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}
