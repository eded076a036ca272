package recipe

import (
	"fmt"
	"strings"

	"meal-planner/internal/pkg/common"

	"github.com/spf13/viper"
)

// KeywordSet 某餐別的關鍵字表
type KeywordSet struct {
	Primary   []string `mapstructure:"primary"`
	Secondary []string `mapstructure:"secondary"`
	Avoid     []string `mapstructure:"avoid"`
	Style     string   `mapstructure:"style"`
}

// AffinityTables 餐別 -> 關鍵字表
type AffinityTables map[common.MealType]KeywordSet

// DefaultAffinityTables 內建關鍵字表
func DefaultAffinityTables() AffinityTables {
	return AffinityTables{
		common.MealBreakfast: {
			Primary: []string{"huevo", "huevos", "pan", "leche", "avena", "yogur", "yogurt", "queso", "mantequilla",
				"fruta", "plátano", "platano", "banana", "manzana", "fresa", "cereal", "miel", "café", "jamón"},
			Secondary: []string{"tomate", "aguacate", "espinaca", "naranja", "mermelada", "tortilla", "harina",
				"azúcar", "canela", "nueces"},
			Avoid: []string{"carne", "arroz", "pollo", "pescado", "lentejas", "garbanzos", "frijoles", "cerdo",
				"pasta", "atún"},
			Style: "Desayuno ligero y energético, listo en poco tiempo. Ejemplos: tostadas con huevo revuelto, " +
				"avena con fruta, yogur con miel, tortilla francesa.",
		},
		common.MealLunch: {
			Primary: []string{"pollo", "carne", "arroz", "pasta", "pescado", "papa", "patata", "frijoles",
				"lentejas", "garbanzos", "cerdo", "ternera"},
			Secondary: []string{"tomate", "cebolla", "zanahoria", "pimiento", "ajo", "calabacín", "brócoli",
				"espinaca", "lechuga", "maíz", "champiñón"},
			Avoid: []string{"cereal", "yogur", "mermelada", "galleta", "chocolate", "helado"},
			Style: "Almuerzo completo y saciante con una proteína y una guarnición. Ejemplos: arroz con pollo, " +
				"pasta con verduras, lentejas guisadas.",
		},
		common.MealSnack: {
			Primary: []string{"fruta", "manzana", "plátano", "platano", "yogur", "queso", "nueces", "almendras",
				"galleta", "zanahoria", "pepino", "palomitas"},
			Secondary: []string{"pan", "miel", "chocolate", "mantequilla de maní", "aguacate", "tortilla"},
			Avoid:     []string{"carne", "arroz", "pollo", "pescado", "lentejas", "cerdo", "pasta"},
			Style: "Merienda pequeña y rápida, sin cocción larga. Ejemplos: fruta con yogur, bastones de " +
				"zanahoria, tostada con aguacate.",
		},
		common.MealDinner: {
			Primary: []string{"pescado", "pollo", "verdura", "huevo", "calabacín", "brócoli", "espinaca",
				"champiñón", "tofu", "salmón", "atún"},
			Secondary: []string{"tomate", "cebolla", "ajo", "queso", "zanahoria", "pimiento", "lechuga", "papa"},
			Avoid:     []string{"cereal", "mermelada", "galleta", "chocolate", "helado", "azúcar"},
			Style: "Cena ligera y fácil de digerir. Ejemplos: pescado a la plancha con verduras, tortilla de " +
				"espinacas, crema de calabacín.",
		},
	}
}

// LoadAffinityTables 從 YAML/JSON 檔案載入關鍵字表，未列出的餐別沿用內建值
func LoadAffinityTables(path string) (AffinityTables, error) {
	tables := DefaultAffinityTables()
	if path == "" {
		return tables, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read affinity tables: %w", err)
	}

	var raw map[string]KeywordSet
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode affinity tables: %w", err)
	}

	for key, set := range raw {
		mealType, err := common.ParseMealType(key)
		if err != nil {
			return nil, fmt.Errorf("affinity tables: %w", err)
		}
		base := tables[mealType]
		if len(set.Primary) > 0 {
			base.Primary = set.Primary
		}
		if len(set.Secondary) > 0 {
			base.Secondary = set.Secondary
		}
		if len(set.Avoid) > 0 {
			base.Avoid = set.Avoid
		}
		if strings.TrimSpace(set.Style) != "" {
			base.Style = set.Style
		}
		tables[mealType] = base
	}
	return tables, nil
}

// Style 回傳餐別的風格說明
func (t AffinityTables) Style(mealType common.MealType) string {
	return t[mealType].Style
}
