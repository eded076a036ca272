package recipe

import (
	"sort"
	"strings"

	"meal-planner/internal/pkg/common"
)

const (
	maxSelected = 4
	minSelected = 3
	prefixLen   = 4
)

// Preselector 依餐別從庫存挑出 3 到 4 項合適的食材
type Preselector struct {
	tables AffinityTables
}

// NewPreselector 創建食材預選器
func NewPreselector(tables AffinityTables) *Preselector {
	if tables == nil {
		tables = DefaultAffinityTables()
	}
	return &Preselector{tables: tables}
}

// Preselect 先取 primary 命中者，不足 3 項時再以 secondary 補到 4 項。
// avoid 命中者一律排除；以小寫名稱去重；結果保持輸入順序。
func (p *Preselector) Preselect(inventory []common.InventoryIngredient, mealType common.MealType) []common.InventoryIngredient {
	set := p.tables[mealType]
	selected := make(map[int]bool, maxSelected)
	seen := make(map[string]bool, maxSelected)

	pick := func(keywords []string) {
		for i, item := range inventory {
			if len(selected) >= maxSelected {
				return
			}
			name := strings.ToLower(strings.TrimSpace(item.Name))
			if name == "" || seen[name] {
				continue
			}
			if matchesAny(name, keywords) && !matchesAny(name, set.Avoid) {
				selected[i] = true
				seen[name] = true
			}
		}
	}

	pick(set.Primary)
	if len(selected) < minSelected {
		pick(set.Secondary)
	}

	indexes := make([]int, 0, len(selected))
	for i := range selected {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	result := make([]common.InventoryIngredient, 0, len(indexes))
	for _, i := range indexes {
		result = append(result, inventory[i])
	}
	return result
}

// matchesAny 雙向子字串比對，再以前 4 個字元寬鬆比對
func matchesAny(name string, keywords []string) bool {
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(name, kw) || strings.Contains(kw, name) {
			return true
		}
		if np, ok := runePrefix(name); ok {
			if kp, ok := runePrefix(kw); ok && np == kp {
				return true
			}
		}
	}
	return false
}

func runePrefix(s string) (string, bool) {
	r := []rune(s)
	if len(r) < prefixLen {
		return "", false
	}
	return string(r[:prefixLen]), true
}
