package recipe

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"meal-planner/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTables(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "affinity.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultAffinityTablesStyleAvoidsOwnAvoidList(t *testing.T) {
	for mealType, set := range DefaultAffinityTables() {
		require.NotEmpty(t, set.Primary, mealType)
		style := strings.ToLower(set.Style)
		for _, avoid := range set.Avoid {
			assert.NotContains(t, style, avoid, "%s style mentions %q", mealType, avoid)
		}
	}
}

func TestLoadAffinityTables(t *testing.T) {
	path := writeTables(t, `
breakfast:
  primary: [arepa, huevos]
  style: "Desayuno criollo con arepas."
`)

	tables, err := LoadAffinityTables(path)
	require.NoError(t, err)

	breakfast := tables[common.MealBreakfast]
	assert.Equal(t, []string{"arepa", "huevos"}, breakfast.Primary)
	assert.Equal(t, "Desayuno criollo con arepas.", tables.Style(common.MealBreakfast))
	assert.Equal(t, DefaultAffinityTables()[common.MealBreakfast].Avoid, breakfast.Avoid)
	assert.Equal(t, DefaultAffinityTables()[common.MealLunch], tables[common.MealLunch])

	got := NewPreselector(tables).Preselect(inventory("Arepas de maíz", "Pollo"), common.MealBreakfast)
	assert.Equal(t, []string{"Arepas de maíz"}, names(got))
}

func TestLoadAffinityTablesErrors(t *testing.T) {
	_, err := LoadAffinityTables(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadAffinityTables(writeTables(t, "brunch:\n  primary: [pan]\n"))
	assert.Error(t, err)

	tables, err := LoadAffinityTables("")
	require.NoError(t, err)
	assert.Equal(t, DefaultAffinityTables(), tables)
}
