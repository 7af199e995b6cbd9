package vocab

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"vozbusca/internal/domain"
)

func TestDefaultTablesAreValid(t *testing.T) {
	t.Parallel()

	tables := Default()
	require.NoError(t, tables.Validate())
	require.NotEmpty(t, tables.Districts)
	require.Equal(t, 10, tables.NumberWords["diez"])
}

func TestDefaultReturnsIndependentCopies(t *testing.T) {
	t.Parallel()

	a := Default()
	a.NumberWords["dos"] = 99
	a.Districts[0].Name = "changed"

	b := Default()
	require.Equal(t, 2, b.NumberWords["dos"])
	require.Equal(t, "Miraflores", b.Districts[0].Name)
}

func TestLoadFileMissingReturnsDefaults(t *testing.T) {
	t.Parallel()

	tables, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, len(Default().Districts), len(tables.Districts))

	tables, err = LoadFile("  ")
	require.NoError(t, err)
	require.Equal(t, len(Default().Operations), len(tables.Operations))
}

func TestLoadFileExtendsDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "vocab.yaml")
	contents := `
districts:
  - name: Asia
    aliases: [playa asia]
propertyTypes:
  - type: house
    phrases: [casona]
numberWords:
  once: 11
multipliers:
  palos: 1000000
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	tables, err := LoadFile(path)
	require.NoError(t, err)

	last := tables.Districts[len(tables.Districts)-1]
	require.Equal(t, District{Name: "Asia", Aliases: []string{"playa asia"}}, last)
	require.Equal(t, PropertyTypeEntry{Type: domain.PropertyTypeHouse, Phrases: []string{"casona"}}, tables.PropertyTypes[len(tables.PropertyTypes)-1])
	require.Equal(t, 11, tables.NumberWords["once"])
	require.Equal(t, 1, tables.NumberWords["uno"])
	require.Equal(t, 1e6, tables.Multipliers["palos"])
}

func TestLoadFileRejectsInvalidEntries(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"bad yaml":       "districts: [",
		"empty phrases":  "amenities:\n  - code: sauna\n",
		"bad bound":      "pricePatterns:\n  - prefix: tope\n    bound: exact\n",
		"negative word":  "numberWords:\n  menosuno: -1\n",
		"zero factor":    "multipliers:\n  nada: 0\n",
		"unnamed region": "districts:\n  - aliases: [x]\n",
	}

	for name, contents := range cases {
		name, contents := name, contents
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "vocab.yaml")
			require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
			_, err := LoadFile(path)
			require.Error(t, err)
		})
	}
}
