package geo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var virginia = Entry{Lat: 37.926868, Lng: -78.024902}

func TestResolveKnownAndFallback(t *testing.T) {
	table := New(map[string]Entry{
		"USA": {Country: "United States", Lat: 38, Lng: -97},
	}, "Virginia, USA", virginia)

	key, e := table.Resolve("USA")
	assert.Equal(t, "USA", key)
	assert.Equal(t, "United States", e.Country)

	key, e = table.Resolve("Atlantis")
	assert.Equal(t, "Virginia, USA", key)
	assert.Equal(t, "Virginia, USA", e.Country)
	assert.InDelta(t, 37.926868, e.Lat, 1e-9)

	key, _ = table.Resolve("")
	assert.Equal(t, "Virginia, USA", key)
	assert.Equal(t, 2, table.Len())
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "countries.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"India":{"country":"India","lat":20,"lng":77}}`), 0o644))

	table, err := Load(path, "Virginia, USA", virginia)
	require.NoError(t, err)

	e, ok := table.Lookup("India")
	require.True(t, ok)
	assert.Equal(t, 77.0, e.Lng)
	_, ok = table.Lookup("Virginia, USA")
	assert.True(t, ok)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "countries.yaml")
	data := "Brazil:\n  country: Brazil\n  lat: -10\n  lng: -55\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	table, err := Load(path, "Virginia, USA", virginia)
	require.NoError(t, err)

	e, ok := table.Lookup("Brazil")
	require.True(t, ok)
	assert.Equal(t, -10.0, e.Lat)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"), "X", Entry{})
	assert.Error(t, err)
}

func TestLoadEmptyPathGivesFallbackOnly(t *testing.T) {
	table, err := Load("", "Virginia, USA", virginia)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, "Virginia, USA", table.Fallback())
}
