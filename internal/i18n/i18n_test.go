package i18n

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	require.NoError(t, Initialize("en"))

	assert.Equal(t, "Invalid email", T("en", KeyValidationInvalid, "email"))
	assert.Equal(t, T("en", KeyCartEmpty), T("fr", KeyCartEmpty))
	assert.NotEqual(t, T("en", KeyCartEmpty), T("es", KeyCartEmpty))
	assert.Equal(t, "no.such.key", T("en", "no.such.key"))

	assert.True(t, Has("es", KeyOrderNotFound))
	assert.False(t, Has("en", "no.such.key"))

	langs := GetSupportedLanguages()
	sort.Strings(langs)
	assert.Equal(t, []string{"en", "es"}, langs)
}

func TestLocalesShareKeys(t *testing.T) {
	load := func(name string) map[string]string {
		data, err := localeFS.ReadFile("locales/" + name)
		require.NoError(t, err)
		var m map[string]string
		require.NoError(t, json.Unmarshal(data, &m))
		return m
	}
	en, es := load("en.json"), load("es.json")

	for key := range en {
		assert.Contains(t, es, key)
	}
	assert.Len(t, es, len(en))
}
