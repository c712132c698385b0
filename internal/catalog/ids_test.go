package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ProductCatalog/internal/catalog"
)

func TestNewIDGenerator_NanoID(t *testing.T) {
	gen, err := catalog.NewIDGenerator("", 0)
	require.NoError(t, err)

	for range 100 {
		id := gen()
		assert.Len(t, id, catalog.DefaultIDSize)
		assert.True(t, catalog.ValidID(id), id)
	}
}

func TestNewIDGenerator_UUID(t *testing.T) {
	gen, err := catalog.NewIDGenerator(catalog.IDSchemeUUID, 0)
	require.NoError(t, err)

	a, b := gen(), gen()
	assert.NotEqual(t, a, b)
	assert.True(t, catalog.ValidID(a), a)
}

func TestNewIDGenerator_UnknownScheme(t *testing.T) {
	_, err := catalog.NewIDGenerator("sequence", 6)
	assert.Error(t, err)
}

func TestValidID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"abc123", true},
		{"V1StGX", true},
		{"a_b-c", true},
		{"", false},
		{"abc 12", false},
		{"abc/12", false},
		{"日本", false},
		{string(make([]byte, 65)), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.valid, catalog.ValidID(tt.id), "%q", tt.id)
	}
}
