package catalog_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ProductCatalog/internal/catalog"
)

func TestParseInput_Valid(t *testing.T) {
	in, err := catalog.ParseInput([]byte(`{
		"name": "  Cup ",
		"category": "Kitchen",
		"description": "x",
		"price": 100,
		"stock": 5,
		"image": "https://example.com/cup.png",
		"rating": 4.8
	}`))
	require.NoError(t, err)

	assert.Equal(t, "Cup", in.Name)
	assert.Equal(t, 100.0, in.Price)
	assert.Equal(t, 5, in.Stock)
	assert.Equal(t, "https://example.com/cup.png", in.Image)
	require.NotNil(t, in.Rating)
	assert.Equal(t, 4.8, *in.Rating)
}

func TestParseInput_CoercesNumericStrings(t *testing.T) {
	in, err := catalog.ParseInput([]byte(`{"name":"Cup","category":"K","description":"x","price":"99.5","stock":"3","rating":"7"}`))
	require.NoError(t, err)

	assert.Equal(t, 99.5, in.Price)
	assert.Equal(t, 3, in.Stock)
	require.NotNil(t, in.Rating)
	assert.Equal(t, 7.0, *in.Rating)
}

func TestParseInput_ZeroRatingMeansUnrated(t *testing.T) {
	for _, rating := range []string{`0`, `""`, `null`} {
		in, err := catalog.ParseInput([]byte(`{"name":"Cup","category":"K","description":"x","price":1,"stock":0,"rating":` + rating + `}`))
		require.NoError(t, err, rating)
		assert.Nil(t, in.Rating, rating)
	}
}

func TestParseInput_FieldErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing name", `{"category":"K","description":"x","price":1,"stock":1}`, "name"},
		{"blank category", `{"name":"a","category":"  ","description":"x","price":1,"stock":1}`, "category"},
		{"missing description", `{"name":"a","category":"K","price":1,"stock":1}`, "description"},
		{"missing price", `{"name":"a","category":"K","description":"x","stock":1}`, "price"},
		{"null price", `{"name":"a","category":"K","description":"x","price":null,"stock":1}`, "price"},
		{"zero price", `{"name":"a","category":"K","description":"x","price":0,"stock":1}`, "price"},
		{"negative price", `{"name":"a","category":"K","description":"x","price":-3,"stock":1}`, "price"},
		{"text price", `{"name":"a","category":"K","description":"x","price":"cheap","stock":1}`, "price"},
		{"missing stock", `{"name":"a","category":"K","description":"x","price":1}`, "stock"},
		{"fractional stock", `{"name":"a","category":"K","description":"x","price":1,"stock":1.5}`, "stock"},
		{"negative stock", `{"name":"a","category":"K","description":"x","price":1,"stock":-1}`, "stock"},
		{"rating too high", `{"name":"a","category":"K","description":"x","price":1,"stock":1,"rating":11}`, "rating"},
		{"rating too low", `{"name":"a","category":"K","description":"x","price":1,"stock":1,"rating":0.5}`, "rating"},
		{"object image", `{"name":"a","category":"K","description":"x","price":1,"stock":1,"image":{"src":"cup.png"}}`, "image"},
		{"object name", `{"name":{},"category":"K","description":"x","price":1,"stock":1}`, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.ParseInput([]byte(tt.body))

			var ve *catalog.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields, tt.field)
		})
	}
}

func TestParseInput_ImageIsFreeText(t *testing.T) {
	for _, image := range []string{"https://example.com/cup.png", "/img/cup.png", "cup.png"} {
		in, err := catalog.ParseInput([]byte(`{"name":"Cup","category":"K","description":"x","price":1,"stock":1,"image":"` + image + `"}`))
		require.NoError(t, err, image)
		assert.Equal(t, image, in.Image)
	}
}

func TestParseInput_ReportsEveryMissingField(t *testing.T) {
	_, err := catalog.ParseInput([]byte(`{}`))

	var ve *catalog.ValidationError
	require.ErrorAs(t, err, &ve)
	for _, f := range []string{"name", "category", "description", "price", "stock"} {
		assert.Equal(t, "required", ve.Fields[f], f)
	}
}

func TestParseInput_BadJSON(t *testing.T) {
	for _, body := range []string{``, `{`, `[1,2]`, `{"name":"a"} {"name":"b"}`} {
		_, err := catalog.ParseInput([]byte(body))
		require.Error(t, err, body)

		var ve *catalog.ValidationError
		assert.False(t, errors.As(err, &ve), body)
	}
}

func TestParseUpdate_RequiresID(t *testing.T) {
	_, _, err := catalog.ParseUpdate([]byte(`{"name":"a","category":"K","description":"x","price":1,"stock":1}`))

	var ve *catalog.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "required", ve.Fields["id"])

	id, in, err := catalog.ParseUpdate([]byte(`{"id":"abc123","name":"a","category":"K","description":"x","price":1,"stock":1}`))
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)
	assert.Equal(t, "a", in.Name)
}

func TestValidationError_Message(t *testing.T) {
	err := &catalog.ValidationError{Fields: map[string]string{"stock": "required", "price": "required"}}
	assert.Equal(t, "validation failed: price: required; stock: required", err.Error())
}
