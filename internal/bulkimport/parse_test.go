package bulkimport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSVAcceptsValidRows(t *testing.T) {
	input := "sku,name,price,tags\nSKU-1,Widget,9.99,\"red, blue\"\nSKU-2,Gadget,19.99,\n"
	results, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.True(t, results[0].Valid())
	assert.Equal(t, "SKU-1", results[0].Product.SKU)
	assert.Equal(t, 9.99, results[0].Product.Price)
	assert.Equal(t, []string{"red", "blue"}, results[0].Product.Tags)

	assert.True(t, results[1].Valid())
	assert.Empty(t, results[1].Product.Tags)
}

func TestParseCSVFlagsMissingRequiredField(t *testing.T) {
	input := "sku,name,price\n,Widget,9.99\n"
	results, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Valid())
	assert.Equal(t, "sku", results[0].Errors[0].FieldName)
}

func TestParseCSVFlagsNonNumericPrice(t *testing.T) {
	input := "sku,name,price\nSKU-1,Widget,notanumber\n"
	results, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Valid())
	assert.Equal(t, "price", results[0].Errors[0].FieldName)
}

func TestParseCSVFlagsNegativePrice(t *testing.T) {
	input := "sku,name,price\nSKU-1,Widget,-5\n"
	results, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Valid())
	assert.Contains(t, results[0].Errors[0].Description, "non-negative")
}

func TestParseCSVSkipsBlankRows(t *testing.T) {
	input := "sku,name,price\nSKU-1,Widget,9.99\n,,\nSKU-2,Gadget,4.50\n"
	results, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, results, 2)
}
