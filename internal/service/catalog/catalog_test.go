package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeValues struct {
	titles []string
	rows   map[string][][]interface{}
}

func (f *fakeValues) SheetTitles(ctx context.Context) ([]string, error) { return f.titles, nil }

func (f *fakeValues) Append(ctx context.Context, sheet string, row []interface{}) error { return nil }

func (f *fakeValues) Read(ctx context.Context, sheet string) ([][]interface{}, error) {
	return f.rows[sheet], nil
}

func TestSheetSourceWithHeader(t *testing.T) {
	values := &fakeValues{
		titles: []string{"Log", "Products"},
		rows: map[string][][]interface{}{
			"Products": {
				{"Fiyat", "Ürün", "Stok"},
				{"250 TL", "Ceramic Vase", 12},
				{"", "", ""},
				{"90 TL", "Linen Towel", 0},
			},
		},
	}

	products, err := NewSheetSource(values, "products").Products(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, Product{Name: "Ceramic Vase", Stock: "12", Price: "250 TL"}, products[0])
	assert.Equal(t, "0", products[1].Stock)
}

func TestSheetSourcePositionalColumns(t *testing.T) {
	values := &fakeValues{
		titles: []string{"Products"},
		rows: map[string][][]interface{}{
			"Products": {{"Desk Lamp", "3", "400 TL", "Brass finish"}},
		},
	}

	products, err := NewSheetSource(values, "Products").Products(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Brass finish", products[0].Description)
}

func TestSheetSourceMissingSheetIsEmpty(t *testing.T) {
	values := &fakeValues{titles: []string{"Log"}}

	products, err := NewSheetSource(values, "Products").Products(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.Equal(t, "", Format(products))
}

func TestFormat(t *testing.T) {
	out := Format([]Product{
		{Name: "Desk Lamp", Stock: "3", Price: "400 TL", Description: "Brass finish"},
		{Name: "Mug"},
	})
	assert.Equal(t, "- Desk Lamp | stock: 3 | price: 400 TL | Brass finish\n- Mug | stock: - | price: -", out)
}
