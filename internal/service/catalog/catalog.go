// Package catalog loads the product list that grounds replies.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"smart-mail-reply-go/internal/service/sheets"
)

// Product is one catalog row.
type Product struct {
	Name        string `json:"name"`
	Stock       string `json:"stock"`
	Price       string `json:"price"`
	Description string `json:"description"`
}

// Source provides the catalog for a run.
type Source interface {
	Products(ctx context.Context) ([]Product, error)
}

// Empty is a Source with no products.
type Empty struct{}

func (Empty) Products(ctx context.Context) ([]Product, error) { return nil, nil }

// SheetSource reads products from a sheet with the columns name, stock,
// price and description. A header row is recognised and may reorder them.
type SheetSource struct {
	values sheets.Values
	sheet  string
}

func NewSheetSource(values sheets.Values, sheet string) *SheetSource {
	return &SheetSource{values: values, sheet: sheet}
}

// Products returns nil without error when the catalog sheet does not exist.
func (s *SheetSource) Products(ctx context.Context) ([]Product, error) {
	title, found, err := sheets.Resolve(ctx, s.values, s.sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve catalog sheet: %w", err)
	}
	if !found {
		logrus.Warnf("Catalog sheet %q not found, continuing with an empty catalog", s.sheet)
		return nil, nil
	}

	rows, err := s.values.Read(ctx, title)
	if err != nil {
		return nil, err
	}
	return parseRows(rows), nil
}

var headerAliases = map[string]int{
	"name": 0, "product": 0, "ürün": 0, "urun": 0, "ürün adı": 0,
	"stock": 1, "stok": 1,
	"price": 2, "fiyat": 2,
	"description": 3, "açıklama": 3, "aciklama": 3,
}

func parseRows(rows [][]interface{}) []Product {
	if len(rows) == 0 {
		return nil
	}

	columns := []int{0, 1, 2, 3}
	if header, ok := headerColumns(rows[0]); ok {
		columns = header
		rows = rows[1:]
	}

	products := lo.FilterMap(rows, func(row []interface{}, _ int) (Product, bool) {
		cell := func(field int) string {
			idx := columns[field]
			if idx < 0 || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(fmt.Sprint(row[idx]))
		}
		p := Product{Name: cell(0), Stock: cell(1), Price: cell(2), Description: cell(3)}
		return p, p.Name != ""
	})
	return products
}

func headerColumns(row []interface{}) ([]int, bool) {
	columns := []int{-1, -1, -1, -1}
	matched := false
	for i, v := range row {
		field, ok := headerAliases[strings.ToLower(strings.TrimSpace(fmt.Sprint(v)))]
		if ok && columns[field] < 0 {
			columns[field] = i
			matched = true
		}
	}
	return columns, matched
}

// Format renders products as the catalog context of a prompt.
func Format(products []Product) string {
	lines := lo.Map(products, func(p Product, _ int) string {
		line := fmt.Sprintf("- %s | stock: %s | price: %s", p.Name, orDash(p.Stock), orDash(p.Price))
		if p.Description != "" {
			line += " | " + p.Description
		}
		return line
	})
	return strings.Join(lines, "\n")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
