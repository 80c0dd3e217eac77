package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"smart-mail-reply-go/internal/model"
)

func TestAuditXLSX(t *testing.T) {
	records := []model.AuditRecord{
		{
			Timestamp: time.Date(2024, 6, 3, 14, 5, 0, 0, time.UTC),
			Sender:    "Ayse <ayse@example.com>",
			Subject:   "Return",
			Body:      "It has been 20 days.",
			Category:  model.CategoryReturn,
			Answer:    "The return window has passed.",
			Model:     "gemini-flash-latest",
			Replied:   true,
		},
		{
			Timestamp: time.Date(2024, 6, 3, 14, 6, 0, 0, time.UTC),
			Sender:    "bob@example.com",
			Subject:   "Lamp",
			Category:  model.CategoryOther,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, AuditXLSX(&buf, records))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Timestamp", rows[0][0])
	assert.Equal(t, []string{"2024-06-03 14:05", "Ayse <ayse@example.com>", "Return", "It has been 20 days.", "RETURN", "The return window has passed.", "gemini-flash-latest", "yes"}, rows[1])
	assert.Equal(t, "OTHER", rows[2][4])
	assert.Equal(t, "no", rows[2][7])
}

func TestAuditXLSXEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, AuditXLSX(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
