// Package sheets wraps the Google Sheets values API for a single spreadsheet.
package sheets

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// Values reads and appends rows in named sheets of one spreadsheet.
type Values interface {
	SheetTitles(ctx context.Context) ([]string, error)
	Append(ctx context.Context, sheet string, row []interface{}) error
	Read(ctx context.Context, sheet string) ([][]interface{}, error)
}

// Client implements Values on the Sheets API
type Client struct {
	srv           *gsheets.Service
	spreadsheetID string
}

// New creates a new Sheets client
func New(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Client, error) {
	srv, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}
	return &Client{srv: srv, spreadsheetID: spreadsheetID}, nil
}

func (c *Client) SheetTitles(ctx context.Context) ([]string, error) {
	ss, err := c.srv.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get spreadsheet: %w", err)
	}
	titles := make([]string, 0, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			titles = append(titles, s.Properties.Title)
		}
	}
	return titles, nil
}

func (c *Client) Append(ctx context.Context, sheet string, row []interface{}) error {
	vr := &gsheets.ValueRange{Values: [][]interface{}{row}}
	_, err := c.srv.Spreadsheets.Values.Append(c.spreadsheetID, A1(sheet), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append row to %s: %w", sheet, err)
	}
	return nil
}

func (c *Client) Read(ctx context.Context, sheet string) ([][]interface{}, error) {
	resp, err := c.srv.Spreadsheets.Values.Get(c.spreadsheetID, quote(sheet)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheet, err)
	}
	return resp.Values, nil
}

// A1 returns the top-left cell range of a sheet.
func A1(sheet string) string {
	return quote(sheet) + "!A1"
}

func quote(sheet string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}

// Resolve returns want when the spreadsheet has a sheet of that title,
// otherwise the first sheet.
func Resolve(ctx context.Context, v Values, want string) (title string, found bool, err error) {
	titles, err := v.SheetTitles(ctx)
	if err != nil {
		return "", false, err
	}
	for _, t := range titles {
		if strings.EqualFold(t, want) {
			return t, true, nil
		}
	}
	if len(titles) == 0 {
		return "", false, fmt.Errorf("spreadsheet has no sheets")
	}
	return titles[0], false, nil
}
