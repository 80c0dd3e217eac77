// Package audit appends one record per processed message to the configured stores.
package audit

import (
	"context"
	"errors"
	"sync"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"smart-mail-reply-go/internal/model"
	"smart-mail-reply-go/internal/service/sheets"
)

// TimestampLayout is the timestamp format of spreadsheet rows.
const TimestampLayout = "2006-01-02 15:04"

// Writer appends audit records. Records are never updated or deleted.
type Writer interface {
	Append(ctx context.Context, rec *model.AuditRecord) error
}

// SheetWriter appends rows to a spreadsheet sheet, falling back to the
// first sheet when the named one is absent.
type SheetWriter struct {
	values    sheets.Values
	sheet     string
	bodyLimit int

	mu       sync.Mutex
	resolved string
}

// NewSheetWriter creates a sheet writer. bodyLimit caps the stored body in
// characters; zero or less keeps the full body.
func NewSheetWriter(values sheets.Values, sheet string, bodyLimit int) *SheetWriter {
	return &SheetWriter{values: values, sheet: sheet, bodyLimit: bodyLimit}
}

func (w *SheetWriter) Append(ctx context.Context, rec *model.AuditRecord) error {
	title, err := w.target(ctx)
	if err != nil {
		return err
	}

	row := []interface{}{
		rec.Timestamp.Format(TimestampLayout),
		rec.Sender,
		rec.Subject,
		Truncate(rec.Body, w.bodyLimit),
		string(rec.Category),
		rec.Answer,
	}
	return w.values.Append(ctx, title, row)
}

func (w *SheetWriter) target(ctx context.Context) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.resolved != "" {
		return w.resolved, nil
	}
	title, found, err := sheets.Resolve(ctx, w.values, w.sheet)
	if err != nil {
		return "", err
	}
	if !found {
		logrus.Warnf("Audit sheet %q not found, appending to %q", w.sheet, title)
	}
	w.resolved = title
	return title, nil
}

// Truncate cuts s to at most limit characters.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

type recordStore interface {
	AppendAudit(ctx context.Context, rec *model.AuditRecord) error
}

// RepositoryWriter mirrors records into the local database.
type RepositoryWriter struct {
	store recordStore
}

func NewRepositoryWriter(store recordStore) *RepositoryWriter {
	return &RepositoryWriter{store: store}
}

func (w *RepositoryWriter) Append(ctx context.Context, rec *model.AuditRecord) error {
	return w.store.AppendAudit(ctx, rec)
}

// Multi appends to every writer even when an earlier one fails.
type Multi []Writer

func (m Multi) Append(ctx context.Context, rec *model.AuditRecord) error {
	var errs []error
	for _, w := range m {
		if err := w.Append(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
