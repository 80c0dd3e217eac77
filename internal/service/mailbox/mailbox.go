// Package mailbox reads unseen customer messages from an IMAP server or the Gmail API.
package mailbox

import (
	"context"

	"smart-mail-reply-go/internal/model"
)

// Handle identifies a message inside a selected folder.
type Handle string

// Gateway opens mailbox sessions. Connect fails with model.ErrAuth when the
// credentials are rejected.
type Gateway interface {
	Connect(ctx context.Context) (Session, error)
}

// Session is a connected mailbox scoped to a single run.
type Session interface {
	// SelectFolder fails with model.ErrFolderNotFound for an unknown folder or label.
	SelectFolder(ctx context.Context, name string) error
	ListUnseen(ctx context.Context) ([]Handle, error)
	// Fetch retrieves and decodes a message and marks it seen.
	Fetch(ctx context.Context, h Handle) (model.InboundMessage, error)
	MarkSeen(ctx context.Context, h Handle) error
	Close() error
}
