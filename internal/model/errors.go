package model

import "errors"

var (
	// ErrAuth is returned when a mailbox or outbound session rejects the credentials.
	ErrAuth = errors.New("authentication failed")
	// ErrFolderNotFound is returned when the configured folder or label does not exist.
	ErrFolderNotFound = errors.New("folder not found")
	// ErrNoModelResponded is recorded when every candidate model failed.
	ErrNoModelResponded = errors.New("no model produced a response")
)

// FailureKind classifies an entry in a run summary.
type FailureKind string

const (
	FailureAuth           FailureKind = "AuthError"
	FailureFolderNotFound FailureKind = "FolderNotFoundError"
	FailureConnection     FailureKind = "ConnectionError"
	FailureFetch          FailureKind = "FetchFailure"
	FailureGeneration     FailureKind = "GenerationError"
	FailureDispatch       FailureKind = "DispatchFailure"
	FailureAudit          FailureKind = "AuditFailure"
)

// KindOf maps a connection-level error to its failure kind.
func KindOf(err error) FailureKind {
	switch {
	case errors.Is(err, ErrAuth):
		return FailureAuth
	case errors.Is(err, ErrFolderNotFound):
		return FailureFolderNotFound
	default:
		return FailureConnection
	}
}
