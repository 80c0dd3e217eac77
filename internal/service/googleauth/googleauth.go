// Package googleauth builds client options shared by the Gmail and Sheets clients.
package googleauth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"smart-mail-reply-go/internal/config"
)

// Scopes covers reading and relabelling mail, sending replies and writing the audit sheet.
var Scopes = []string{
	gmail.GmailModifyScope,
	gmail.GmailSendScope,
	sheets.SpreadsheetsScope,
}

// ClientOptions returns the option set for Google API clients. A service
// account credentials file takes precedence over a refresh token.
func ClientOptions(ctx context.Context, cfg config.GoogleConfig) ([]option.ClientOption, error) {
	if cfg.CredentialsFile != "" {
		return []option.ClientOption{
			option.WithCredentialsFile(cfg.CredentialsFile),
			option.WithScopes(Scopes...),
		}, nil
	}

	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, fmt.Errorf("google OAuth2 client id, secret and refresh token are required")
	}

	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       Scopes,
		Endpoint:     google.Endpoint,
	}
	tokenSource := oauth2Config.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	return []option.ClientOption{option.WithTokenSource(tokenSource)}, nil
}
