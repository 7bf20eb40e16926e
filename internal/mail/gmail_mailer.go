package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailMailer sends through the Gmail API (users.messages.send) as the
// account owning the refresh token.
type GmailMailer struct {
	service *gmail.Service
	from    string
	now     func() time.Time
}

// GmailTokenSource builds a refreshing token source from an offline refresh
// token, scoped to sending only.
func GmailTokenSource(ctx context.Context, clientID, clientSecret, refreshToken string) oauth2.TokenSource {
	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailSendScope},
	}
	token := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now(), // force refresh
	}
	return cfg.TokenSource(ctx, token)
}

// NewGmailMailer creates the Gmail client. Extra options (endpoint, HTTP
// client) are appended after the token source.
func NewGmailMailer(ctx context.Context, ts oauth2.TokenSource, from string, opts ...option.ClientOption) (*GmailMailer, error) {
	opts = append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gmail service: %w", err)
	}
	return &GmailMailer{service: svc, from: from, now: time.Now}, nil
}

func (m *GmailMailer) Send(ctx context.Context, msg Message) error {
	raw, err := Build(m.from, msg, m.now())
	if err != nil {
		return err
	}
	_, err = m.service.Users.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gmail send: %w", err)
	}
	return nil
}
