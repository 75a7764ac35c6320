package mailbox

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"aura-protocol-go/internal/config"
)

// GmailSource reads the mailbox through the Gmail API.
type GmailSource struct {
	service   *gmail.Service
	userEmail string
}

// NewGmailSource creates a Gmail API source authorized by a refresh token.
func NewGmailSource(ctx context.Context, cfg config.MailboxConfig) (*GmailSource, error) {
	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{gmail.GmailReadonlyScope},
		Endpoint:     google.Endpoint,
	}
	tokenSource := oauth2Config.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	service, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return NewGmailSourceWithService(service, cfg.UserEmail), nil
}

// NewGmailSourceWithService wraps an existing Gmail service.
func NewGmailSourceWithService(service *gmail.Service, userEmail string) *GmailSource {
	if userEmail == "" {
		userEmail = "me"
	}
	return &GmailSource{service: service, userEmail: userEmail}
}

// Search lists messages matching a Gmail search query.
func (g *GmailSource) Search(ctx context.Context, query string, limit int) ([]Message, error) {
	if query == "" {
		query = DefaultQuery
	}
	limit = normalizeLimit(limit)

	response, err := g.service.Users.Messages.List(g.userEmail).
		Q(query).
		MaxResults(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	messages := make([]Message, 0, len(response.Messages))
	for _, ref := range response.Messages {
		msg, err := g.service.Users.Messages.Get(g.userEmail, ref.Id).
			Format("metadata").
			MetadataHeaders("Subject", "From", "Date").
			Context(ctx).
			Do()
		if err != nil {
			logrus.Warnf("Failed to get message %s: %v", ref.Id, err)
			continue
		}
		messages = append(messages, gmailMessage(msg))
	}
	return messages, nil
}

// Raw returns the full RFC 822 source of a message.
func (g *GmailSource) Raw(ctx context.Context, id string) (string, error) {
	msg, err := g.service.Users.Messages.Get(g.userEmail, id).Format("raw").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get message %s: %w", id, err)
	}
	raw, err := decodeRaw(msg.Raw)
	if err != nil {
		return "", fmt.Errorf("failed to decode message %s: %w", id, err)
	}
	return raw, nil
}

// Close is a no-op; the Gmail service holds no connection.
func (g *GmailSource) Close() error {
	return nil
}

func gmailMessage(msg *gmail.Message) Message {
	out := Message{ID: msg.Id, Snippet: msg.Snippet}
	if msg.InternalDate > 0 {
		out.Date = time.UnixMilli(msg.InternalDate).UTC()
	}
	if msg.Payload == nil {
		return out
	}
	for _, header := range msg.Payload.Headers {
		switch strings.ToLower(header.Name) {
		case "subject":
			out.Subject = header.Value
		case "from":
			out.From = header.Value
			if addr, err := mail.ParseAddress(header.Value); err == nil {
				out.From = addr.Address
			}
		}
	}
	return out
}

// decodeRaw accepts the URL-safe base64 the Gmail API uses, with or without
// padding.
func decodeRaw(data string) (string, error) {
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(b), nil
	}
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
