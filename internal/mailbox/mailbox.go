// Package mailbox fetches raw income emails straight from the user's inbox,
// through the Gmail API or IMAP, so they can be verified without pasting the
// message source by hand.
package mailbox

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"aura-protocol-go/internal/config"
)

// DefaultQuery narrows a search to the kinds of mail that carry income.
const DefaultQuery = `subject:(deposit OR payroll OR salary OR "pay stub" OR offer)`

// DefaultLimit is used when Search is called without a limit.
const DefaultLimit = 20

// Message is a search hit. The body is fetched separately with Raw.
type Message struct {
	ID      string    `json:"id"`
	Subject string    `json:"subject"`
	From    string    `json:"from"`
	Date    time.Time `json:"date"`
	Snippet string    `json:"snippet,omitempty"`
}

// Source lists messages and returns their full RFC 822 source.
type Source interface {
	Search(ctx context.Context, query string, limit int) ([]Message, error)
	Raw(ctx context.Context, id string) (string, error)
	Close() error
}

// New opens the configured mailbox.
func New(ctx context.Context, cfg config.MailboxConfig) (Source, error) {
	if cfg.UseIMAP {
		src, err := NewIMAPSource(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create IMAP source: %w", err)
		}
		logrus.Info("Using IMAP for mailbox access")
		return src, nil
	}

	src, err := NewGmailSource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail API source: %w", err)
	}
	logrus.Info("Using Gmail API for mailbox access")
	return src, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
