package mailbox

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/sirupsen/logrus"

	"aura-protocol-go/internal/config"
)

// IMAPSource reads the INBOX over IMAP. Message ids are UIDs.
type IMAPSource struct {
	mu     sync.Mutex
	client *client.Client
}

// NewIMAPSource connects and logs in.
func NewIMAPSource(cfg config.MailboxConfig) (*IMAPSource, error) {
	c, err := client.DialTLS(fmt.Sprintf("%s:%d", cfg.IMAPHost, cfg.IMAPPort), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP server: %w", err)
	}

	if err := c.Login(cfg.IMAPUser, cfg.IMAPPassword); err != nil {
		c.Logout()
		return nil, fmt.Errorf("failed to login to IMAP server: %w", err)
	}

	return &IMAPSource{client: c}, nil
}

// Search runs a text search over the INBOX and returns the newest matches.
// An empty query matches the income keywords of DefaultQuery.
func (s *IMAPSource) Search(ctx context.Context, query string, limit int) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.client.Select("INBOX", true); err != nil {
		return nil, fmt.Errorf("failed to select INBOX: %w", err)
	}

	uids, err := s.client.UidSearch(searchCriteria(query))
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	uids = newestUIDs(uids, normalizeLimit(limit))
	if len(uids) == 0 {
		return []Message{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	ch := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- s.client.UidFetch(seqset, []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid}, ch)
	}()

	var messages []Message
	for msg := range ch {
		messages = append(messages, imapMessage(msg))
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	// Newest first.
	sort.Slice(messages, func(i, j int) bool { return messages[i].Date.After(messages[j].Date) })
	return messages, nil
}

// Raw fetches BODY[] of the message with the given UID without setting the
// \Seen flag.
func (s *IMAPSource) Raw(ctx context.Context, id string) (string, error) {
	uid, err := strconv.ParseUint(id, 10, 32)
	if err != nil || uid == 0 {
		return "", fmt.Errorf("invalid message id %q", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.client.Select("INBOX", true); err != nil {
		return "", fmt.Errorf("failed to select INBOX: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uint32(uid))
	section := &imap.BodySectionName{Peek: true}

	ch := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.client.UidFetch(seqset, []imap.FetchItem{section.FetchItem()}, ch)
	}()

	var raw string
	for msg := range ch {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		b, err := io.ReadAll(body)
		if err != nil {
			logrus.Warnf("Failed to read IMAP message %s: %v", id, err)
			continue
		}
		raw = string(b)
	}
	if err := <-done; err != nil {
		return "", fmt.Errorf("failed to fetch message %s: %w", id, err)
	}
	if raw == "" {
		return "", fmt.Errorf("message %s not found", id)
	}
	return raw, nil
}

// Close logs out of the server.
func (s *IMAPSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client.Logout()
}

var imapKeywords = []string{"deposit", "payroll", "salary", "pay stub", "offer"}

func searchCriteria(query string) *imap.SearchCriteria {
	if query != "" {
		criteria := imap.NewSearchCriteria()
		criteria.Text = []string{query}
		return criteria
	}

	// SUBJECT k1 OR SUBJECT k2 OR ... folded into nested ORs.
	var criteria *imap.SearchCriteria
	for _, kw := range imapKeywords {
		next := imap.NewSearchCriteria()
		next.Header.Add("Subject", kw)
		if criteria == nil {
			criteria = next
			continue
		}
		or := imap.NewSearchCriteria()
		or.Or = [][2]*imap.SearchCriteria{{criteria, next}}
		criteria = or
	}
	return criteria
}

// newestUIDs keeps the limit highest UIDs.
func newestUIDs(uids []uint32, limit int) []uint32 {
	sorted := append([]uint32(nil), uids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	if len(sorted) > limit {
		sorted = sorted[len(sorted)-limit:]
	}
	return sorted
}

func imapMessage(msg *imap.Message) Message {
	out := Message{ID: strconv.FormatUint(uint64(msg.Uid), 10)}
	if msg.Envelope != nil {
		out.Subject = msg.Envelope.Subject
		out.Date = msg.Envelope.Date
		if len(msg.Envelope.From) > 0 {
			out.From = msg.Envelope.From[0].Address()
		}
	}
	return out
}
