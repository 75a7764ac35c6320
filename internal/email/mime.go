package email

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
)

// TextBody returns the text to search for income figures. MIME messages are
// decoded with go-message and the first text/plain part is used (text/html is
// stripped to text when no plain part exists). Anything else, or a message
// that fails to decode, uses the parsed body as is.
func TextBody(raw string, parsed *ParsedEmail) string {
	if !parsed.IsMIME() {
		return parsed.Body
	}

	text, err := decodeText(raw)
	if err != nil || strings.TrimSpace(text) == "" {
		return parsed.Body
	}
	return strings.TrimSpace(text)
}

func decodeText(raw string) (string, error) {
	entity, err := message.Read(strings.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return "", fmt.Errorf("failed to read message: %w", err)
	}

	var plain, html string
	if err := walkParts(entity, &plain, &html); err != nil {
		return "", err
	}

	if plain != "" {
		return plain, nil
	}
	return htmlToPlainText(html), nil
}

// walkParts collects the first text/plain and text/html bodies, descending
// into nested multiparts.
func walkParts(entity *message.Entity, plain, html *string) error {
	if mr := entity.MultipartReader(); mr != nil {
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				return nil
			}
			if err != nil && !message.IsUnknownCharset(err) {
				return fmt.Errorf("failed to read part: %w", err)
			}
			if err := walkParts(part, plain, html); err != nil {
				return err
			}
		}
	}

	content, err := io.ReadAll(entity.Body)
	if err != nil {
		return fmt.Errorf("failed to read part body: %w", err)
	}

	contentType, _, _ := entity.Header.ContentType()
	switch {
	case contentType == "" || contentType == "text/plain":
		if *plain == "" {
			*plain = string(content)
		}
	case contentType == "text/html":
		if *html == "" {
			*html = string(content)
		}
	}
	return nil
}

var htmlTag = regexp.MustCompile(`<[^>]*>`)

var htmlBreaks = strings.NewReplacer(
	"<br>", "\n",
	"<br/>", "\n",
	"<br />", "\n",
	"<p>", "\n",
	"</p>", "\n",
	"<div>", "\n",
	"</div>", "\n",
)

var htmlEntities = strings.NewReplacer(
	"&nbsp;", " ",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", "\"",
	"&amp;", "&",
)

// htmlToPlainText converts HTML to plain text (simple implementation)
func htmlToPlainText(html string) string {
	text := htmlBreaks.Replace(html)
	text = htmlTag.ReplaceAllString(text, "")
	text = htmlEntities.Replace(text)
	return strings.TrimSpace(text)
}
