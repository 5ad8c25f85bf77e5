package feed

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pevans/newswire"
)

// maxDescriptionLen caps the plain-text summary stored on an item.
const maxDescriptionLen = 220

// Rejection reasons for individual records. A rejected record never affects
// its siblings in the same batch.
var (
	ErrMissingTitle = fmt.Errorf("record has no title")
	ErrMissingLink  = fmt.Errorf("record has no link")
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeRecord converts a raw Record into an Item, or rejects it. Records
// missing a title or link, or whose date token the normalizer cannot
// resolve, are rejected. Media URLs are stored as found; image-shape
// validation is the consumer's concern.
func NormalizeRecord(rec Record, sourceName string, policy newswire.DatePolicy) (newswire.Item, error) {
	title := strings.TrimSpace(rec.Title)
	if title == "" {
		return newswire.Item{}, ErrMissingTitle
	}

	link := strings.TrimSpace(rec.Link)
	if link == "" {
		return newswire.Item{}, ErrMissingLink
	}

	publishedAt, err := newswire.ParseFeedTime(rec.Date, policy)
	if err != nil {
		return newswire.Item{}, fmt.Errorf("record %q: %w", link, err)
	}

	return newswire.Item{
		ID:          link,
		Title:       title,
		Link:        link,
		PublishedAt: publishedAt,
		SourceName:  sourceName,
		Description: summarize(rec.Summary),
		Media:       strings.TrimSpace(rec.Media),
	}, nil
}

// NormalizeRecords maps a batch of records to items, silently dropping
// rejects.
func NormalizeRecords(records []Record, sourceName string, policy newswire.DatePolicy) []newswire.Item {
	items := make([]newswire.Item, 0, len(records))
	for _, rec := range records {
		item, err := NormalizeRecord(rec, sourceName, policy)
		if err != nil {
			continue
		}
		items = append(items, item)
	}
	return items
}

// summarize strips markup, collapses whitespace, and truncates to the
// configured cap.
func summarize(raw string) string {
	text := stripHTML(raw)
	text = strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))

	runes := []rune(text)
	if len(runes) > maxDescriptionLen {
		text = strings.TrimSpace(string(runes[:maxDescriptionLen])) + "..."
	}
	return text
}

// stripHTML reduces an HTML fragment to its text content. Plain text passes
// through unchanged apart from entity unescaping.
func stripHTML(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return doc.Text()
}
