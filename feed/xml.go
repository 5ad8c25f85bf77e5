package feed

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// ParseXML extracts one Record per entry-like element from feed text. The
// gofeed library detects and handles both RSS item and Atom entry elements,
// so this function serves both formats transparently. The input must already
// be decoded to text; byte-level charset handling is the fetcher's job.
func ParseXML(text string) ([]Record, error) {
	fp := gofeed.NewParser()
	parsed, err := fp.ParseString(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	records := make([]Record, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		records = append(records, Record{
			Title:   item.Title,
			Link:    itemLink(item),
			Date:    itemDateToken(item),
			Summary: itemSummary(item),
			Media:   itemMedia(item),
		})
	}
	return records, nil
}

// itemLink prefers the normalized link, falling back to the first link
// element gofeed collected (covers Atom entries whose only link carries an
// href attribute).
func itemLink(item *gofeed.Item) string {
	if item.Link != "" {
		return item.Link
	}
	if len(item.Links) > 0 {
		return item.Links[0]
	}
	return ""
}

// itemDateToken returns the raw date token: pubDate (RSS) or published
// (Atom) first, then updated. gofeed keeps the unparsed strings alongside
// its own parsed values; the raw token is handed to the date normalizer so
// the ambiguous-timezone policy applies uniformly.
func itemDateToken(item *gofeed.Item) string {
	if item.Published != "" {
		return item.Published
	}
	return item.Updated
}

func itemSummary(item *gofeed.Item) string {
	if item.Description != "" {
		return item.Description
	}
	return item.Content
}

// itemMedia locates a representative image URL. Priority order: structured
// media:content URL, enclosure with an image MIME type, media:thumbnail or
// feed-level item image, then an <img> src scraped from the summary HTML.
// First hit wins.
func itemMedia(item *gofeed.Item) string {
	if media, ok := item.Extensions["media"]; ok {
		for _, ext := range media["content"] {
			if url := ext.Attrs["url"]; url != "" {
				return url
			}
		}
	}

	for _, enc := range item.Enclosures {
		if enc.URL != "" && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}

	if media, ok := item.Extensions["media"]; ok {
		for _, ext := range media["thumbnail"] {
			if url := ext.Attrs["url"]; url != "" {
				return url
			}
		}
	}
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}

	return scrapeImageSrc(itemSummary(item))
}

// scrapeImageSrc pulls the first <img> src out of an HTML fragment. Returns
// empty on anything that is not parseable HTML with an image.
func scrapeImageSrc(fragment string) string {
	if !strings.Contains(fragment, "<img") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img").First().Attr("src")
	return src
}
