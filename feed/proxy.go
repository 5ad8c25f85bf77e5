package feed

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// proxyEnvelope is the response shape of common feed-to-JSON conversion
// proxies: a status field plus an items array.
type proxyEnvelope struct {
	Status string      `json:"status"`
	Items  []proxyItem `json:"items"`
}

type proxyItem struct {
	Title       string         `json:"title"`
	Link        string         `json:"link"`
	PubDate     string         `json:"pubDate"`
	Description string         `json:"description"`
	Content     string         `json:"content"`
	Enclosure   proxyEnclosure `json:"enclosure"`
	Thumbnail   string         `json:"thumbnail"`
}

type proxyEnclosure struct {
	Link      string `json:"link"`
	Type      string `json:"type"`
	Thumbnail string `json:"thumbnail"`
}

// ParseProxyJSON extracts one Record per object from a feed-to-JSON proxy
// payload. Accepts either the usual {status, items: [...]} envelope or a
// bare item array.
func ParseProxyJSON(data []byte) ([]Record, error) {
	var env proxyEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		var items []proxyItem
		if arrErr := json.Unmarshal(data, &items); arrErr != nil {
			return nil, fmt.Errorf("failed to parse proxy payload: %w", err)
		}
		env.Items = items
	}

	records := make([]Record, 0, len(env.Items))
	for _, item := range env.Items {
		summary := item.Description
		if summary == "" {
			summary = item.Content
		}
		records = append(records, Record{
			Title:   item.Title,
			Link:    item.Link,
			Date:    item.PubDate,
			Summary: summary,
			Media:   proxyMedia(item, summary),
		})
	}
	return records, nil
}

// proxyMedia mirrors the XML parser's priority order on the proxy's fields:
// enclosure link (when image-typed or untyped), enclosure thumbnail, item
// thumbnail, then an <img> src scraped from the summary HTML.
func proxyMedia(item proxyItem, summary string) string {
	enc := item.Enclosure
	if enc.Link != "" && (enc.Type == "" || strings.HasPrefix(enc.Type, "image/")) {
		return enc.Link
	}
	if enc.Thumbnail != "" {
		return enc.Thumbnail
	}
	if item.Thumbnail != "" {
		return item.Thumbnail
	}
	return scrapeImageSrc(summary)
}
