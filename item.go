package newswire

import "time"

// Item is one normalized news entry. Items are immutable once constructed;
// the canonical link URL doubles as the identity, so two records carrying the
// same link are the same item no matter which fetch produced them.
type Item struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"published_at"`
	SourceName  string    `json:"source_name"`
	Description string    `json:"description"`
	Media       string    `json:"media,omitempty"`
}
