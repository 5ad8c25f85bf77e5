// Package feed turns raw feed payloads into normalized items. The two
// parsers (XML/Atom and proxy-JSON) are pure structural extractors producing
// Records; NormalizeRecord owns all validation and rejection.
package feed

// Record is the raw extraction unit shared by both parsers. No field is
// validated at this stage: empty titles, missing links, and junk date tokens
// pass through and are rejected by the normalizer.
type Record struct {
	Title string

	// Link is the item's canonical URL.
	Link string

	// Date is the raw timestamp token exactly as it appeared on the wire.
	Date string

	// Summary may still carry HTML markup.
	Summary string

	// Media is a best-effort representative image URL, empty when no hint
	// was found.
	Media string
}
