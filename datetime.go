package newswire

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DatePolicy controls how date tokens that carry no UTC offset are
// interpreted. Feed-to-JSON proxies differ in whether they pre-localize
// times before serializing, and the token alone cannot disambiguate, so the
// interpretation is fixed per deployment rather than guessed per token.
type DatePolicy string

const (
	// DatePolicyUTC treats offset-less tokens as UTC wall-clock time.
	DatePolicyUTC DatePolicy = "utc"

	// DatePolicyLocal treats offset-less tokens as the process's local
	// civil time.
	DatePolicyLocal DatePolicy = "local"
)

// ErrUnparseableDate is returned when a date token matches no supported
// format. Items with unparseable dates are dropped by the normalizer rather
// than defaulted to the current time.
var ErrUnparseableDate = errors.New("unparseable date")

// offsetLayouts carry an explicit UTC marker or numeric offset. Tokens
// matching one of these are trusted as-is regardless of policy.
var offsetLayouts = []string{
	time.RFC1123Z,
	time.RFC822Z,
	time.RFC3339Nano,
	time.RFC3339,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
}

// proxyLayout is the fixed offset-less pattern produced by feed-to-JSON
// conversion proxies.
const proxyLayout = "2006-01-02 15:04:05"

// genericLayouts are last-resort forms. Named-zone and bare layouts are
// resolved in the policy's location.
var genericLayouts = []string{
	time.RFC1123,
	time.RFC822,
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseFeedTime converts a raw timestamp token from a feed or proxy into an
// absolute instant. Tokens with an embedded offset parse directly; the
// proxy's offset-less form resolves per policy; anything else falls through
// to the generic layouts or fails with ErrUnparseableDate.
func ParseFeedTime(token string, policy DatePolicy) (time.Time, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return time.Time{}, ErrUnparseableDate
	}

	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, token); err == nil {
			return t, nil
		}
	}

	loc := time.UTC
	if policy == DatePolicyLocal {
		loc = time.Local
	}

	if t, err := time.ParseInLocation(proxyLayout, token, loc); err == nil {
		return t, nil
	}

	for _, layout := range genericLayouts {
		if t, err := time.ParseInLocation(layout, token, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, token)
}

// ParsePolicy validates a configuration string and returns the matching
// DatePolicy. An empty string resolves to DatePolicyUTC.
func ParsePolicy(s string) (DatePolicy, error) {
	switch DatePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case DatePolicyUTC, "":
		return DatePolicyUTC, nil
	case DatePolicyLocal:
		return DatePolicyLocal, nil
	default:
		return "", fmt.Errorf("date_policy must be %q or %q, got %q", DatePolicyUTC, DatePolicyLocal, s)
	}
}
