package classify

import (
	"strings"

	"github.com/MeKo-Tech/notepeel/internal/profile"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Keys this short are accepted even without a recognised prefix.
const maxUnprefixedKeyWords = 3

// KeyValue splits line on its first colon and returns the trimmed key and
// value when the pair passes the profile's word limits and the key is either
// short or starts with a known prefix.
func KeyValue(line string, p *profile.Profile) (key, value string, ok bool) {
	k, v, found := strings.Cut(line, ":")
	if !found {
		return "", "", false
	}
	k, v = strings.TrimSpace(k), strings.TrimSpace(v)
	if k == "" || v == "" {
		return "", "", false
	}

	keyWords := len(strings.Fields(k))
	if keyWords > p.MaxKeyWords() {
		return "", "", false
	}
	if len(strings.Fields(v)) < p.MinValueWords() {
		return "", "", false
	}

	if keyWords <= maxUnprefixedKeyWords || hasKeyPrefix(k, p) {
		return k, v, true
	}
	return "", "", false
}

func hasKeyPrefix(key string, p *profile.Profile) bool {
	// Casers carry state and are not shared across goroutines.
	lower := cases.Lower(language.Und).String(key)
	for prefix := range p.Prefixes() {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
