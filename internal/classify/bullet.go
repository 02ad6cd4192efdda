// Package classify holds the per-line detectors. Each is a pure function of a
// line and a profile; none of them fail.
package classify

import "github.com/MeKo-Tech/notepeel/internal/profile"

// MatchBullet returns the first profile pattern, in profile order, that matches
// line at position 0.
func MatchBullet(line string, p *profile.Profile) (pattern string, ok bool) {
	for b := range p.Bullets() {
		if b.MatchAtStart(line) {
			return b.Source, true
		}
	}
	return "", false
}

// IsBullet reports whether any bullet pattern matches at the start of line.
func IsBullet(line string, p *profile.Profile) bool {
	_, ok := MatchBullet(line, p)
	return ok
}
