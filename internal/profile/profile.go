// Package profile defines detection profiles: immutable bundles of patterns
// and thresholds that drive every line classifier. Genre profiles are built by
// copying the base Settings and appending entries, never by subtyping.
package profile

import (
	"errors"
	"fmt"
	"iter"
	"regexp"
	"slices"
)

// ConfigError reports an invalid profile setting.
type ConfigError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid profile setting %s=%v: %s", e.Field, e.Value, e.Reason)
}

// BulletPattern is a compiled bullet marker together with its source text.
type BulletPattern struct {
	Source string
	re     *regexp.Regexp
}

// MatchAtStart reports whether the pattern matches line at position 0. A
// pattern not compiled by New matches nothing.
func (b BulletPattern) MatchAtStart(line string) bool {
	if b.re == nil {
		return false
	}
	loc := b.re.FindStringIndex(line)
	return loc != nil && loc[0] == 0
}

// Profile is an immutable, validated detection profile. It is safe for
// concurrent use by any number of analyses.
type Profile struct {
	settings Settings
	bullets  []BulletPattern
}

// New validates s and compiles its patterns.
func New(s Settings) (*Profile, error) {
	s = s.clone()
	if err := Validate(s); err != nil {
		return nil, err
	}

	bullets := make([]BulletPattern, 0, len(s.BulletPatterns))
	for _, src := range s.BulletPatterns {
		// Validate already compiled every pattern once.
		bullets = append(bullets, BulletPattern{Source: src, re: regexp.MustCompile("(?i)" + src)})
	}

	return &Profile{settings: s, bullets: bullets}, nil
}

// MustNew is New for package-level profiles whose settings are known good.
func MustNew(s Settings) *Profile {
	p, err := New(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Validate checks s and returns every violation joined into one error.
func Validate(s Settings) error {
	var errs []error
	add := func(field string, value interface{}, reason string) {
		errs = append(errs, &ConfigError{Field: field, Value: value, Reason: reason})
	}

	if s.Name == "" {
		add("name", s.Name, "must not be empty")
	}
	if !inUnitRange(s.TableNumericThreshold) {
		add("table_numeric_threshold", s.TableNumericThreshold, "must be within [0,1]")
	}
	if !inUnitRange(s.MinConfidence) {
		add("min_confidence", s.MinConfidence, "must be within [0,1]")
	}
	for field, v := range map[string]int{
		"min_table_columns":   s.MinTableColumns,
		"max_key_words":       s.MaxKeyWords,
		"min_value_words":     s.MinValueWords,
		"min_paragraph_words": s.MinParagraphWords,
		"max_paragraph_words": s.MaxParagraphWords,
	} {
		if v <= 0 {
			add(field, v, "must be positive")
		}
	}
	if s.MinParagraphWords > 0 && s.MaxParagraphWords > 0 && s.MaxParagraphWords < s.MinParagraphWords {
		add("max_paragraph_words", s.MaxParagraphWords, "must not be below min_paragraph_words")
	}
	if s.MinParagraphChars < 0 {
		add("min_paragraph_chars", s.MinParagraphChars, "must not be negative")
	}
	if s.MaxSectionGap < 0 {
		add("max_section_gap", s.MaxSectionGap, "must not be negative")
	}
	for _, src := range s.BulletPatterns {
		if _, err := regexp.Compile("(?i)" + src); err != nil {
			add("bullet_patterns", src, err.Error())
		}
	}
	for _, d := range s.TableDelimiters {
		if d == "" {
			add("table_delimiters", d, "must not contain empty entries")
		}
	}
	for _, a := range s.Artifacts {
		if a == "" {
			add("artifacts", a, "must not contain empty entries")
		}
	}

	// Map iteration above is unordered; sort for stable messages.
	slices.SortStableFunc(errs, func(a, b error) int {
		var ca, cb *ConfigError
		errors.As(a, &ca)
		errors.As(b, &cb)
		switch {
		case ca.Field < cb.Field:
			return -1
		case ca.Field > cb.Field:
			return 1
		}
		return 0
	})
	return errors.Join(errs...)
}

// Name returns the profile identifier reported in document metadata.
func (p *Profile) Name() string { return p.settings.Name }

// Settings returns a deep copy of the settings the profile was built from.
func (p *Profile) Settings() Settings { return p.settings.clone() }

// BulletPatterns returns the compiled bullet patterns in evaluation order.
func (p *Profile) BulletPatterns() []BulletPattern { return slices.Clone(p.bullets) }

// Bullets iterates the compiled bullet patterns in evaluation order without copying.
func (p *Profile) Bullets() iter.Seq[BulletPattern] { return slices.Values(p.bullets) }

// MinTableColumns returns the minimum word count for a table row.
func (p *Profile) MinTableColumns() int { return p.settings.MinTableColumns }

// TableDelimiters returns the delimiter characters that mark a table row.
func (p *Profile) TableDelimiters() []string { return slices.Clone(p.settings.TableDelimiters) }

// TableNumericThreshold returns the numeric-word ratio a row must exceed.
func (p *Profile) TableNumericThreshold() float64 { return p.settings.TableNumericThreshold }

// Delimiters iterates the table delimiters without copying.
func (p *Profile) Delimiters() iter.Seq[string] { return slices.Values(p.settings.TableDelimiters) }

// MaxKeyWords returns the word ceiling for a key.
func (p *Profile) MaxKeyWords() int { return p.settings.MaxKeyWords }

// MinValueWords returns the word floor for a value.
func (p *Profile) MinValueWords() int { return p.settings.MinValueWords }

// KeyPrefixes returns the recognised lowercase key prefixes.
func (p *Profile) KeyPrefixes() []string { return slices.Clone(p.settings.KeyPrefixes) }

// Prefixes iterates the key prefixes without copying.
func (p *Profile) Prefixes() iter.Seq[string] { return slices.Values(p.settings.KeyPrefixes) }

// ParagraphBounds returns the inclusive word bounds and the character floor.
func (p *Profile) ParagraphBounds() (minWords, maxWords, minChars int) {
	return p.settings.MinParagraphWords, p.settings.MaxParagraphWords, p.settings.MinParagraphChars
}

// Artifacts returns the substrings the normalizer replaces with a space.
func (p *Profile) Artifacts() []string { return slices.Clone(p.settings.Artifacts) }

// StripChars returns the characters trimmed from both ends of each line.
func (p *Profile) StripChars() string { return p.settings.StripChars }

func (p *Profile) SectionGrouping() bool { return p.settings.SectionGrouping }
func (p *Profile) MaxSectionGap() int { return p.settings.MaxSectionGap }
func (p *Profile) UseFontSize() bool { return p.settings.UseFontSize }
func (p *Profile) UseSpatial() bool { return p.settings.UseSpatial }
func (p *Profile) MinConfidence() float64 { return p.settings.MinConfidence }
func (p *Profile) Debug() bool { return p.settings.Debug }

// inUnitRange is false for NaN.
func inUnitRange(x float64) bool {
	return x >= 0 && x <= 1
}
