package profile

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrUnknownProfile is returned by Lookup for names outside the registry.
var ErrUnknownProfile = errors.New("unknown profile")

var (
	registryOnce sync.Once
	registry     map[string]*Profile
)

// builders is the closed set of named profiles, in listing order.
var builders = []struct {
	name  string
	build func() Settings
}{
	{Default, DefaultSettings},
	{AcademicPaper, AcademicPaperSettings},
	{MeetingNotes, MeetingNotesSettings},
	{LectureNotes, LectureNotesSettings},
}

func loadRegistry() {
	registry = make(map[string]*Profile, len(builders))
	for _, b := range builders {
		registry[b.name] = MustNew(b.build())
	}
}

// Lookup returns the shared profile registered under name. An empty name
// selects the default profile.
func Lookup(name string) (*Profile, error) {
	registryOnce.Do(loadRegistry)
	if name == "" {
		name = Default
	}
	p, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownProfile, name, Names())
	}
	return p, nil
}

// MustLookup is Lookup for names known to be registered.
func MustLookup(name string) *Profile {
	p, err := Lookup(name)
	if err != nil {
		panic(err)
	}
	return p
}

// Names lists the registered profile names in a stable order.
func Names() []string {
	names := make([]string, 0, len(builders))
	for _, b := range builders {
		names = append(names, b.name)
	}
	return names
}

// IsRegistered reports whether name is a registered profile name.
func IsRegistered(name string) bool {
	return name == "" || slices.Contains(Names(), name)
}
