package model

import (
	"fmt"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/recapd/relay/pkg/domain/types"
)

// PlatformEntry describes one supported conferencing platform
type PlatformEntry struct {
	ID   types.Platform
	Name string
	// URLTemplate builds a joinable meeting URL from the native meeting ID
	// with a single %s verb. Empty when the platform has no stable URL shape.
	URLTemplate string
}

// MeetingURL constructs a joinable URL for the given native meeting ID, or
// an empty string when the platform defines no URL shape.
func (e *PlatformEntry) MeetingURL(nativeID string) string {
	if e.URLTemplate == "" {
		return ""
	}
	return fmt.Sprintf(e.URLTemplate, nativeID)
}

// PlatformRegistry holds the set of platforms this deployment accepts.
// It is built once at startup and read-only afterwards.
type PlatformRegistry struct {
	entries map[types.Platform]*PlatformEntry
}

// NewPlatformRegistry creates a registry seeded with the built-in platforms
func NewPlatformRegistry() *PlatformRegistry {
	r := &PlatformRegistry{entries: make(map[types.Platform]*PlatformEntry)}
	r.Register(&PlatformEntry{
		ID:          types.PlatformGoogleMeet,
		Name:        "Google Meet",
		URLTemplate: "https://meet.google.com/%s",
	})
	r.Register(&PlatformEntry{
		ID:   types.PlatformZoom,
		Name: "Zoom",
	})
	return r
}

// Register adds or replaces a platform entry
func (r *PlatformRegistry) Register(entry *PlatformEntry) {
	r.entries[entry.ID] = entry
}

// Get returns the entry for the platform, or an error if unsupported
func (r *PlatformRegistry) Get(p types.Platform) (*PlatformEntry, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	entry, ok := r.entries[p]
	if !ok {
		return nil, goerr.New("unsupported platform", goerr.V("platform", p))
	}
	return entry, nil
}

// Platforms returns all registered platforms sorted by ID
func (r *PlatformRegistry) Platforms() []*PlatformEntry {
	out := make([]*PlatformEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
