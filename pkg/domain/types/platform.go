package types

import (
	"regexp"

	"github.com/m-mizutani/goerr/v2"
)

// Platform identifies the conferencing platform a meeting runs on
type Platform string

const (
	PlatformGoogleMeet Platform = "google_meet"
	PlatformZoom       Platform = "zoom"
)

var platformPattern = regexp.MustCompile(`^[a-z0-9]+(_[a-z0-9]+)*$`)

// Validate checks if the Platform has a well-formed identifier. Whether the
// platform is actually supported is decided by the platform registry.
func (p Platform) Validate() error {
	if p == "" {
		return goerr.New("platform cannot be empty")
	}
	if !platformPattern.MatchString(string(p)) {
		return goerr.New("platform must be lowercase alphanumeric with underscores", goerr.V("platform", p))
	}
	return nil
}

// String returns the string representation of Platform
func (p Platform) String() string {
	return string(p)
}
