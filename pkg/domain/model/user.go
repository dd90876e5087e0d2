package model

import (
	"net/url"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/recapd/relay/pkg/domain/types"
)

// DefaultMaxConcurrentBots is applied when a user is created without an
// explicit concurrency limit.
const DefaultMaxConcurrentBots = 1

// User represents an end user of the retailer API
type User struct {
	ID                types.UserID
	Email             string
	Name              string
	ImageURL          string
	MaxConcurrentBots int
	// WebhookURL receives meeting notifications for this user. Empty when unset.
	WebhookURL string
	CreatedAt  time.Time
}

// Validate checks if the User is valid for persistence
func (u *User) Validate() error {
	if u.Email == "" {
		return goerr.New("user email is required")
	}
	if u.MaxConcurrentBots < 0 {
		return goerr.New("max concurrent bots cannot be negative", goerr.V("max_concurrent_bots", u.MaxConcurrentBots))
	}
	return nil
}

// UserUpdate is a partial update of mutable user fields. Nil fields are left
// unchanged.
type UserUpdate struct {
	Name              *string
	ImageURL          *string
	MaxConcurrentBots *int
	WebhookURL        *string
}

// IsEmpty reports whether the update carries no fields
func (u *UserUpdate) IsEmpty() bool {
	return u.Name == nil && u.ImageURL == nil && u.MaxConcurrentBots == nil && u.WebhookURL == nil
}

// Validate checks if the update values are acceptable
func (u *UserUpdate) Validate() error {
	if u.MaxConcurrentBots != nil && *u.MaxConcurrentBots < 0 {
		return goerr.New("max concurrent bots cannot be negative", goerr.V("max_concurrent_bots", *u.MaxConcurrentBots))
	}
	if u.WebhookURL != nil && *u.WebhookURL != "" {
		parsed, err := url.Parse(*u.WebhookURL)
		if err != nil {
			return goerr.Wrap(err, "invalid webhook URL", goerr.V("url", *u.WebhookURL))
		}
		if !parsed.IsAbs() || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return goerr.New("webhook URL must be absolute http(s)", goerr.V("url", *u.WebhookURL))
		}
	}
	return nil
}

// Apply copies the non-nil fields of the update onto the user
func (u *UserUpdate) Apply(user *User) {
	if u.Name != nil {
		user.Name = *u.Name
	}
	if u.ImageURL != nil {
		user.ImageURL = *u.ImageURL
	}
	if u.MaxConcurrentBots != nil {
		user.MaxConcurrentBots = *u.MaxConcurrentBots
	}
	if u.WebhookURL != nil {
		user.WebhookURL = *u.WebhookURL
	}
}
