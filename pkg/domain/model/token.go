package model

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/recapd/relay/pkg/domain/types"
)

// TokenLength is the number of characters in a generated API token secret.
// 40 characters from a 62-symbol alphabet is about 238 bits of entropy.
const TokenLength = 40

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// APIToken is an opaque bearer credential bound to a user
type APIToken struct {
	ID        types.TokenID
	Token     string `masq:"secret"`
	UserID    types.UserID
	CreatedAt time.Time
}

// NewAPIToken creates an unsaved token with a freshly generated secret for
// the given user. The repository assigns ID and CreatedAt on insert.
func NewAPIToken(userID types.UserID) (*APIToken, error) {
	secret, err := generateTokenSecret(TokenLength)
	if err != nil {
		return nil, err
	}
	return &APIToken{
		Token:  secret,
		UserID: userID,
	}, nil
}

// Validate checks if the APIToken is valid for persistence
func (t *APIToken) Validate() error {
	if t.Token == "" {
		return goerr.New("token secret is required")
	}
	if err := t.UserID.Validate(); err != nil {
		return goerr.Wrap(err, "token owner is invalid")
	}
	return nil
}

func generateTokenSecret(length int) (string, error) {
	max := big.NewInt(int64(len(tokenAlphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", goerr.Wrap(err, "failed to read random source")
		}
		buf[i] = tokenAlphabet[n.Int64()]
	}
	return string(buf), nil
}
