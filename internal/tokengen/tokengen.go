// Package tokengen generates trail owner tokens.
// Generators should be safe for concurrent use.
package tokengen

import (
	"crypto/rand"
	"errors"
)

const (
	// DefaultLength matches the fixed-width token column in storage.
	// Changing it requires a schema migration.
	DefaultLength = 32

	tokenChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// Generator generates owner tokens.
// Implementations should be safe for concurrent use.
type Generator interface {
	Generate() (string, error)
}

type alphanumGen struct {
	length int
}

// Option configures a Generator.
type Option func(*alphanumGen)

// WithLength overrides the token length. Non-positive values are ignored.
func WithLength(n int) Option {
	return func(g *alphanumGen) {
		if n > 0 {
			g.length = n
		}
	}
}

// New returns a Generator producing random alphanumeric tokens
// from a high-entropy source.
func New(opts ...Option) Generator {
	g := &alphanumGen{length: DefaultLength}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *alphanumGen) Generate() (string, error) {
	if g.length <= 0 {
		return "", errors.New("token length must be positive")
	}

	b := make([]byte, g.length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	for i := range b {
		b[i] = tokenChars[int(b[i])%len(tokenChars)]
	}

	return string(b), nil
}
