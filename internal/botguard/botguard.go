// Package botguard keeps automated submissions out of the public write
// endpoints. It issues one-time arithmetic challenges and evaluates
// honeypot form fields. Rate limiting lives in internal/ratelimit.
package botguard

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rvahub/localspot/internal/idgen"
)

// DefaultTTL is how long an issued challenge stays answerable
const DefaultTTL = 5 * time.Minute

// Challenge is a pending arithmetic puzzle keyed by its token.
// The answer never leaves the server.
type Challenge struct {
	Token     string
	Operand1  int
	Operand2  int
	Operator  string
	Answer    int
	ExpiresAt time.Time
}

// Text renders the puzzle for the user, e.g. "7 + 13"
func (c Challenge) Text() string {
	return fmt.Sprintf("%d %s %d", c.Operand1, c.Operator, c.Operand2)
}

// Store holds pending challenges. Take must atomically remove and return
// the challenge so a token can never be verified twice.
type Store interface {
	Put(ctx context.Context, c Challenge) error
	Take(ctx context.Context, token string) (Challenge, bool, error)
}

// Guard issues and verifies challenges against an injected store
type Guard struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewGuard creates a guard. A zero ttl means DefaultTTL.
func NewGuard(store Store, ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Guard{store: store, ttl: ttl, now: time.Now}
}

var operators = []string{"+", "-", "*"}

// Issue creates a fresh challenge and returns its text and token.
// Operands are in [1,20]; subtraction answers are clamped at zero.
func (g *Guard) Issue(ctx context.Context) (challengeText, token string, err error) {
	c := Challenge{
		Token:    idgen.Hex(32),
		Operand1: rand.IntN(20) + 1,
		Operand2: rand.IntN(20) + 1,
		Operator: operators[rand.IntN(len(operators))],
	}
	switch c.Operator {
	case "+":
		c.Answer = c.Operand1 + c.Operand2
	case "-":
		c.Answer = c.Operand1 - c.Operand2
		if c.Answer < 0 {
			c.Answer = 0
		}
	case "*":
		c.Answer = c.Operand1 * c.Operand2
	}
	c.ExpiresAt = g.now().Add(g.ttl)

	if err := g.store.Put(ctx, c); err != nil {
		return "", "", err
	}
	return c.Text(), c.Token, nil
}

// Verify consumes the token and checks the answer. The token is removed
// whether or not the answer is right, so every token is single-use.
// Unknown tokens, expired tokens, and store errors all verify false.
func (g *Guard) Verify(ctx context.Context, token string, answer int) bool {
	if token == "" {
		return false
	}
	c, ok, err := g.store.Take(ctx, token)
	if err != nil || !ok {
		return false
	}
	if g.now().After(c.ExpiresAt) {
		return false
	}
	return c.Answer == answer
}

// CheckHoneypot reports whether a submission looks human. Honeypot fields
// are invisible in the UI, so any non-blank value means a bot filled it.
func CheckHoneypot(value string) bool {
	return strings.TrimSpace(value) == ""
}
