package codes

import (
	"context"
	"crypto/rand"

	pkgerrors "github.com/feastline/dispatch-backend/pkg/errors"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
	maxAttempts  = 20
)

// InUseFunc reports whether a candidate code is already held by a live
// assignment. The caller claims the returned code inside the same
// transaction; a partial unique index backs the claim.
type InUseFunc func(ctx context.Context, code string) (bool, error)

// Generator produces delivery confirmation codes.
type Generator struct{}

// NewGenerator builds a confirmation code generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate proposes crypto-random codes until one is not in use. After 20
// colliding attempts it gives up with CODE_SPACE_EXHAUSTED.
func (g *Generator) Generate(ctx context.Context, inUse InUseFunc) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "draw confirmation code")
		}

		used, err := inUse(ctx, code)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check confirmation code")
		}
		if !used {
			return code, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeGeneratorExhausted, "confirmation code space exhausted")
}

func randomCode() (string, error) {
	out := make([]byte, 0, codeLength)
	buf := make([]byte, codeLength)
	for len(out) < codeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			// Bytes at or above 252, the largest multiple of the alphabet
			// size below 256, are redrawn.
			if b >= byte(len(codeAlphabet))*7 {
				continue
			}
			out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(out) == codeLength {
				break
			}
		}
	}
	return string(out), nil
}
