package codes

import (
	"context"
	"errors"
	"strings"
	"testing"

	pkgerrors "github.com/feastline/dispatch-backend/pkg/errors"
)

func TestGenerateProducesWellFormedCodes(t *testing.T) {
	gen := NewGenerator()
	neverUsed := func(context.Context, string) (bool, error) { return false, nil }

	for i := 0; i < 50; i++ {
		code, err := gen.Generate(context.Background(), neverUsed)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 characters, got %q", code)
		}
		for _, r := range code {
			if !strings.ContainsRune(codeAlphabet, r) {
				t.Fatalf("character %q outside alphabet in %q", r, code)
			}
		}
	}
}

func TestGenerateSkipsCodesInUse(t *testing.T) {
	gen := NewGenerator()

	calls := 0
	inUse := func(_ context.Context, code string) (bool, error) {
		calls++
		return calls < 3, nil
	}

	code, err := gen.Generate(context.Background(), inUse)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if code == "" {
		t.Fatal("expected a code")
	}
	if calls != 3 {
		t.Fatalf("expected 3 uniqueness checks, got %d", calls)
	}
}

func TestGenerateGivesUpAfterTwentyAttempts(t *testing.T) {
	gen := NewGenerator()

	calls := 0
	alwaysUsed := func(context.Context, string) (bool, error) {
		calls++
		return true, nil
	}

	_, err := gen.Generate(context.Background(), alwaysUsed)
	if err == nil {
		t.Fatal("expected exhaustion error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeGeneratorExhausted {
		t.Fatalf("expected CODE_SPACE_EXHAUSTED, got %v", err)
	}
	if calls != 20 {
		t.Fatalf("expected exactly 20 attempts, got %d", calls)
	}
}

func TestGeneratePropagatesCheckErrors(t *testing.T) {
	gen := NewGenerator()

	boom := errors.New("store down")
	calls := 0
	failing := func(context.Context, string) (bool, error) {
		calls++
		return false, boom
	}

	_, err := gen.Generate(context.Background(), failing)
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected DEPENDENCY_ERROR, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected cause preserved, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected no retry after a check error, got %d calls", calls)
	}
}
