package service

import (
	"testing"

	"github.com/minli-dev/minli/internal/app/model"
	"golang.org/x/crypto/bcrypt"
)

func protectedLink(t *testing.T, password string) *model.Link {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &model.Link{
		ShortCode:           "abc1",
		OriginalURL:         "https://example.com",
		IsActive:            true,
		IsPasswordProtected: true,
		PasswordHash:        string(hash),
	}
}

func TestPolicyEngine_Decide(t *testing.T) {
	engine := NewPolicyEngine(nil)
	plain := validLink("abc1")

	tests := []struct {
		name     string
		lookup   Lookup
		isBot    bool
		password string
		want     Outcome
	}{
		{
			name:   "unknown code passes through",
			lookup: Lookup{State: LookupNotFound},
			want:   Outcome{Kind: OutcomePassThrough},
		},
		{
			name:   "unknown code passes through for bots too",
			lookup: Lookup{State: LookupNotFound},
			isBot:  true,
			want:   Outcome{Kind: OutcomePassThrough},
		},
		{
			name:   "disabled link",
			lookup: Lookup{State: LookupDisabled},
			want:   Outcome{Kind: OutcomeError, Error: ErrorDisabled},
		},
		{
			name:   "expired link",
			lookup: Lookup{State: LookupExpired},
			want:   Outcome{Kind: OutcomeError, Error: ErrorExpired},
		},
		{
			name:   "expired link stays blocked for bots",
			lookup: Lookup{State: LookupExpired},
			isBot:  true,
			want:   Outcome{Kind: OutcomeError, Error: ErrorExpired},
		},
		{
			name:   "used one-time link",
			lookup: Lookup{State: LookupUsedUp},
			want:   Outcome{Kind: OutcomeError, Error: ErrorUsedUp},
		},
		{
			name:   "valid unprotected human",
			lookup: Lookup{State: LookupValid, Link: plain},
			want:   Outcome{Kind: OutcomeRedirect, Destination: "https://example.com"},
		},
		{
			name:   "valid bot",
			lookup: Lookup{State: LookupValid, Link: plain},
			isBot:  true,
			want:   Outcome{Kind: OutcomeRedirect, Destination: "https://example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Decide(tt.lookup, tt.isBot, tt.password)
			if got != tt.want {
				t.Fatalf("Decide() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPolicyEngine_Decide_PasswordGate(t *testing.T) {
	engine := NewPolicyEngine(nil)
	link := protectedLink(t, "secret")
	lookup := Lookup{State: LookupValid, Link: link}

	t.Run("no password prompts", func(t *testing.T) {
		got := engine.Decide(lookup, false, "")
		if got.Kind != OutcomePasswordRequired || got.Retry {
			t.Fatalf("expected fresh password prompt, got %+v", got)
		}
	})

	t.Run("wrong password re-prompts with retry", func(t *testing.T) {
		got := engine.Decide(lookup, false, "wrong")
		if got.Kind != OutcomePasswordRequired || !got.Retry {
			t.Fatalf("expected retry prompt, got %+v", got)
		}
	})

	t.Run("correct password redirects", func(t *testing.T) {
		got := engine.Decide(lookup, false, "secret")
		if got.Kind != OutcomeRedirect || got.Destination != link.OriginalURL {
			t.Fatalf("expected redirect, got %+v", got)
		}
	})

	t.Run("bots bypass the gate", func(t *testing.T) {
		got := engine.Decide(lookup, true, "")
		if got.Kind != OutcomeRedirect || got.Destination != link.OriginalURL {
			t.Fatalf("expected bot redirect, got %+v", got)
		}
	})
}
