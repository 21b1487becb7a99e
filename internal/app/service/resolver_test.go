package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/minli-dev/minli/internal/app/model"
	"github.com/minli-dev/minli/internal/app/repository"
)

func validLink(code string) *model.Link {
	return &model.Link{
		ShortCode:   code,
		OriginalURL: "https://example.com",
		IsActive:    true,
	}
}

func TestLinkResolver_Resolve(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name  string
		link  *model.Link
		want  LookupState
	}{
		{
			name: "valid link",
			link: validLink("abc1"),
			want: LookupValid,
		},
		{
			name: "disabled link",
			link: &model.Link{ShortCode: "abc1", OriginalURL: "https://example.com", IsActive: false},
			want: LookupDisabled,
		},
		{
			name: "disabled wins over expired",
			link: &model.Link{ShortCode: "abc1", OriginalURL: "https://example.com", IsActive: false, ExpiresAt: &past},
			want: LookupDisabled,
		},
		{
			name: "expired link",
			link: &model.Link{ShortCode: "abc1", OriginalURL: "https://example.com", IsActive: true, ExpiresAt: &past},
			want: LookupExpired,
		},
		{
			name: "future expiry still valid",
			link: &model.Link{ShortCode: "abc1", OriginalURL: "https://example.com", IsActive: true, ExpiresAt: &future},
			want: LookupValid,
		},
		{
			name: "consumed one-time link",
			link: &model.Link{ShortCode: "abc1", OriginalURL: "https://example.com", IsActive: true, IsOneTime: true, HasBeenUsed: true},
			want: LookupUsedUp,
		},
		{
			name: "fresh one-time link",
			link: &model.Link{ShortCode: "abc1", OriginalURL: "https://example.com", IsActive: true, IsOneTime: true},
			want: LookupValid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockLinkRepository{
				getFn: func(ctx context.Context, code string) (*model.Link, error) {
					return tt.link, nil
				},
			}
			resolver := NewLinkResolver(repo, nil, nil, nil)

			lookup, err := resolver.Resolve(context.Background(), "abc1")
			if err != nil {
				t.Fatalf("Resolve returned error: %v", err)
			}
			if lookup.State != tt.want {
				t.Fatalf("expected state %v, got %v", tt.want, lookup.State)
			}
			if tt.want == LookupValid && lookup.Link == nil {
				t.Fatal("expected link to be set for valid lookup")
			}
		})
	}
}

func TestLinkResolver_Resolve_NotFound(t *testing.T) {
	repo := &mockLinkRepository{
		getFn: func(ctx context.Context, code string) (*model.Link, error) {
			return nil, repository.ErrLinkNotFound
		},
	}
	resolver := NewLinkResolver(repo, nil, nil, nil)

	lookup, err := resolver.Resolve(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if lookup.State != LookupNotFound {
		t.Fatalf("expected LookupNotFound, got %v", lookup.State)
	}
}

func TestLinkResolver_Resolve_StorageErrorPropagates(t *testing.T) {
	storageErr := errors.New("connection refused")
	repo := &mockLinkRepository{
		getFn: func(ctx context.Context, code string) (*model.Link, error) {
			return nil, storageErr
		},
	}
	resolver := NewLinkResolver(repo, nil, nil, nil)

	_, err := resolver.Resolve(context.Background(), "abc1")
	if !errors.Is(err, storageErr) {
		t.Fatalf("expected storage error to propagate, got %v", err)
	}
}

func TestLinkResolver_Resolve_CaseSensitive(t *testing.T) {
	repo := &mockLinkRepository{
		getFn: func(ctx context.Context, code string) (*model.Link, error) {
			if code == "Abc1" {
				return nil, repository.ErrLinkNotFound
			}
			return validLink(code), nil
		},
	}
	resolver := NewLinkResolver(repo, nil, nil, nil)

	lookup, err := resolver.Resolve(context.Background(), "Abc1")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if lookup.State != LookupNotFound {
		t.Fatalf("expected exact-case miss, got %v", lookup.State)
	}
}
