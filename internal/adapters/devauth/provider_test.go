package devauth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/target/rentdesk/internal/ports"
)

func TestProvider_BeginAndExchange(t *testing.T) {
	prov, err := NewProvider(Config{UserID: "dev-user", Email: "dev@example.com", EmailConfirmed: true})
	if err != nil {
		t.Fatalf("NewProvider error: %v", err)
	}
	url, state, nonce, err := prov.Begin(context.Background(), ports.BeginInput{RedirectURL: "/"})
	if err != nil {
		t.Fatalf("Begin error: %v", err)
	}
	if !strings.HasPrefix(url, "/auth/callback?code=dev&state=") {
		t.Fatalf("unexpected authURL: %s", url)
	}
	if state == "" || nonce == "" {
		t.Fatal("state and nonce should be generated")
	}
	id, err := prov.Exchange(context.Background(), ports.ExchangeInput{Code: "dev", State: state, Nonce: nonce})
	if err != nil {
		t.Fatalf("Exchange error: %v", err)
	}
	if id.UserID != "dev-user" || id.Email != "dev@example.com" || !id.EmailConfirmed {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if time.Until(id.ExpiresAt) < 7*time.Hour {
		t.Fatalf("expected default 8h expiry, got %v", id.ExpiresAt)
	}
}

func TestProvider_CustomCallbackAndDuration(t *testing.T) {
	prov, err := NewProvider(Config{UserID: "u", Email: "e@example.com", CallbackPath: "/cb", SessionDuration: time.Minute})
	if err != nil {
		t.Fatalf("NewProvider error: %v", err)
	}
	url, _, _, _ := prov.Begin(context.Background(), ports.BeginInput{})
	if !strings.HasPrefix(url, "/cb?") {
		t.Fatalf("unexpected authURL: %s", url)
	}
	id, _ := prov.Exchange(context.Background(), ports.ExchangeInput{})
	if id.EmailConfirmed {
		t.Fatal("EmailConfirmed should follow config")
	}
	if time.Until(id.ExpiresAt) > 2*time.Minute {
		t.Fatalf("expected ~1m expiry, got %v", id.ExpiresAt)
	}
}

func TestNewProvider_Validation(t *testing.T) {
	if _, err := NewProvider(Config{Email: "e@example.com"}); err == nil {
		t.Fatal("expected error for missing UserID")
	}
	if _, err := NewProvider(Config{UserID: "u"}); err == nil {
		t.Fatal("expected error for missing Email")
	}
}
