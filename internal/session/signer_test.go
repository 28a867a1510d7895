package session_test

import (
	"errors"
	"testing"
	"time"

	"github.com/wuwenbin0122/sqlassist/internal/session"
)

func TestSignerIssueAndVerify(t *testing.T) {
	signer, err := session.NewSigner("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error creating signer: %v", err)
	}

	id, token, err := signer.Issue()
	if err != nil {
		t.Fatalf("issue returned error: %v", err)
	}
	if id == "" || token == "" {
		t.Fatalf("expected id and token, got %q %q", id, token)
	}

	got, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if got != id {
		t.Fatalf("expected session id %s, got %s", id, got)
	}
}

func TestSignerRejectsForeignAndExpiredTokens(t *testing.T) {
	signer, _ := session.NewSigner("test-secret", time.Hour)
	other, _ := session.NewSigner("other-secret", time.Hour)

	_, foreign, _ := other.Issue()
	if _, err := signer.Verify(foreign); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}

	if _, err := signer.Verify("not-a-token"); err == nil {
		t.Fatalf("expected garbage token to be rejected")
	}

	expired, _ := session.NewSigner("test-secret", time.Nanosecond)
	_, token, _ := expired.Issue()
	time.Sleep(1100 * time.Millisecond)
	if _, err := signer.Verify(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestSignerRefreshRenewsAfterHalfLifetime(t *testing.T) {
	signer, _ := session.NewSigner("test-secret", time.Hour)
	now := time.Now()
	signer.SetClock(func() time.Time { return now })

	id, token, err := signer.Issue()
	if err != nil {
		t.Fatalf("issue returned error: %v", err)
	}

	now = now.Add(10 * time.Minute)
	got, renewed, err := signer.Refresh(token)
	if err != nil || got != id || renewed != "" {
		t.Fatalf("expected fresh token to be kept, got %q %q %v", got, renewed, err)
	}

	now = now.Add(30 * time.Minute)
	got, renewed, err = signer.Refresh(token)
	if err != nil || got != id || renewed == "" {
		t.Fatalf("expected token to be renewed, got %q %q %v", got, renewed, err)
	}

	now = now.Add(50 * time.Minute)
	if _, _, err := signer.Refresh(token); err == nil {
		t.Fatalf("expected the old token to have expired")
	}
	if got, err := signer.Verify(renewed); err != nil || got != id {
		t.Fatalf("expected renewed token to carry the same session, got %q %v", got, err)
	}
}

func TestNewSignerRequiresSecret(t *testing.T) {
	if _, err := session.NewSigner("  ", time.Hour); !errors.Is(err, session.ErrSecretRequired) {
		t.Fatalf("expected ErrSecretRequired, got %v", err)
	}
}
