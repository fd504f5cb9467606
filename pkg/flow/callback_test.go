package flow

import (
	"encoding/json"
	"testing"
)

func TestHandleAuthCallback_Token(t *testing.T) {
	var forwarded string
	sink := MessageSinkFunc(func(message string) error {
		forwarded = message
		return nil
	})

	handled := HandleAuthCallback("https://example.com/callback#access_token=tok123&expires_in=3600", sink)
	if !handled {
		t.Fatal("HandleAuthCallback() = false, want true for a token-carrying URL")
	}

	var payload map[string]string
	if err := json.Unmarshal([]byte(forwarded), &payload); err != nil {
		t.Fatalf("forwarded message is not JSON: %v", err)
	}
	if payload["access_token"] != "tok123" {
		t.Errorf("forwarded payload = %v, want access_token=tok123", payload)
	}
}

func TestHandleAuthCallback_Error(t *testing.T) {
	var forwarded string
	sink := MessageSinkFunc(func(message string) error {
		forwarded = message
		return nil
	})

	handled := HandleAuthCallback("https://example.com/callback?error=access_denied", sink)
	if !handled {
		t.Fatal("HandleAuthCallback() = false, want true for an error-carrying URL")
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte(forwarded), &payload); err != nil {
		t.Fatalf("forwarded message is not JSON: %v", err)
	}
	if payload["error"] != "access_denied" {
		t.Errorf("forwarded payload = %v, want error=access_denied", payload)
	}
}

func TestHandleAuthCallback_NotACallback(t *testing.T) {
	called := false
	sink := MessageSinkFunc(func(message string) error {
		called = true
		return nil
	})

	if HandleAuthCallback("https://example.com/app?page=home", sink) {
		t.Error("HandleAuthCallback() = true for a URL without auth markers")
	}
	if called {
		t.Error("sink should not be invoked for a non-callback URL")
	}
}

func TestHandleAuthCallback_NilSink(t *testing.T) {
	if !HandleAuthCallback("https://example.com/callback?code=abc", nil) {
		t.Error("HandleAuthCallback() should detect the callback even without a sink")
	}
}
