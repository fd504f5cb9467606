package flow

import (
	"encoding/json"
	"log/slog"

	"github.com/go-oauthkit/authflow/pkg/redirect"
)

// HandleAuthCallback detects whether the current execution context is
// itself the dialog surface opened by another controller instance, by
// checking the URL for a token, code, or error marker. If so, the parsed
// payload is forwarded to the parent context through the sink and true is
// returned, signaling the caller to skip its normal initialization.
func HandleAuthCallback(rawURL string, sink MessageSink) bool {
	result, err := redirect.Parse(rawURL)
	if err != nil || result.Kind == redirect.KindNone {
		return false
	}

	payload, err := json.Marshal(result.Params)
	if err != nil {
		slog.Error("failed to encode auth callback payload", "error", err)
		return true
	}
	if sink != nil {
		if err := sink.PostMessage(string(payload)); err != nil {
			slog.Error("failed to forward auth callback payload", "error", err)
		}
	}
	return true
}
