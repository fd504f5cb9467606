package flow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-oauthkit/authflow/pkg/core"
	"github.com/go-oauthkit/authflow/pkg/endpoint"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ExchangeCodeForToken turns an authorization code payload into a token by
// calling the endpoint's token URL. If the endpoint has no token URL the
// exchange is a no-op and the payload is returned unchanged as a token;
// this covers providers whose code step already returns usable token data.
func (c *Controller) ExchangeCodeForToken(ctx context.Context, provider string, data map[string]any, headers map[string]string) (*core.Token, error) {
	ep, err := c.registry.Get(provider)
	if err != nil {
		return nil, newError(KindEndpointNotFound, "no endpoint registered for provider "+provider, err)
	}
	return c.exchange(ctx, ep, data, headers)
}

func (c *Controller) exchange(ctx context.Context, ep endpoint.Endpoint, data map[string]any, headers map[string]string) (*core.Token, error) {
	ctx, span := c.tracer.Start(ctx, "flow.ExchangeCodeForToken", trace.WithAttributes(
		attribute.String("oauth.provider", ep.Provider),
	))
	defer span.End()

	if ep.TokenURL == "" {
		// No token endpoint: the code payload is the token data.
		return core.TokenFromParams(flattenPayload(data), c.now()), nil
	}

	body, err := json.Marshal(data)
	if err != nil {
		return nil, newError(KindExchangeFailed, "failed to marshal exchange request body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.TokenURL, bytes.NewReader(body))
	if err != nil {
		return nil, newError(KindExchangeFailed, "failed to build exchange request", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	// Content negotiation is part of the exchange contract and is not
	// overridable by caller-supplied headers.
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, newError(KindExchangeFailed, "token exchange request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(KindExchangeFailed, "failed to read exchange response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, newError(KindExchangeFailed,
			fmt.Sprintf("token exchange failed with status %d: %s", resp.StatusCode, string(respBody)), nil)
	}

	var payload map[string]any
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return nil, newError(KindExchangeFailed, "failed to unmarshal exchange response", err)
	}

	token := core.TokenFromParams(flattenPayload(payload), c.now())
	if token.AccessToken == "" {
		return nil, newError(KindExchangeFailed,
			"exchange response contains no access_token: "+string(respBody), nil)
	}

	if err := c.store.Add(ctx, ep.Provider, token); err != nil {
		return nil, fmt.Errorf("failed to persist token for provider %s: %w", ep.Provider, err)
	}
	c.logger.Info("token obtained", "provider", ep.Provider, "grant", "code")
	return token, nil
}

// decodeMessage parses a dialog message, a single JSON object shaped like
// the redirect payload, into a flat parameter set.
func decodeMessage(message string) (map[string]string, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(message), &payload); err != nil {
		return nil, err
	}
	return flattenPayload(payload), nil
}

// flattenPayload renders a decoded JSON object as flat string parameters,
// matching the shape the redirect parser produces from URLs.
func flattenPayload(payload map[string]any) map[string]string {
	params := make(map[string]string, len(payload))
	for key, value := range payload {
		switch v := value.(type) {
		case string:
			params[key] = v
		case float64:
			params[key] = strconv.FormatInt(int64(v), 10)
		case bool:
			params[key] = strconv.FormatBool(v)
		case nil:
			// skip
		default:
			encoded, err := json.Marshal(v)
			if err == nil {
				params[key] = string(encoded)
			}
		}
	}
	return params
}
