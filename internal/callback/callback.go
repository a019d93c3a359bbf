// Package callback implements the completion callback spec.md §6
// describes: a signed POST to ${CALLBACK_URL}/internal/complete once a
// job reaches a terminal state.
package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/clipguard/videofp/internal/telemetry"
)

// Payload is the completion callback body spec.md §6 fixes exactly.
type Payload struct {
	VideoID     string           `json:"video_id"`
	Hashes      []string         `json:"hashes"`
	AudioHashes []AudioHashEntry `json:"audio_hashes"`
}

// AudioHashEntry is one entry of Payload.AudioHashes.
type AudioHashEntry struct {
	Hash       uint64 `json:"hash"`
	TimeOffset uint32 `json:"time_offset"`
}

// Result is the caller-facing classification of a callback POST's
// response code, per spec.md §6.
type Result int

const (
	ResultAdmitted Result = iota
	ResultDuplicate
	ResultRetryableError
)

// Client POSTs signed completion callbacks, grounded on the teacher's
// own `auth.Service.generateAuthResponse`'s jwt.NewWithClaims /
// SignedString pattern, generalized from a user session token to a
// short-lived service-to-service assertion.
type Client struct {
	baseURL    string
	signingKey []byte
	httpClient *http.Client
}

// New builds a Client. baseURL is CALLBACK_URL (spec.md §6); signingKey
// is CALLBACK_SIGNING_KEY, HMAC-signed the same way the teacher signs
// user session tokens.
func New(baseURL string, signingKey []byte) *Client {
	return &Client{
		baseURL:    baseURL,
		signingKey: signingKey,
		httpClient: telemetry.NewInstrumentedHTTPClient(telemetry.HTTPClientConfig{
			ServiceName: "completion-callback",
			Timeout:     15 * time.Second,
		}),
	}
}

// Complete POSTs payload to ${baseURL}/internal/complete with a signed
// JWT bearer token, and classifies the response per spec.md §6: 200 is
// admitted, 409 is duplicate, anything else is a retryable error.
func (c *Client) Complete(ctx context.Context, payload Payload) (Result, error) {
	ctx, span := telemetry.TraceExternalCall(ctx, telemetry.ExternalServiceCallAttrs{
		Service:    "completion-callback",
		Operation:  "complete",
		ResourceID: payload.VideoID,
	})
	defer span.End()

	body, err := json.Marshal(payload)
	if err != nil {
		telemetry.RecordExternalCallError(span, err, 0, false)
		return ResultRetryableError, fmt.Errorf("callback: failed to marshal payload: %w", err)
	}

	token, err := c.signToken(payload.VideoID)
	if err != nil {
		telemetry.RecordExternalCallError(span, err, 0, false)
		return ResultRetryableError, fmt.Errorf("callback: failed to sign token: %w", err)
	}

	url := c.baseURL + "/internal/complete"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		telemetry.RecordExternalCallError(span, err, 0, false)
		return ResultRetryableError, fmt.Errorf("callback: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		telemetry.RecordExternalCallError(span, err, 0, true)
		return ResultRetryableError, fmt.Errorf("callback: request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		telemetry.RecordExternalCallSuccess(span, resp.StatusCode, resp.ContentLength)
		return ResultAdmitted, nil
	case http.StatusConflict:
		telemetry.RecordExternalCallSuccess(span, resp.StatusCode, resp.ContentLength)
		return ResultDuplicate, nil
	default:
		err := fmt.Errorf("callback: unexpected status %d", resp.StatusCode)
		telemetry.RecordExternalCallError(span, err, resp.StatusCode, true)
		return ResultRetryableError, err
	}
}

func (c *Client) signToken(videoID string) (string, error) {
	claims := jwt.MapClaims{
		"video_id": videoID,
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(5 * time.Minute).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.signingKey)
}
