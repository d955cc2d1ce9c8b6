package join

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"rollcall/internal/errs"
)

// Client is the student-side deep-link consumer: it parses a scanned
// payload and performs the one-shot check-in call. One Client instance
// corresponds to one flow mount; its guard latches after the first attempt
// so duplicate triggers never produce a second request.
type Client struct {
	BaseURL   string
	AuthToken string
	Provider  SignalProvider
	HTTP      *http.Client

	guard Guard
}

// NewClient creates a client for one check-in flow.
func NewClient(baseURL, authToken string, provider SignalProvider) *Client {
	if provider == nil {
		provider = NoSignals{}
	}
	return &Client{
		BaseURL:   baseURL,
		AuthToken: authToken,
		Provider:  provider,
		HTTP:      &http.Client{Timeout: 10 * time.Second},
	}
}

// GuardState exposes the flow state for UI rendering.
func (c *Client) GuardState() GuardState { return c.guard.State() }

// Redeem parses the scanned payload and submits the check-in. Once the
// request is started it runs to completion even if ctx is cancelled, so
// presence state is never left ambiguous. The error is one of the protocol
// taxonomy; no retry happens here.
func (c *Client) Redeem(ctx context.Context, raw string) (Result, error) {
	p, err := ParsePayload(raw)
	if err != nil {
		return Result{}, err
	}
	if !c.guard.Begin() {
		return Result{}, errs.NewConflictError("check-in already " + c.guard.State().String())
	}

	res, err := c.submit(context.WithoutCancel(ctx), p)
	if err != nil {
		c.guard.Fail()
		return Result{}, err
	}
	c.guard.Succeed()
	return res, nil
}

func (c *Client) submit(ctx context.Context, p Payload) (Result, error) {
	sig := c.Provider.Collect(ctx)
	body, _ := json.Marshal(struct {
		Payload
		Lat        *float64 `json:"lat,omitempty"`
		Lon        *float64 `json:"lon,omitempty"`
		DeviceHash string   `json:"device_hash,omitempty"`
	}{Payload: p, Lat: sig.Lat, Lon: sig.Lon, DeviceHash: sig.DeviceHash})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/attendance/join", bytes.NewReader(body))
	if err != nil {
		return Result{}, errs.NewTransientError("request build failed", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.AuthToken)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Result{}, errs.NewTransientError("check-in request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return Result{}, decodeError(resp)
	}

	var out Result
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, errs.NewTransientError("failed to decode response", err)
	}
	return out, nil
}

// decodeError maps HTTP statuses back onto the protocol error taxonomy so
// the UI can show the right localized reason.
func decodeError(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(resp.Body)
	msg := string(bodyBytes)
	var parsed struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(bodyBytes, &parsed) == nil && parsed.Error != "" {
		msg = parsed.Error
	}

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return errs.NewValidationError(msg)
	case http.StatusForbidden, http.StatusUnauthorized:
		return errs.NewAuthorizationError(msg)
	case http.StatusNotFound:
		return errs.NewNotFoundError(msg)
	case http.StatusConflict:
		return errs.NewConflictError(msg)
	default:
		return errs.NewTransientError(fmt.Sprintf("check-in failed: %s", resp.Status), nil)
	}
}
