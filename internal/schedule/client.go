package schedule

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client calls the scheduling/aggregation service over JSON HTTP. With Stub
// enabled it serves canned data so the core runs without the collaborator.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Stub    bool
}

// New creates a client. Lookup calls sit on the check-in path, so the
// timeout is short.
func New(baseURL string, stub bool) *Client {
	return &Client{
		BaseURL: baseURL,
		Stub:    stub,
		HTTP: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// GetLecture fetches lecture metadata; nil means the lecture is unknown.
func (c *Client) GetLecture(ctx context.Context, lectureID string) (*Lecture, error) {
	if c.Stub {
		return &Lecture{ID: lectureID, Title: "Stub Lecture", Instructors: []string{"instructor-1"}}, nil
	}
	if lectureID == "" {
		return nil, fmt.Errorf("lecture id required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/lectures/"+lectureID, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("schedule service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("schedule service error %s: %s", resp.Status, string(bodyBytes))
	}

	var out Lecture
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

// ListEnrolled fetches the enrolled-student roster for a lecture.
func (c *Client) ListEnrolled(ctx context.Context, lectureID string) ([]string, error) {
	if c.Stub {
		return []string{"student-1", "student-2"}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/lectures/"+lectureID+"/students", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("schedule service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("schedule service error %s: %s", resp.Status, string(bodyBytes))
	}

	var out struct {
		Students []string `json:"students"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return out.Students, nil
}

// Recalculate asks the aggregation side to re-derive grade totals for a
// lecture. Safe to repeat.
func (c *Client) Recalculate(ctx context.Context, lectureID string) error {
	if c.Stub {
		return nil
	}

	body, _ := json.Marshal(map[string]string{"lecture_id": lectureID})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/marks/recalculate", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("schedule service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("schedule service error %s: %s", resp.Status, string(bodyBytes))
	}
	return nil
}

// Health checks if the scheduling service is reachable.
func (c *Client) Health(ctx context.Context) error {
	if c.Stub {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("schedule service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("schedule service unhealthy: %s", resp.Status)
	}
	return nil
}
