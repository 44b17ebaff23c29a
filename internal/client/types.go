package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// CheckRequest is the body of POST /check
type CheckRequest struct {
	Guess string `json:"guess"`
}

// CheckResponse is the body of a successful POST /check
type CheckResponse struct {
	Result  []string `json:"result"`
	Correct bool     `json:"correct"`
	Answer  string   `json:"answer,omitempty"`
}

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status string `json:"status"`
}

// StatusError reports a non-2xx reply. Message carries the server's
// error text when the body decoded as an ErrorResponse.
type StatusError struct {
	URL     string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("http %s: %d: %s", e.URL, e.Code, e.Message)
	}
	return fmt.Sprintf("http %s: %d", e.URL, e.Code)
}

// Rejected reports whether the server refused the request itself (4xx)
func (e *StatusError) Rejected() bool {
	return e.Code >= 400 && e.Code < 500
}

var httpClient = &http.Client{Timeout: 5 * time.Second}

// PostJSON sends body as JSON and decodes the reply into out (if non-nil)
func PostJSON(ctx context.Context, url string, body any, out any) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return statusError(url, resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GetJSON fetches url and decodes the reply into out
func GetJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return statusError(url, resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Check submits one guess to the server at base
func Check(ctx context.Context, base, guess string) (CheckResponse, error) {
	var out CheckResponse
	err := PostJSON(ctx, strings.TrimRight(base, "/")+"/check", CheckRequest{Guess: guess}, &out)
	return out, err
}

// Health probes the server at base
func Health(ctx context.Context, base string) error {
	var out HealthResponse
	if err := GetJSON(ctx, strings.TrimRight(base, "/")+"/health", &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return fmt.Errorf("health %s: status %q", base, out.Status)
	}
	return nil
}

// AsStatus unwraps err into a *StatusError if it is one
func AsStatus(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

func statusError(url string, resp *http.Response) error {
	se := &StatusError{URL: url, Code: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(raw) > 0 {
		var body ErrorResponse
		if json.Unmarshal(raw, &body) == nil {
			se.Message = body.Error
		}
	}
	return se
}
