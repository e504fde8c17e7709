// Package apicall provides the api_call executor: HTTP requests against
// external services.
package apicall

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goalflow/goalflow/pkg/models"
)

const defaultTimeout = 30 * time.Second

// Executor performs a single HTTP request described by its action config.
type Executor struct {
	Method    string
	URL       string
	Headers   map[string]string
	Params    map[string]string
	Body      string
	Timeout   time.Duration
	MemoryKey string

	client *http.Client
}

// New builds an executor from an action config.
func New(config map[string]any) (*Executor, error) {
	method, _ := config["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	rawURL, _ := config["url"].(string)
	if rawURL == "" {
		return nil, fmt.Errorf("api_call requires a url")
	}

	var body string

	switch raw := config["body"].(type) {
	case string:
		body = raw
	case nil:
	default:
		encoded, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid request body: %w", err)
		}

		body = string(encoded)
	}

	memoryKey, _ := config["memory_key"].(string)

	timeout := defaultTimeout
	if seconds, ok := config["timeout"].(float64); ok && seconds > 0 {
		timeout = time.Duration(seconds * float64(time.Second))
	}

	return &Executor{
		Method:    strings.ToUpper(method),
		URL:       rawURL,
		Headers:   stringMap(config["headers"]),
		Params:    stringMap(config["params"]),
		Body:      body,
		Timeout:   timeout,
		MemoryKey: memoryKey,
		client:    &http.Client{},
	}, nil
}

func stringMap(raw any) map[string]string {
	out := make(map[string]string)

	if m, ok := raw.(map[string]any); ok {
		for k, v := range m {
			if s, ok := v.(string); ok {
				out[k] = s
			}
		}
	}

	return out
}

// Execute performs the request. Non-2xx responses are failures so they flow
// through the retry policy.
func (e *Executor) Execute(ctx context.Context, _ map[string]any, _ models.MemorySnapshot) (*models.ExecutionResult, error) {
	reqCtx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	target, err := e.buildURL()
	if err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if e.Body != "" {
		bodyReader = strings.NewReader(e.Body)
	}

	req, err := http.NewRequestWithContext(reqCtx, e.Method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}

	for key, value := range e.Headers {
		req.Header.Set(key, value)
	}

	if e.Body != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d from %s %s", resp.StatusCode, e.Method, target)
	}

	var body any
	if err := json.Unmarshal(bodyBytes, &body); err != nil {
		body = string(bodyBytes)
	}

	output := map[string]any{
		"status_code": resp.StatusCode,
		"headers":     flattenHeaders(resp.Header),
		"body":        body,
	}

	result := &models.ExecutionResult{Output: output}
	if e.MemoryKey != "" {
		result.MemoryWrites = []models.MemoryWrite{{Key: e.MemoryKey, Value: output}}
	}

	return result, nil
}

func (e *Executor) buildURL() (string, error) {
	if len(e.Params) == 0 {
		return e.URL, nil
	}

	parsed, err := url.Parse(e.URL)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", e.URL, err)
	}

	query := parsed.Query()
	for k, v := range e.Params {
		query.Set(k, v)
	}

	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}

	return out
}
