package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"sensormon/internal/etl"
)

// HTTPDoer defines http.Client interface subset.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// NotifyClient tells the backend API that a batch finished so it can fan the
// news out to its own subscribers. Strictly best-effort.
type NotifyClient struct {
	baseURL string
	client  HTTPDoer
}

// NewNotifyClient builds client with base URL.
func NewNotifyClient(baseURL string, client HTTPDoer) *NotifyClient {
	return &NotifyClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// BatchCompleted posts the summary to the backend.
func (c *NotifyClient) BatchCompleted(ctx context.Context, summary *etl.Summary) error {
	body, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/internal/etl/completed", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("notify: backend returned %d", resp.StatusCode)
	}
	return nil
}

// NewDefaultHTTPClient returns *http.Client with timeout.
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
