package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/konstin/vws-python-mock/pkg/database"
)

const (
	clientRequestTimeout = 30 * time.Second
	clientMaxTries       = 4
)

// Client reads the database set from a target-manager service over HTTP.
// It implements Source for multi-process setups where the query service
// does not share memory with the target manager.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for the target manager at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: clientRequestTimeout},
	}
}

// Databases implements Source. Transient fetch failures are retried with
// exponential backoff.
func (c *Client) Databases(ctx context.Context) ([]*database.Database, error) {
	operation := func() ([]database.Record, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/databases", nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("target manager returned status %d", resp.StatusCode)
		}
		var records []database.Record
		if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
			return nil, err
		}
		return records, nil
	}

	records, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(clientMaxTries),
	)
	if err != nil {
		return nil, fmt.Errorf("fetching databases from target manager: %w", err)
	}

	databases := make([]*database.Database, 0, len(records))
	for _, r := range records {
		d, err := database.FromRecord(r)
		if err != nil {
			return nil, fmt.Errorf("decoding database %q: %w", r.DatabaseName, err)
		}
		databases = append(databases, d)
	}
	return databases, nil
}
