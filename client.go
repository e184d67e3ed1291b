package expo

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// Client is the HTTP client for Expo's push service. It implements Transport
// and drives the chunk, dispatch and receipt steps on top of it.
type Client struct {
	cnf        *Config
	dispatcher *Dispatcher
	logger     *slog.Logger
}

func NewClient(opts ...Option) *Client {
	c := &Config{}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	withDefaults(c)
	client := &Client{cnf: c, logger: c.Logger.With("component", "ExpoClient")}
	client.dispatcher = NewDispatcher(client, DispatcherConfig{
		Concurrency:       c.Concurrency,
		RequestsPerSecond: c.RequestsPerSecond,
		Logger:            c.Logger,
	})
	return client
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return *c.cnf
}

// Send chunks the notifications and dispatches them concurrently. Batch and
// ticket failures are reported inside the result; see Tickets.Errors.
func (c *Client) Send(ctx context.Context, notifications []*Notification) *Tickets {
	chunks := ChunkNotifications(notifications, c.cnf.ChunkLimit)
	c.logger.Debug("Sending notifications", "notifications", len(notifications), "chunks", len(chunks))
	return c.dispatcher.Dispatch(ctx, chunks)
}

// SendStrict is Send, returning the first *BatchError as well. Rejected
// tickets such as DeviceNotRegistered do not fail it; read them from
// Tickets.Errors.
func (c *Client) SendStrict(ctx context.Context, notifications []*Notification) (*Tickets, error) {
	tickets := c.Send(ctx, notifications)
	for _, o := range tickets.outcomes {
		if o.Failed() {
			return tickets, o.Err
		}
	}
	return tickets, nil
}

// Receipts looks up one batch of receipt ids.
func (c *Client) Receipts(ctx context.Context, ids []string) (*Receipts, error) {
	if len(ids) == 0 {
		return &Receipts{}, nil
	}
	if len(ids) > c.cnf.ReceiptChunkLimit {
		return nil, fmt.Errorf("too many receipt ids: %d (maximum is %d)", len(ids), c.cnf.ReceiptChunkLimit)
	}
	body, err := c.FetchReceipts(ctx, ids)
	if err != nil {
		return nil, err
	}
	return ResolveReceipts(ids, body)
}

// ReceiptsForIDs looks up any number of ids in ReceiptChunkLimit sized batches,
// one after the other, and merges the results. It stops at the first failed
// batch, returning what was resolved so far.
func (c *Client) ReceiptsForIDs(ctx context.Context, ids []string) (*Receipts, error) {
	merged := &Receipts{}
	for _, batch := range batchIDs(ids, c.cnf.ReceiptChunkLimit) {
		r, err := c.Receipts(ctx, batch)
		if err != nil {
			return merged, err
		}
		merged = merged.Merge(r)
	}
	return merged, nil
}

// ReceiptsForTickets looks up the receipts of every ok ticket.
func (c *Client) ReceiptsForTickets(ctx context.Context, tickets *Tickets) (*Receipts, error) {
	return c.ReceiptsForIDs(ctx, tickets.IDs())
}

// SendBatch posts one push request body.
func (c *Client) SendBatch(ctx context.Context, payload []byte) ([]byte, error) {
	return c.post(ctx, "/push/send", payload, c.cnf.EnableGzip)
}

// FetchReceipts posts one receipt lookup.
func (c *Client) FetchReceipts(ctx context.Context, ids []string) ([]byte, error) {
	jsonBytes, err := json.Marshal(&PushReceiptRequest{IDs: ids})
	if err != nil {
		return nil, err
	}
	return c.post(ctx, "/push/getReceipts", jsonBytes, false)
}

// PushReceiptRequest represents the request body for fetching push receipts
type PushReceiptRequest struct {
	IDs []string `json:"ids"`
}

func (c *Client) post(ctx context.Context, path string, jsonBytes []byte, compress bool) ([]byte, error) {
	url := fmt.Sprintf("%s%s%s", c.cnf.Host, c.cnf.ApiURL, path)

	// Apply gzip compression if enabled
	var requestBody []byte = jsonBytes
	if compress {
		var buf bytes.Buffer
		gzWriter := gzip.NewWriter(&buf)
		if _, err := gzWriter.Write(jsonBytes); err != nil {
			return nil, err
		}
		if err := gzWriter.Close(); err != nil {
			return nil, err
		}
		requestBody = buf.Bytes()
	}

	resp, err := c.withRetry(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(requestBody))
		if err != nil {
			return nil, err
		}

		req.Header.Add("Content-Type", "application/json")
		req.Header.Add("Accept", "application/json")
		req.Header.Add("Accept-Encoding", "gzip")
		req.Header.Add("User-Agent", c.cnf.UserAgent)

		if compress {
			req.Header.Add("Content-Encoding", "gzip")
		}

		if c.cnf.AccessToken != "" {
			req.Header.Add("Authorization", "Bearer "+c.cnf.AccessToken)
		}

		return c.cnf.HttpClient.Do(req)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if err = checkStatus(resp, body); err != nil {
		return nil, err
	}
	return body, nil
}

// readBody inflates gzip bodies the http.Transport left compressed because the
// Accept-Encoding header was set explicitly.
func readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}
	return io.ReadAll(r)
}

// checkStatus accepts 2xx. Error statuses that still carry an "errors" list
// are passed through so the caller can report the service errors.
func checkStatus(resp *http.Response, body []byte) error {
	if resp.StatusCode >= http.StatusOK && resp.StatusCode <= 299 {
		return nil
	}
	var env struct {
		Errors []ServiceError `json:"errors"`
	}
	if json.Unmarshal(body, &env) == nil && len(env.Errors) > 0 {
		return nil
	}
	return NewServerError(fmt.Sprintf("invalid response (%d %s)", resp.StatusCode, http.StatusText(resp.StatusCode)), resp, body, nil)
}
