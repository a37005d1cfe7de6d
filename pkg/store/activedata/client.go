package activedata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/de-tools/test-atlas/pkg/models/domain"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/rs/zerolog"
)

const (
	DefaultURL = "http://activedata.allizom.org/query"

	maxErrorBody = 512
)

// Response is the `format: table` answer of the query service.
type Response struct {
	Meta   map[string]any
	Header []string
	Data   [][]any
}

// Client executes rendered queries against the remote query service.
type Client interface {
	Query(ctx context.Context, query string) (*Response, error)
}

type httpClient struct {
	url    string
	client *http.Client
}

// NewClient returns a Client posting queries to url. A zero timeout leaves requests bounded
// only by ctx.
func NewClient(url string, timeout time.Duration) Client {
	c := cleanhttp.DefaultPooledClient()
	c.Timeout = timeout
	return &httpClient{
		url:    url,
		client: c,
	}
}

func (c *httpClient) Query(ctx context.Context, query string) (*Response, error) {
	logger := zerolog.Ctx(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(query))
	if err != nil {
		return nil, &domain.RemoteQueryError{Reason: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	logger.Debug().Str("url", c.url).Str("query", query).Msg("posting query")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &domain.RemoteQueryError{Reason: "send request", Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close query response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &domain.RemoteQueryError{
			Reason: fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	return Decode(resp.Body)
}

// Decode parses a query service response. The meta, header and data members are all
// required and every data row must match the header width.
func Decode(r io.Reader) (*Response, error) {
	var raw struct {
		Meta   *map[string]any `json:"meta"`
		Header *[]string       `json:"header"`
		Data   *[][]any        `json:"data"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, &domain.RemoteQueryError{Reason: "malformed response", Err: err}
	}

	switch {
	case raw.Meta == nil:
		return nil, &domain.RemoteQueryError{Reason: "malformed response: missing meta"}
	case raw.Header == nil:
		return nil, &domain.RemoteQueryError{Reason: "malformed response: missing header"}
	case raw.Data == nil:
		return nil, &domain.RemoteQueryError{Reason: "malformed response: missing data"}
	}

	header := *raw.Header
	for i, row := range *raw.Data {
		if len(row) != len(header) {
			return nil, &domain.RemoteQueryError{
				Reason: fmt.Sprintf("malformed response: row %d has %d values, header has %d", i, len(row), len(header)),
			}
		}
	}

	meta := *raw.Meta
	if meta == nil {
		meta = map[string]any{}
	}

	return &Response{
		Meta:   meta,
		Header: header,
		Data:   *raw.Data,
	}, nil
}
