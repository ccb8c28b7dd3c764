// Package lookup provides a client for the remote address lookup endpoint.
// Every response is classified into a Result; the client never returns a
// Go error for remote or transport failures.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zarlcorp/zbook/internal/address"
	"github.com/zarlcorp/zbook/internal/logger"
)

// user-facing messages
const (
	MsgFetchFailed  = "Error fetching addresses. Please try again later."
	MsgNoResults    = "No addresses found for this postcode and house number"
	MsgRemoteFailed = "Error fetching addresses"
)

const (
	defaultTimeout = 10 * time.Second
	searchPath     = "/api/getAddresses"
	maxBodyBytes   = 1 << 20
)

// Kind classifies a lookup outcome.
type Kind int

const (
	KindOK Kind = iota
	KindError
)

// Result is the classified outcome of one lookup.
type Result struct {
	Kind    Kind
	Records []address.Raw
	Message string
}

// OK reports whether the lookup returned records.
func (r Result) OK() bool { return r.Kind == KindOK }

// Config holds client settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger
}

// Client calls the lookup endpoint. It does not retry, cache or deduplicate.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// NewClient creates a lookup client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Search looks up addresses for a postcode and house number.
func (c *Client) Search(ctx context.Context, postCode, houseNumber string) Result {
	q := url.Values{}
	q.Set("postcode", postCode)
	q.Set("streetnumber", houseNumber)
	u := c.baseURL + searchPath + "?" + q.Encode()

	body, err := c.doGet(ctx, u)
	if err != nil {
		c.log.Warn("address lookup failed", "postcode", postCode, "err", err)
		return failed(MsgFetchFailed)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.log.Warn("address lookup: decode response", "postcode", postCode, "err", err)
		return failed(MsgFetchFailed)
	}

	return classify(resp)
}

func classify(resp searchResponse) Result {
	switch resp.Status {
	case statusOK:
		records := resp.records()
		if len(records) == 0 {
			return failed(MsgNoResults)
		}
		return Result{Kind: KindOK, Records: records}
	case statusError:
		if resp.ErrorMessage != "" {
			return failed(resp.ErrorMessage)
		}
		return failed(MsgRemoteFailed)
	}
	return failed(MsgNoResults)
}

func failed(msg string) Result {
	return Result{Kind: KindError, Message: msg}
}

func (c *Client) doGet(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &Error{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return body, nil
}

// Error is a non-2xx response from the lookup endpoint.
type Error struct {
	StatusCode int
}

func (e *Error) Error() string {
	return fmt.Sprintf("lookup: %s (status %d)", http.StatusText(e.StatusCode), e.StatusCode)
}

// json wire types

const (
	statusOK    = "ok"
	statusError = "error"
)

type searchResponse struct {
	Status       string          `json:"status"`
	Details      json.RawMessage `json:"details"`
	ErrorMessage string          `json:"errormessage"`
}

// records decodes details, which only count when they are a list of
// objects.
func (r searchResponse) records() []address.Raw {
	if len(r.Details) == 0 {
		return nil
	}
	var out []address.Raw
	if err := json.Unmarshal(r.Details, &out); err != nil {
		return nil
	}
	return out
}
