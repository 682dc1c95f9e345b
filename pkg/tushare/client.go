package tushare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
)

// ClientOption allows for customization of the client
type ClientOption func(*Client)

// Client is the Tushare Pro API client. It exposes a single narrow
// contract: call an endpoint by name with string parameters and get the
// rows back, or a classified error.
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *logrus.Logger
}

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new Tushare API client.
func NewClient(config *Config, opts ...ClientOption) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client := &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     config.Logger,
	}
	if client.logger == nil {
		client.logger = logrus.New()
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// request is the Tushare Pro wire envelope.
type request struct {
	APIName string            `json:"api_name"`
	Token   string            `json:"token"`
	Params  map[string]string `json:"params"`
	Fields  string            `json:"fields"`
}

// response is the Tushare Pro reply envelope. Code zero means success;
// anything else carries a vendor error message.
type response struct {
	Code int     `json:"code"`
	Msg  string  `json:"msg"`
	Data *Result `json:"data"`
}

// Call invokes one API endpoint and returns its rows. Errors are
// classified: *APIError for vendor-reported failures (check with
// IsPermanent), plain wrapped errors for transport failures, which are
// always transient.
func (c *Client) Call(ctx context.Context, apiName string, params map[string]string) (*Result, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	if params == nil {
		params = map[string]string{}
	}

	body, err := json.Marshal(request{
		APIName: apiName,
		Token:   c.config.Token,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.WithFields(logrus.Fields{
		"api":    apiName,
		"params": params,
	}).Debug("Calling Tushare API")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	return c.handleResponse(apiName, resp)
}

// handleResponse decodes the reply envelope and surfaces vendor errors
// as classified APIErrors.
func (c *Client) handleResponse(apiName string, resp *http.Response) (*Result, error) {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// server-side and throttling statuses are transient
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("tushare http error: status=%d body=%s", resp.StatusCode, string(body))
	}

	var envelope response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if envelope.Code != 0 {
		apiErr := classifyAPIError(envelope.Code, envelope.Msg)
		c.logger.WithFields(logrus.Fields{
			"api":        apiName,
			"error_code": apiErr.Code,
			"kind":       apiErr.Kind.String(),
			"message":    apiErr.Msg,
		}).Warn("Tushare API error")
		return nil, apiErr
	}

	if envelope.Data == nil {
		return &Result{}, nil
	}
	return envelope.Data, nil
}
