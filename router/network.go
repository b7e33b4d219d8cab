package router

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"kassette.ai/sensedata-sync/misc"
	"kassette.ai/sensedata-sync/utils/logger"
)

const (
	DefaultTimeout = 60 * time.Second
	userAgent      = "Kassette"
)

// NetHandleT sends the outbound requests of a sync run, to the source API as well as to the destination.
type NetHandleT struct {
	httpClient *http.Client
}

type RequestT struct {
	Method string
	URL    string
	Header map[string]string
	Body   []byte
}

type ResponseT struct {
	StatusCode int
	Status     string
	Body       []byte
}

// StatusError is returned for every non-2xx response. It is never retried.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.URL, e.StatusCode, misc.TruncateStr(string(e.Body), 256))
}

// Setup initializes the module
func (network *NetHandleT) Setup(timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 100
	transport.MaxIdleConnsPerHost = 100
	network.httpClient = &http.Client{Transport: transport, Timeout: timeout}
}

// Send performs one request. The response is returned together with a *StatusError when the status is not 2xx
// so callers can still log the body.
func (network *NetHandleT) Send(ctx context.Context, request RequestT) (ResponseT, error) {
	if network.httpClient == nil {
		network.Setup(DefaultTimeout)
	}

	var body io.Reader
	if request.Body != nil {
		body = bytes.NewReader(request.Body)
	}
	req, err := http.NewRequestWithContext(ctx, request.Method, request.URL, body)
	if err != nil {
		return ResponseT{}, fmt.Errorf("failed to create request: %w", err)
	}
	for key, val := range request.Header {
		req.Header.Set(key, val)
	}
	req.Header.Set("User-Agent", userAgent)

	logger.Debug("sending request", zap.String("method", request.Method), zap.String("url", request.URL))
	resp, err := network.httpClient.Do(req)
	if err != nil {
		return ResponseT{}, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return ResponseT{}, fmt.Errorf("failed to read response body: %w", err)
	}

	response := ResponseT{StatusCode: resp.StatusCode, Status: resp.Status, Body: respBody}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return response, &StatusError{
			Method:     request.Method,
			URL:        request.URL,
			StatusCode: resp.StatusCode,
			Body:       respBody,
		}
	}
	return response, nil
}
