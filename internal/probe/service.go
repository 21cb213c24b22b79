package probe

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const maxServiceBodySize = 1 << 20 // 1MB

// connection pooling limits to keep the check lightweight against a fleet
// of small devices
const (
	serviceMaxIdleConns        = 32
	serviceMaxIdleConnsPerHost = 2
	serviceMaxConnsPerHost     = 2
	serviceIdleConnTimeout     = 60 * time.Second
)

// serviceClient performs the HTTP service-presence check for targets that
// configure one.
//
// The check issues a GET to http://<address>:<port>/ and scans the body for
// the target's match hint. Presence depends only on body content: a known
// service is recognized by its banner, whatever status code the device
// returns. Errors are captured in the returned [ServiceStatus] rather than
// returned separately.
type serviceClient struct {
	httpClient *http.Client
}

// newServiceClient creates the polling HTTP client for service checks.
// Timeouts are applied per-request via context, not as a global client
// timeout, so each target's configured timeout is honored independently.
func newServiceClient() *serviceClient {
	return &serviceClient{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        serviceMaxIdleConns,
				MaxIdleConnsPerHost: serviceMaxIdleConnsPerHost,
				MaxConnsPerHost:     serviceMaxConnsPerHost,
				IdleConnTimeout:     serviceIdleConnTimeout,
			},
		},
	}
}

// Check performs one service-presence probe against address:port.
//
// Present is true iff the response body contains hint. Any transport or
// timeout error yields Present=false with [KindServiceCheckFailed] and the
// error text retained as raw detail. Bodies are capped at 1MB.
func (c *serviceClient) Check(ctx context.Context, address string, port uint16, hint string, timeout time.Duration) ServiceStatus {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := fmt.Sprintf("http://%s/", net.JoinHostPort(address, strconv.Itoa(int(port))))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ServiceStatus{FailureKind: KindServiceCheckFailed, RawDetail: err.Error()}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ServiceStatus{FailureKind: KindServiceCheckFailed, RawDetail: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxServiceBodySize))
	if err != nil {
		return ServiceStatus{FailureKind: KindServiceCheckFailed, RawDetail: err.Error()}
	}

	return ServiceStatus{Present: strings.Contains(string(body), hint)}
}

// Close closes all idle connections in the client's connection pool.
// Safe to call multiple times; the client remains usable afterwards.
func (c *serviceClient) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
