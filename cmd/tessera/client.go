// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessera Contributors

package main

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	tesserr "github.com/tessera-dev/tessera/pkg/errors"
)

// ErrServerNotRunning indicates the server refused the connection.
var ErrServerNotRunning = errors.New("server is not running (connection refused)")

// defaultHTTPClient is the package-level HTTP client used by server
// commands. Overridden in tests via httptest.
var defaultHTTPClient = &http.Client{
	Timeout: 5 * time.Second,
}

// serverClient provides HTTP access to a running Tessera server.
type serverClient struct {
	baseURL string
	http    *http.Client
}

// newServerClient creates a client targeting the given host:port address.
func newServerClient(addr string) *serverClient {
	return &serverClient{
		baseURL: "http://" + addr,
		http:    defaultHTTPClient,
	}
}

// getJSON performs a GET request and decodes the JSON response into dest.
// Connection-refused errors carry CodeCLIServerNotRunning and wrap
// ErrServerNotRunning.
func (c *serverClient) getJSON(path string, dest interface{}) error {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		if isDialError(err) {
			return tesserr.Wrap(ErrServerNotRunning, tesserr.CodeCLIServerNotRunning, "connecting to server")
		}
		return tesserr.Errorf(tesserr.CodeCLIRequestFailure, "request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return tesserr.Errorf(tesserr.CodeCLIRequestFailure,
			"server returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return tesserr.Errorf(tesserr.CodeCLIResponseInvalid, "invalid response: %w", err)
	}
	return nil
}

// isDialError returns true if err is a net dial error (connection refused, etc.).
func isDialError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}
