package utils

import (
	"crypto/tls"
	"net/http"
	"time"
)

// NewHTTPClient builds the client used for streaming proxy requests. The
// timeout bounds the whole exchange; zero disables it so long streams rely
// on normal transport timeouts.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: false,
			},
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
