package httpclient

import (
	"net/http"

	"github.com/tbadri/ragchat/internal/config"
)

var pooledTransport = &http.Transport{
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// Pooled is the shared outbound client for the upstream backends, so
// repeated embed/generate calls reuse connections instead of paying
// the handshake every time.
func Pooled() *http.Client {
	return &http.Client{Transport: pooledTransport}
}
