package customHttpClient

import (
	"net/http"

	"github.com/akolanti/docqa/internal/config"
)

// one pooled transport shared by every outbound API client
var customTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
	ForceAttemptHTTP2:   true,
}

func NewHTTPClient() *http.Client {
	return &http.Client{Transport: customTransport}
}
