package utils

import (
	"crypto/tls"
	"net/http"
	"net/url"

	"golang.org/x/net/http/httpproxy"
	"golang.org/x/xerrors"
)

// TLSConfig returns the client TLS settings. Certificate verification is only
// skipped when explicitly requested.
func TLSConfig(verifyTLS bool) *tls.Config {
	return &tls.Config{
		InsecureSkipVerify: !verifyTLS, // nolint: gosec
	}
}

// ProxyFunc returns the proxy rule shared by every outbound request. An empty
// proxy falls back to the environment (HTTP_PROXY, HTTPS_PROXY, NO_PROXY),
// which is read on each request.
func ProxyFunc(proxy string) (func(*http.Request) (*url.URL, error), error) {
	if proxy == "" {
		return envProxy, nil
	}
	u, err := url.Parse(proxy)
	if err != nil {
		return nil, xerrors.Errorf("invalid proxy URL %q: %w", proxy, err)
	}
	return http.ProxyURL(u), nil
}

func envProxy(req *http.Request) (*url.URL, error) {
	return httpproxy.FromEnvironment().ProxyFunc()(req.URL)
}

// NewTransport clones the default transport with the proxy and TLS settings.
func NewTransport(proxy string, verifyTLS bool) (*http.Transport, error) {
	proxyFunc, err := ProxyFunc(proxy)
	if err != nil {
		return nil, err
	}

	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.TLSClientConfig = TLSConfig(verifyTLS)
	tr.Proxy = proxyFunc
	return tr, nil
}

// NewHTTPClient builds a client honoring the proxy and TLS settings.
func NewHTTPClient(proxy string, verifyTLS bool) (*http.Client, error) {
	tr, err := NewTransport(proxy, verifyTLS)
	if err != nil {
		return nil, err
	}
	return &http.Client{Transport: tr}, nil
}
