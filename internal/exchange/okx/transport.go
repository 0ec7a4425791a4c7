package okx

import (
	"context"
	"net"
	"net/http"
	"time"
)

// NewHTTPClient builds the REST transport. A non-empty dnsServer ("host:port")
// routes every lookup through that resolver instead of the system one.
func NewHTTPClient(timeout time.Duration, dnsServer string) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if dnsServer != "" {
		if _, _, err := net.SplitHostPort(dnsServer); err != nil {
			dnsServer = net.JoinHostPort(dnsServer, "53")
		}
		resolver := &net.Resolver{
			PreferGo: true,
			Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
				d := net.Dialer{Timeout: 5 * time.Second}
				return d.DialContext(ctx, network, dnsServer)
			},
		}
		dialer := &net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
			Resolver:  resolver,
		}
		transport.DialContext = dialer.DialContext
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}
