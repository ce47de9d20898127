package crawler

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

// proxyCheckTimeout bounds the TCP reachability check of a proxy.
const proxyCheckTimeout = 2 * time.Second

// newSOCKS5Transport returns a transport that dials through the SOCKS5
// proxy at addr. Authentication is not supported.
func newSOCKS5Transport(addr string) (*http.Transport, error) {
	if !isValidProxyAddress(addr) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProxyAddress, addr)
	}

	dialer, err := proxy.SOCKS5("tcp", addr, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}

	transport := &http.Transport{
		Proxy:                 nil,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   30 * time.Second,
		ResponseHeaderTimeout: 60 * time.Second,
		DisableCompression:    false,
	}
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		transport.DialContext = cd.DialContext
	} else {
		transport.DialContext = func(_ context.Context, network, address string) (net.Conn, error) {
			return dialer.Dial(network, address)
		}
	}
	return transport, nil
}

// isValidProxyAddress checks for "host:port" with a port in 1-65535.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}

// CheckProxy verifies that something accepts TCP connections at addr.
// It does not speak SOCKS; it only catches a proxy that is not running.
func CheckProxy(ctx context.Context, addr string) error {
	if !isValidProxyAddress(addr) {
		return fmt.Errorf("%w: %q", ErrInvalidProxyAddress, addr)
	}
	ctx, cancel := context.WithTimeout(ctx, proxyCheckTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("cannot connect to proxy %s: %w", addr, err)
	}
	return conn.Close()
}
