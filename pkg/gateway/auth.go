package gateway

import (
	"context"
	"fmt"
	"net"
)

// Authorizer controls incoming gateway connections.
type Authorizer interface {
	Allow(ctx context.Context, remoteAddr string) error
}

type NoopAuthorizer struct{}

func (NoopAuthorizer) Allow(context.Context, string) error {
	return nil
}

// AllowlistAuthorizer allows only specific remote addresses. Entries are
// host:port pairs, bare hosts, or CIDR blocks. An empty list allows all.
type AllowlistAuthorizer struct {
	Allowed []string
}

func (a AllowlistAuthorizer) Allow(_ context.Context, remoteAddr string) error {
	if len(a.Allowed) == 0 {
		return nil
	}
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	ip := net.ParseIP(host)
	for _, addr := range a.Allowed {
		if addr == remoteAddr || addr == host {
			return nil
		}
		if _, block, err := net.ParseCIDR(addr); err == nil && ip != nil && block.Contains(ip) {
			return nil
		}
	}
	return fmt.Errorf("remote address not allowed: %s", remoteAddr)
}
