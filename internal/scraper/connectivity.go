package scraper

import (
	"net"
	"time"
)

// Guard reports whether the host has a working internet connection.
// It is consulted before every page fetch; an offline verdict abandons
// the fetch without consuming retries or violating rate limits.
type Guard interface {
	Online() bool
}

const (
	probeAddr    = "8.8.8.8:53"
	probeTimeout = 3 * time.Second
)

// DialGuard checks connectivity with a TCP dial to a well-known public
// DNS host.
type DialGuard struct {
	addr    string
	timeout time.Duration
	dial    func(network, address string, timeout time.Duration) (net.Conn, error)
}

// NewDialGuard builds a DialGuard probing 8.8.8.8:53 with a 3s timeout.
func NewDialGuard() *DialGuard {
	return &DialGuard{
		addr:    probeAddr,
		timeout: probeTimeout,
		dial:    net.DialTimeout,
	}
}

// Online returns false on any connection error.
func (g *DialGuard) Online() bool {
	conn, err := g.dial("tcp", g.addr, g.timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
