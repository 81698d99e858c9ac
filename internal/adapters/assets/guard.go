package assets

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
	"sync"
	"syscall"
	"time"
)

// ErrBlockedAddress is returned when an image URL resolves to an address
// the service must not reach on a caller's behalf.
var ErrBlockedAddress = errors.New("assets: destination address not allowed")

var cgnat = netip.MustParsePrefix("100.64.0.0/10")

// dialGuard checks the resolved IP of every outbound connection, redirects
// included. Hosts named in trusted (host:port as dialled) skip the check;
// that is how the configured proxy base stays reachable on a private
// network.
type dialGuard struct {
	mu           sync.RWMutex
	allowPrivate bool
	trusted      map[string]bool
}

func newDialGuard() *dialGuard {
	return &dialGuard{trusted: map[string]bool{}}
}

func (g *dialGuard) exempt(addr string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.allowPrivate || g.trusted[strings.ToLower(addr)]
}

func (g *dialGuard) dialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	d := net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	if !g.exempt(addr) {
		d.Control = checkAddress
	}
	return d.DialContext(ctx, network, addr)
}

// checkAddress runs after DNS resolution, so rebinding a public name to a
// private address is caught too.
func checkAddress(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	if blockedIP(ip) {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, ip)
	}
	return nil
}

func blockedIP(ip netip.Addr) bool {
	ip = ip.Unmap()
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() ||
		ip.IsMulticast() ||
		ip.IsUnspecified() ||
		cgnat.Contains(ip)
}

// hostPort is the address the transport dials for u.
func hostPort(u *url.URL) string {
	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}
	return net.JoinHostPort(strings.ToLower(u.Hostname()), port)
}
