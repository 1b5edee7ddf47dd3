package ipfs

import (
	"fmt"
	"strconv"

	ma "github.com/multiformats/go-multiaddr"
)

func isIP(code int) bool {
	return code == ma.P_IP4 || code == ma.P_IP6
}

func isDNS(code int) bool {
	return code == ma.P_DNS || code == ma.P_DNS4 || code == ma.P_DNS6
}

// IsThinWaist reports whether m starts with "thin waist" protocols:
// /{ip4,ip6}[/{tcp,udp,ip4,ip6}].
func IsThinWaist(m ma.Multiaddr) bool {
	if m == nil {
		return false
	}
	protos := m.Protocols()
	if len(protos) == 0 {
		return false
	}
	p1 := protos[0].Code
	if !isIP(p1) {
		return false
	}
	if len(protos) == 1 {
		return true
	}
	p2 := protos[1].Code
	return p2 == ma.P_TCP || p2 == ma.P_UDP || isIP(p2)
}

// ConfigFromMultiaddr builds an endpoint from an API multiaddr such as
// "/ip4/127.0.0.1/tcp/5001" or "/dns4/node.local/tcp/5001". The API path
// defaults to /api/v0.
func ConfigFromMultiaddr(addr string) (Config, error) {
	m, err := ma.NewMultiaddr(addr)
	if err != nil {
		return Config{}, fmt.Errorf("ipfs: parse multiaddr: %w", err)
	}
	protos := m.Protocols()
	if len(protos) < 2 {
		return Config{}, fmt.Errorf("ipfs: multiaddr %s has no host and port", addr)
	}

	first := protos[0].Code
	switch {
	case isIP(first):
		if !IsThinWaist(m) {
			return Config{}, fmt.Errorf("ipfs: multiaddr %s is not thin waist", addr)
		}
	case isDNS(first):
	default:
		return Config{}, fmt.Errorf("ipfs: multiaddr %s does not start with an IP or DNS protocol", addr)
	}
	if protos[1].Code != ma.P_TCP {
		return Config{}, fmt.Errorf("ipfs: multiaddr %s must use tcp for the HTTP API", addr)
	}

	host, err := m.ValueForProtocol(first)
	if err != nil {
		return Config{}, fmt.Errorf("ipfs: multiaddr host: %w", err)
	}
	portStr, err := m.ValueForProtocol(ma.P_TCP)
	if err != nil {
		return Config{}, fmt.Errorf("ipfs: multiaddr port: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Config{}, fmt.Errorf("ipfs: multiaddr port %q: %w", portStr, err)
	}
	return NewConfig(host, port, defaultAPIPath)
}
