package ipfs

import (
	"fmt"
	"os"
	"strings"
)

const (
	envAPIAddr = "IPFS_API_ADDR"
	envAPIPath = "IPFS_API_PATH"
)

// NewFromEnv builds a client from IPFS_API_ADDR (a multiaddr such as
// /ip4/127.0.0.1/tcp/5001, or an http URL) and IPFS_API_PATH. Unset or
// empty variables fall back to DefaultConfig; IPFS_API_PATH=/ serves the API
// from the root.
func NewFromEnv(opts ...Option) (*Client, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...), nil
}

// ConfigFromEnv resolves the endpoint NewFromEnv would use.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if addr := strings.TrimSpace(os.Getenv(envAPIAddr)); addr != "" {
		parsed, err := parseAddr(addr)
		if err != nil {
			return Config{}, fmt.Errorf("ipfs: %s: %w", envAPIAddr, err)
		}
		cfg = parsed
	}
	if p := strings.TrimSpace(os.Getenv(envAPIPath)); p != "" {
		cfg.APIPath = normalizeAPIPath(p)
	}
	return cfg, nil
}

func parseAddr(addr string) (Config, error) {
	if strings.HasPrefix(addr, "/") {
		return ConfigFromMultiaddr(addr)
	}
	return ConfigFromURL(addr)
}
