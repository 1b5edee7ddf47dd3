package ipfs

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultHost    = "localhost"
	defaultPort    = 5001
	defaultAPIPath = "/api/v0"
)

// Config identifies the daemon's API endpoint. Values returned by this
// package are normalised: APIPath starts with "/" and never ends with one.
type Config struct {
	Host    string
	Port    int
	APIPath string
	// Timeout bounds one exchange. Zero uses the transport default; a
	// negative value disables the timeout.
	Timeout time.Duration
}

// DefaultConfig returns the daemon's stock endpoint, localhost:5001/api/v0.
func DefaultConfig() Config {
	return Config{Host: defaultHost, Port: defaultPort, APIPath: defaultAPIPath}
}

// NewConfig validates and normalises an endpoint.
func NewConfig(host string, port int, apiPath string) (Config, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return Config{}, errors.New("ipfs: host is required")
	}
	if strings.ContainsAny(host, "/?#@ ") {
		return Config{}, fmt.Errorf("ipfs: invalid host %q", host)
	}
	if port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("ipfs: invalid port %d", port)
	}
	return Config{Host: host, Port: port, APIPath: normalizeAPIPath(apiPath)}, nil
}

// Base returns the API base every request URI is built from, e.g.
// "http://localhost:5001/api/v0".
func (c Config) Base() string {
	host := c.Host
	if host == "" {
		host = defaultHost
	}
	port := c.Port
	if port == 0 {
		port = defaultPort
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port)) + normalizeAPIPath(c.APIPath)
}

func normalizeAPIPath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// LoadConfig reads a TOML endpoint file. A missing file yields DefaultConfig.
//
//	host = "127.0.0.1"
//	port = 5001
//	api_path = "/api/v0"
//	timeout = "30s"
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("ipfs: open config: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("ipfs: read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes TOML endpoint settings on top of DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	var raw struct {
		Host    string  `toml:"host"`
		Port    int     `toml:"port"`
		APIPath *string `toml:"api_path"`
		Timeout string  `toml:"timeout"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("ipfs: parse config: %w", err)
	}

	def := DefaultConfig()
	host := strings.TrimSpace(raw.Host)
	if host == "" {
		host = def.Host
	}
	port := raw.Port
	if port == 0 {
		port = def.Port
	}
	apiPath := def.APIPath
	if raw.APIPath != nil {
		apiPath = *raw.APIPath
	}

	cfg, err := NewConfig(host, port, apiPath)
	if err != nil {
		return Config{}, err
	}
	if t := strings.TrimSpace(raw.Timeout); t != "" {
		d, err := time.ParseDuration(t)
		if err != nil {
			return Config{}, fmt.Errorf("ipfs: parse timeout: %w", err)
		}
		cfg.Timeout = d
	}
	return cfg, nil
}

// ConfigFromURL builds an endpoint from "http://host:port[/api-path]". When
// the URL has no path the API path defaults to /api/v0.
func ConfigFromURL(raw string) (Config, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Config{}, fmt.Errorf("ipfs: parse url: %w", err)
	}
	if u.Scheme != "http" {
		return Config{}, fmt.Errorf("ipfs: unsupported scheme %q in %q", u.Scheme, raw)
	}
	portStr := u.Port()
	if portStr == "" {
		portStr = strconv.Itoa(defaultPort)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Config{}, fmt.Errorf("ipfs: invalid port %q: %w", portStr, err)
	}
	apiPath := u.Path
	if strings.Trim(apiPath, "/") == "" {
		apiPath = defaultAPIPath
	}
	return NewConfig(u.Hostname(), port, apiPath)
}
