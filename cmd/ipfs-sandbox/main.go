package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	manet "github.com/multiformats/go-multiaddr/net"
	toml "github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/Ratio1/ipfs_api_go/internal/apiwire"
	"github.com/Ratio1/ipfs_api_go/internal/observability"
	"github.com/Ratio1/ipfs_api_go/pkg/ipfs/ipfstest"
)

type failConfig struct {
	rate float64
	code int
}

// sandboxConfig is the optional -config file. Flags given explicitly win.
type sandboxConfig struct {
	Addr    string                  `toml:"addr"`
	Seed    string                  `toml:"seed"`
	Latency string                  `toml:"latency"`
	Fail    string                  `toml:"fail"`
	Log     observability.LogConfig `toml:"log"`
}

func main() {
	configPath := flag.String("config", "", "path to a TOML sandbox config")
	addr := flag.String("addr", "127.0.0.1:5001", "listen address")
	seed := flag.String("seed", "", "path to JSON seed of blocks ([{name, base64}])")
	latency := flag.Duration("latency", 0, "artificial latency to inject per request")
	fail := flag.String("fail", "", "failure injection (rate=<float>,code=<httpStatus>)")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	cfg := sandboxConfig{Log: observability.DefaultLogConfig()}
	if *configPath != "" {
		loaded, err := loadSandboxConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "seed":
			cfg.Seed = *seed
		case "latency":
			cfg.Latency = latency.String()
		case "fail":
			cfg.Fail = *fail
		case "log-level":
			cfg.Log.Level = *logLevel
		}
	})
	if cfg.Addr == "" {
		cfg.Addr = *addr
	}

	logger, err := observability.SetupLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	delay, err := parseLatency(cfg.Latency)
	if err != nil {
		logger.Fatal("parse latency", zap.Error(err))
	}
	failCfg, err := parseFailConfig(cfg.Fail)
	if err != nil {
		logger.Fatal("parse fail flag", zap.Error(err))
	}

	daemon := ipfstest.New()
	if cfg.Seed != "" {
		entries, err := ipfstest.LoadSeed(cfg.Seed)
		if err != nil {
			logger.Fatal("load seed", zap.Error(err))
		}
		cids, err := daemon.Seed(entries)
		if err != nil {
			logger.Fatal("apply seed", zap.Error(err))
		}
		for i, c := range cids {
			logger.Info("seeded block", zap.String("name", entries[i].Name), zap.String("cid", c))
		}
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		logger.Fatal("listen", zap.String("addr", cfg.Addr), zap.Error(err))
	}
	apiAddr, err := apiMultiaddr(ln.Addr())
	if err != nil {
		logger.Fatal("api multiaddr", zap.Error(err))
	}

	server := &http.Server{
		Handler:           withMiddleware(logger, delay, failCfg, daemon.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("ipfs-sandbox listening", zap.String("addr", ln.Addr().String()), zap.String("multiaddr", apiAddr))
	fmt.Println()
	fmt.Printf("export IPFS_API_ADDR=%s\n", apiAddr)
	fmt.Printf("export IPFS_API_PATH=%s\n", ipfstest.APIPath)
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server failed", zap.Error(err))
	}
	logger.Info("ipfs-sandbox stopped")
}

func loadSandboxConfig(path string) (sandboxConfig, error) {
	cfg := sandboxConfig{Log: observability.DefaultLogConfig()}
	data, err := os.ReadFile(path)
	if err != nil {
		return sandboxConfig{}, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return sandboxConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func parseLatency(raw string) (time.Duration, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	return time.ParseDuration(strings.TrimSpace(raw))
}

// apiMultiaddr renders the listener as the multiaddr clients should dial.
// Wildcard listeners are reported as loopback.
func apiMultiaddr(addr net.Addr) (string, error) {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return "", fmt.Errorf("unexpected listener address %T", addr)
	}
	dial := *tcp
	if dial.IP == nil || dial.IP.IsUnspecified() {
		dial.IP = net.IPv4(127, 0, 0, 1)
	}
	m, err := manet.FromNetAddr(&dial)
	if err != nil {
		return "", err
	}
	return m.String(), nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func withMiddleware(logger *zap.Logger, delay time.Duration, failCfg failConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			logger.Info("exec request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Int("status", rec.status),
				zap.Duration("elapsed", time.Since(start)),
			)
		}()

		if delay > 0 {
			time.Sleep(delay)
		}
		if failCfg.rate > 0 && rand.Float64() < failCfg.rate {
			status := failCfg.code
			if status == 0 {
				status = http.StatusInternalServerError
			}
			rec.Header().Set("Content-Type", "application/json")
			rec.WriteHeader(status)
			_ = json.NewEncoder(rec).Encode(apiwire.DaemonError{Message: "failure injected", Type: "error"})
			return
		}
		next.ServeHTTP(rec, r)
	})
}

func parseFailConfig(raw string) (failConfig, error) {
	if strings.TrimSpace(raw) == "" {
		return failConfig{}, nil
	}
	cfg := failConfig{code: http.StatusInternalServerError}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			return failConfig{}, fmt.Errorf("invalid fail segment %q", part)
		}
		switch strings.TrimSpace(key) {
		case "rate":
			f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
			if err != nil {
				return failConfig{}, err
			}
			cfg.rate = f
		case "code":
			n, err := strconv.Atoi(strings.TrimSpace(val))
			if err != nil {
				return failConfig{}, err
			}
			cfg.code = n
		default:
			return failConfig{}, fmt.Errorf("unknown fail key %q", key)
		}
	}
	return cfg, nil
}
