// Package ipfstest provides an in-memory stand-in for the daemon's HTTP API.
// It implements the commands the ipfs client wraps and records every request
// so tests can assert on the exact wire form.
package ipfstest

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"

	"github.com/Ratio1/ipfs_api_go/internal/apiwire"
	"github.com/Ratio1/ipfs_api_go/pkg/ipfs"
)

// ErrNotFound indicates the requested block is missing.
var ErrNotFound = errors.New("ipfstest: not found")

// APIPath is the prefix the fake daemon serves under.
const APIPath = "/api/v0"

// RecordedRequest is one exchange as the daemon saw it.
type RecordedRequest struct {
	Method      string
	Command     string
	RawQuery    string
	Args        []string
	ContentType string
	// Files lists uploaded part filenames in order.
	Files []string
}

// Daemon is an in-memory block store exposed over the daemon's HTTP API.
type Daemon struct {
	mu       sync.RWMutex
	blocks   map[string][]byte
	names    map[string]string
	config   map[string]any
	requests []*RecordedRequest
	version  ipfs.VersionInfo
	identity ipfs.IDInfo
}

// New returns an empty daemon.
func New() *Daemon {
	return &Daemon{
		blocks: make(map[string][]byte),
		names:  make(map[string]string),
		config: map[string]any{
			"Addresses": map[string]any{
				"API":     "/ip4/127.0.0.1/tcp/5001",
				"Gateway": "/ip4/127.0.0.1/tcp/8080",
			},
			"Datastore": map[string]any{
				"StorageMax": "10GB",
			},
		},
		version: ipfs.VersionInfo{
			Version: "0.4.11",
			Commit:  "ipfstest",
			Repo:    "6",
			System:  "amd64/linux",
			Golang:  "go1.24",
		},
		identity: ipfs.IDInfo{
			ID:              "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG",
			PublicKey:       "CAASpgIwggEiMA0GCSqGSIb3DQEBAQUAA4IBDwAwggEKAoIBAQC",
			Addresses:       []string{"/ip4/127.0.0.1/tcp/4001"},
			AgentVersion:    "go-ipfs/0.4.11/ipfstest",
			ProtocolVersion: "ipfs/0.1.0",
		},
	}
}

// Put stores data and returns its CIDv0.
func (d *Daemon) Put(name string, data []byte) (string, error) {
	c, err := cid.NewPrefixV0(mh.SHA2_256).Sum(data)
	if err != nil {
		return "", fmt.Errorf("ipfstest: hash block: %w", err)
	}
	key := c.String()
	d.mu.Lock()
	d.blocks[key] = append([]byte(nil), data...)
	if name != "" {
		d.names[key] = name
	}
	d.mu.Unlock()
	return key, nil
}

// Get resolves "<cid>", "/ipfs/<cid>" or "/ipfs/<cid>/<name>".
func (d *Daemon) Get(path string) ([]byte, error) {
	key, name := splitPath(path)
	if _, err := cid.Decode(key); err != nil {
		return nil, fmt.Errorf("ipfstest: invalid path %q: %w", path, err)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	data, ok := d.blocks[key]
	if !ok {
		return nil, ErrNotFound
	}
	if name != "" && d.names[key] != name {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// Version returns what the version command reports.
func (d *Daemon) Version() ipfs.VersionInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.version
}

// SetVersion replaces what the version command reports.
func (d *Daemon) SetVersion(v ipfs.VersionInfo) {
	d.mu.Lock()
	d.version = v
	d.mu.Unlock()
}

// Identity returns what the id command reports.
func (d *Daemon) Identity() ipfs.IDInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id := d.identity
	id.Addresses = append([]string{}, d.identity.Addresses...)
	return id
}

// SetConfig assigns a top-level configuration value.
func (d *Daemon) SetConfig(key string, value any) {
	d.mu.Lock()
	d.config[key] = value
	d.mu.Unlock()
}

// Requests returns a copy of every request received so far.
func (d *Daemon) Requests() []RecordedRequest {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]RecordedRequest, 0, len(d.requests))
	for _, rec := range d.requests {
		cp := *rec
		cp.Args = append([]string(nil), rec.Args...)
		cp.Files = append([]string(nil), rec.Files...)
		out = append(out, cp)
	}
	return out
}

// SeedEntry is one block of a JSON seed file.
type SeedEntry struct {
	Name   string `json:"name"`
	Base64 string `json:"base64"`
}

// LoadSeed reads a JSON array of SeedEntry from path.
func LoadSeed(path string) ([]SeedEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ipfstest: read seed: %w", err)
	}
	var entries []SeedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("ipfstest: decode seed: %w", err)
	}
	return entries, nil
}

// Seed stores every entry and returns their CIDs in order.
func (d *Daemon) Seed(entries []SeedEntry) ([]string, error) {
	cids := make([]string, 0, len(entries))
	for _, e := range entries {
		data, err := base64.StdEncoding.DecodeString(e.Base64)
		if err != nil {
			return nil, fmt.Errorf("ipfstest: decode seed %q: %w", e.Name, err)
		}
		key, err := d.Put(e.Name, data)
		if err != nil {
			return nil, err
		}
		cids = append(cids, key)
	}
	return cids, nil
}

// Handler serves the API under APIPath.
func (d *Daemon) Handler() http.Handler {
	routes := map[string]http.HandlerFunc{
		"add":          d.handleAdd,
		"cat":          d.handleCat,
		"block/get":    d.handleCat,
		"version":      d.handleVersion,
		"id":           d.handleID,
		"commands":     d.handleCommands,
		"config":       d.handleConfig,
		"config/show":  d.handleConfigShow,
		"object/get":   d.handleObjectGet,
		"object/links": d.handleObjectLinks,
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		command, ok := strings.CutPrefix(r.URL.Path, APIPath+"/")
		if !ok {
			writeError(w, http.StatusNotFound, "404 page not found")
			return
		}
		rec := d.record(r, command)
		r = r.WithContext(context.WithValue(r.Context(), recordKey{}, rec))
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "405 - Method Not Allowed")
			return
		}
		h, ok := routes[command]
		if !ok {
			writeError(w, http.StatusNotFound, "unknown command \""+command+"\"")
			return
		}
		h(w, r)
	})
}

type recordKey struct{}

func (d *Daemon) record(r *http.Request, command string) *RecordedRequest {
	rec := &RecordedRequest{
		Method:      r.Method,
		Command:     command,
		RawQuery:    r.URL.RawQuery,
		Args:        r.URL.Query()["arg"],
		ContentType: r.Header.Get("Content-Type"),
	}
	d.mu.Lock()
	d.requests = append(d.requests, rec)
	d.mu.Unlock()
	return rec
}

func (d *Daemon) setRecordedFiles(r *http.Request, files []string) {
	rec, ok := r.Context().Value(recordKey{}).(*RecordedRequest)
	if !ok {
		return
	}
	d.mu.Lock()
	rec.Files = files
	d.mu.Unlock()
}

func (d *Daemon) handleAdd(w http.ResponseWriter, r *http.Request) {
	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var (
		infos []ipfs.AddInfo
		names []string
	)
	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}
		if part.FormName() != "file" {
			continue
		}
		data, err := io.ReadAll(part)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		name := part.FileName()
		key, err := d.Put(name, data)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		names = append(names, name)
		infos = append(infos, ipfs.AddInfo{Name: name, Hash: key, Size: strconv.Itoa(len(data))})
	}
	d.setRecordedFiles(r, names)
	if len(infos) == 0 {
		writeError(w, http.StatusBadRequest, "file argument 'path' is required")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Chunked-Output", "1")
	enc := json.NewEncoder(w)
	for _, info := range infos {
		_ = enc.Encode(info)
	}
}

func (d *Daemon) handleCat(w http.ResponseWriter, r *http.Request) {
	args := r.URL.Query()["arg"]
	if len(args) == 0 {
		writeError(w, http.StatusBadRequest, "argument \"ipfs-path\" is required")
		return
	}
	data, err := d.Get(args[0])
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusInternalServerError, "merkledag: not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write(data)
}

func (d *Daemon) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, d.Version())
}

func (d *Daemon) handleID(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, d.Identity())
}

func (d *Daemon) handleCommands(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, command("ipfs", []string{"help", "h"},
		command("add", []string{"quiet", "q"}),
		command("block", nil, command("get", nil)),
		command("cat", nil),
		command("commands", nil),
		command("config", nil, command("show", nil)),
		command("id", []string{"format", "f"}),
		command("object", nil, command("get", nil), command("links", nil)),
		command("version", nil),
	))
}

// command builds a tree node the way the daemon encodes it: empty arrays,
// never null.
func command(name string, option []string, subs ...ipfs.CommandInfo) ipfs.CommandInfo {
	node := ipfs.CommandInfo{
		Name:        name,
		Subcommands: append([]ipfs.CommandInfo{}, subs...),
		Options:     []ipfs.CommandNames{},
	}
	if len(option) > 0 {
		node.Options = append(node.Options, ipfs.CommandNames{Names: option})
	}
	return node
}

func (d *Daemon) handleConfig(w http.ResponseWriter, r *http.Request) {
	args := r.URL.Query()["arg"]
	if len(args) == 0 {
		writeError(w, http.StatusBadRequest, "argument \"key\" is required")
		return
	}
	d.mu.RLock()
	value, ok := lookupConfig(d.config, args[0])
	d.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusInternalServerError, "config: key has no attributes")
		return
	}
	writeJSON(w, map[string]any{"Key": args[0], "Value": value})
}

func (d *Daemon) handleConfigShow(w http.ResponseWriter, r *http.Request) {
	d.mu.RLock()
	payload, err := json.MarshalIndent(d.config, "", "  ")
	d.mu.RUnlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write(payload)
}

func (d *Daemon) handleObjectGet(w http.ResponseWriter, r *http.Request) {
	args := r.URL.Query()["arg"]
	if len(args) == 0 {
		writeError(w, http.StatusBadRequest, "argument \"key\" is required")
		return
	}
	data, err := d.Get(args[0])
	if err != nil {
		writeError(w, http.StatusInternalServerError, "merkledag: not found")
		return
	}
	writeJSON(w, ipfs.ObjectInfo{Links: []ipfs.ObjectLinkInfo{}, Data: string(data)})
}

func (d *Daemon) handleObjectLinks(w http.ResponseWriter, r *http.Request) {
	args := r.URL.Query()["arg"]
	if len(args) == 0 {
		writeError(w, http.StatusBadRequest, "argument \"key\" is required")
		return
	}
	if _, err := d.Get(args[0]); err != nil {
		writeError(w, http.StatusInternalServerError, "merkledag: not found")
		return
	}
	key, _ := splitPath(args[0])
	writeJSON(w, ipfs.ObjectLinksInfo{Hash: key, Links: []ipfs.ObjectLinkInfo{}})
}

// Server is a Daemon listening on a local httptest server.
type Server struct {
	*Daemon
	HTTP *httptest.Server
}

// NewServer starts a fresh Daemon. Callers must Close it.
func NewServer() *Server {
	d := New()
	return &Server{Daemon: d, HTTP: httptest.NewServer(d.Handler())}
}

// Config returns an endpoint pointing at the server.
func (s *Server) Config() ipfs.Config {
	cfg, err := ipfs.ConfigFromURL(s.HTTP.URL + APIPath)
	if err != nil {
		panic(fmt.Sprintf("ipfstest: server url: %v", err))
	}
	return cfg
}

// Client returns a client bound to the server.
func (s *Server) Client(opts ...ipfs.Option) *ipfs.Client {
	return ipfs.New(s.Config(), opts...)
}

// Close shuts the server down.
func (s *Server) Close() {
	s.HTTP.Close()
}

func splitPath(path string) (string, string) {
	p := strings.TrimPrefix(path, "/ipfs/")
	key, name, _ := strings.Cut(p, "/")
	return key, name
}

func lookupConfig(cfg map[string]any, key string) (any, bool) {
	var cur any = cfg
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiwire.DaemonError{Message: msg, Code: 0, Type: "error"})
}
