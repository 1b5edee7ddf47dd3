package ipfstest

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Ratio1/ipfs_api_go/internal/apiwire"
)

func TestPutGet(t *testing.T) {
	d := New()
	key, err := d.Put("hello.txt", []byte("hello"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !strings.HasPrefix(key, "Qm") {
		t.Fatalf("expected CIDv0, got %s", key)
	}

	for _, path := range []string{key, "/ipfs/" + key, "/ipfs/" + key + "/hello.txt"} {
		data, err := d.Get(path)
		if err != nil {
			t.Fatalf("Get(%s): %v", path, err)
		}
		if string(data) != "hello" {
			t.Fatalf("Get(%s) = %q", path, data)
		}
	}

	if _, err := d.Get("/ipfs/" + key + "/other.txt"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for wrong name, got %v", err)
	}
	if _, err := d.Get("not-a-cid"); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected invalid path error, got %v", err)
	}
}

func TestPutIsContentAddressed(t *testing.T) {
	d := New()
	a, _ := d.Put("a", []byte("same"))
	b, _ := d.Put("b", []byte("same"))
	if a != b {
		t.Fatalf("same content hashed differently: %s vs %s", a, b)
	}
}

func TestSeed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.json")
	entries := []SeedEntry{
		{Name: "one.txt", Base64: base64.StdEncoding.EncodeToString([]byte("one"))},
		{Name: "two.txt", Base64: base64.StdEncoding.EncodeToString([]byte("two"))},
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		t.Fatalf("marshal seed: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	loaded, err := LoadSeed(path)
	if err != nil {
		t.Fatalf("LoadSeed: %v", err)
	}
	d := New()
	cids, err := d.Seed(loaded)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if len(cids) != 2 {
		t.Fatalf("expected 2 cids, got %d", len(cids))
	}
	data, err := d.Get("/ipfs/" + cids[1] + "/two.txt")
	if err != nil || string(data) != "two" {
		t.Fatalf("Get seeded = %q, %v", data, err)
	}

	if _, err := d.Seed([]SeedEntry{{Name: "bad", Base64: "!!"}}); err == nil {
		t.Fatalf("expected base64 error")
	}
}

func TestHandlerRejectsGet(t *testing.T) {
	d := New()
	rr := httptest.NewRecorder()
	d.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, APIPath+"/version", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rr.Code)
	}
	reqs := d.Requests()
	if len(reqs) != 1 || reqs[0].Method != http.MethodGet {
		t.Fatalf("GET was not recorded: %+v", reqs)
	}
}

func TestHandlerUnknownCommand(t *testing.T) {
	d := New()
	rr := httptest.NewRecorder()
	d.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, APIPath+"/pin/add", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	de := apiwire.ParseDaemonError(rr.Body.Bytes())
	if de == nil || !strings.Contains(de.Message, "pin/add") {
		t.Fatalf("unexpected error body %q", rr.Body.String())
	}
}

func TestHandlerConfigLookup(t *testing.T) {
	d := New()
	d.SetConfig("Bootstrap", []string{"/dnsaddr/bootstrap.libp2p.io"})

	rr := httptest.NewRecorder()
	d.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, APIPath+"/config?arg=Bootstrap", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "bootstrap.libp2p.io") {
		t.Fatalf("body = %s", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	d.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, APIPath+"/config?arg=Datastore.Missing", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("missing key status = %d", rr.Code)
	}
}

func TestRequestsAreCopies(t *testing.T) {
	d := New()
	d.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, APIPath+"/cat?arg=x&arg=y", nil))

	reqs := d.Requests()
	reqs[0].Args[0] = "mutated"
	if got := d.Requests()[0].Args[0]; got != "x" {
		t.Fatalf("recorded args mutated through copy: %q", got)
	}
}
