package ipfs

import (
	"errors"
	"net/url"
	"strings"
	"testing"
)

const testBase = "http://localhost:5001/api/v0"

func TestBuildURI(t *testing.T) {
	tests := []struct {
		name     string
		command  string
		args     []string
		expected string
	}{
		{
			name:     "no args keeps separator",
			command:  "version",
			expected: testBase + "/version?",
		},
		{
			name:     "single arg",
			command:  "cat",
			args:     []string{"/ipfs/QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG/readme"},
			expected: testBase + "/cat?arg=/ipfs/QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG/readme",
		},
		{
			name:     "args in order",
			command:  "config",
			args:     []string{"Addresses.API", "/ip4/127.0.0.1/tcp/5001", "z", "a"},
			expected: testBase + "/config?arg=Addresses.API&arg=/ip4/127.0.0.1/tcp/5001&arg=z&arg=a",
		},
		{
			name:     "nested command",
			command:  "object/links",
			args:     []string{"QmHash"},
			expected: testBase + "/object/links?arg=QmHash",
		},
		{
			name:     "empty argument still contributes a pair",
			command:  "cat",
			args:     []string{"", "b"},
			expected: testBase + "/cat?arg=&arg=b",
		},
		{
			name:     "arguments are not escaped",
			command:  "cat",
			args:     []string{"a%20b", "k=v"},
			expected: testBase + "/cat?arg=a%20b&arg=k=v",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := BuildURI(testBase, tc.command, tc.args)
			if err != nil {
				t.Fatalf("BuildURI returned error: %v", err)
			}
			if got != tc.expected {
				t.Fatalf("BuildURI mismatch:\n got  %q\n want %q", got, tc.expected)
			}
		})
	}
}

func TestBuildURIRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		command string
		args    []string
	}{
		{name: "empty command", base: testBase, command: ""},
		{name: "space in argument", base: testBase, command: "cat", args: []string{"hello world"}},
		{name: "fragment in argument", base: testBase, command: "cat", args: []string{"a#b"}},
		{name: "newline in argument", base: testBase, command: "cat", args: []string{"a\nb"}},
		{name: "non-ascii argument", base: testBase, command: "cat", args: []string{"é"}},
		{name: "quote in argument", base: testBase, command: "cat", args: []string{`"x"`}},
		{name: "relative base", base: "localhost:5001", command: "id"},
		{name: "missing host", base: "http://", command: "id"},
		{name: "unsupported scheme", base: "ftp://localhost:5001/api/v0", command: "id"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			uri, err := BuildURI(tc.base, tc.command, tc.args)
			if err == nil {
				t.Fatalf("expected error, got %q", uri)
			}
			if !errors.Is(err, ErrInvalidURI) {
				t.Fatalf("expected ErrInvalidURI, got %v", err)
			}
			if KindOf(err) != KindOther {
				t.Fatalf("expected other kind, got %s", KindOf(err))
			}
		})
	}
}

func TestBuildURIRoundTrip(t *testing.T) {
	inputs := []struct {
		command string
		args    []string
	}{
		{"add", nil},
		{"cat", []string{"QmA"}},
		{"block/get", []string{"QmA", "QmB", "QmA", "x.y-z_~"}},
		{"config", []string{"Datastore.StorageMax", "20GB"}},
	}

	for _, in := range inputs {
		uri, err := BuildURI(testBase, in.command, in.args)
		if err != nil {
			t.Fatalf("BuildURI(%q): %v", in.command, err)
		}
		u, err := url.Parse(uri)
		if err != nil {
			t.Fatalf("url.Parse(%q): %v", uri, err)
		}
		command := strings.TrimPrefix(u.Path, "/api/v0/")
		if command != in.command {
			t.Fatalf("command round-trip: got %q want %q", command, in.command)
		}
		got := u.Query()["arg"]
		if len(got) != len(in.args) {
			t.Fatalf("args round-trip for %q: got %v want %v", in.command, got, in.args)
		}
		for i := range got {
			if got[i] != in.args[i] {
				t.Fatalf("arg %d round-trip: got %q want %q", i, got[i], in.args[i])
			}
		}
	}
}

func TestRequestURIUsesBase(t *testing.T) {
	c := New(DefaultConfig())
	req := c.NewRequest("cat", "QmA")
	uri, err := req.URI(c.Base())
	if err != nil {
		t.Fatalf("URI: %v", err)
	}
	if uri != testBase+"/cat?arg=QmA" {
		t.Fatalf("unexpected uri %q", uri)
	}

	var nilReq *Request
	if _, err := nilReq.URI(c.Base()); !errors.Is(err, ErrInvalidURI) {
		t.Fatalf("expected ErrInvalidURI for nil request, got %v", err)
	}
}

func TestNewRequestCopiesArguments(t *testing.T) {
	c := New(DefaultConfig())
	args := []string{"a", "b"}
	req := c.NewRequest("cat", args...)
	args[0] = "mutated"
	if req.Args[0] != "a" {
		t.Fatalf("request shares caller's argument slice")
	}
}
