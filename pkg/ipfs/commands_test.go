package ipfs_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/Ratio1/ipfs_api_go/pkg/ipfs"
	"github.com/Ratio1/ipfs_api_go/pkg/ipfs/ipfstest"
)

func TestAddThenCat(t *testing.T) {
	srv := ipfstest.NewServer()
	defer srv.Close()

	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "moloch.txt", "Moloch!\n"),
		writeFile(t, dir, "Cargo.toml", "[package]\nname = \"ipfs-api\"\n"),
	}

	ctx := context.Background()
	c := srv.Client()
	infos, err := c.Add(ctx, paths...)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 add records, got %d", len(infos))
	}

	expected := []string{"Moloch!\n", "[package]\nname = \"ipfs-api\"\n"}
	for i, info := range infos {
		id, err := info.CID()
		if err != nil {
			t.Fatalf("CID(%q): %v", info.Hash, err)
		}
		if id.Version() != 0 {
			t.Fatalf("expected CIDv0, got v%d", id.Version())
		}
		size, err := info.Bytes()
		if err != nil || size != int64(len(expected[i])) {
			t.Fatalf("size of %s = %d, %v", info.Name, size, err)
		}

		data, err := c.Cat(ctx, info.Hash)
		if err != nil {
			t.Fatalf("Cat(%s): %v", info.Hash, err)
		}
		if string(data) != expected[i] {
			t.Fatalf("Cat(%s) = %q, want %q", info.Hash, data, expected[i])
		}
	}

	data, err := c.Cat(ctx, "/ipfs/"+infos[0].Hash+"/moloch.txt")
	if err != nil {
		t.Fatalf("Cat by path: %v", err)
	}
	if string(data) != expected[0] {
		t.Fatalf("Cat by path = %q", data)
	}
}

func TestAddMissingFileIsIO(t *testing.T) {
	srv := ipfstest.NewServer()
	defer srv.Close()

	_, err := srv.Client().Add(context.Background(), t.TempDir()+"/nope.txt")
	if !ipfs.IsIO(err) {
		t.Fatalf("expected io error, got %v", err)
	}
	if n := len(srv.Requests()); n != 0 {
		t.Fatalf("expected no requests, daemon saw %d", n)
	}
}

func TestVersionAndID(t *testing.T) {
	srv := ipfstest.NewServer()
	defer srv.Close()

	ctx := context.Background()
	c := srv.Client()

	v, err := c.Version(ctx)
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if *v != srv.Version() {
		t.Fatalf("Version = %+v, want %+v", *v, srv.Version())
	}

	id, err := c.ID(ctx)
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	if id.ID != srv.Identity().ID || len(id.Addresses) != len(srv.Identity().Addresses) {
		t.Fatalf("ID = %+v", id)
	}
}

func TestVersionShapeMismatchIsDecode(t *testing.T) {
	srv := ipfstest.NewServer()
	defer srv.Close()

	srv.SetVersion(ipfs.VersionInfo{})
	_, err := srv.Client().Version(context.Background())
	if !ipfs.IsDecode(err) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if !strings.Contains(err.Error(), "decode version") {
		t.Fatalf("error %q does not name the command", err.Error())
	}
}

func TestCommands(t *testing.T) {
	srv := ipfstest.NewServer()
	defer srv.Close()

	info, err := srv.Client().Commands(context.Background())
	if err != nil {
		t.Fatalf("Commands: %v", err)
	}
	if info.Name != "ipfs" {
		t.Fatalf("root = %q", info.Name)
	}
	node, ok := info.Find("object", "links")
	if !ok || node.Name != "links" {
		t.Fatalf("object/links not found in command tree")
	}
	if _, ok := info.Find("object", "patch"); ok {
		t.Fatalf("unexpected command found")
	}
}

func TestConfigGetAndShow(t *testing.T) {
	srv := ipfstest.NewServer()
	defer srv.Close()

	ctx := context.Background()
	c := srv.Client()

	raw, err := c.ConfigGet(ctx, "Addresses.API")
	if err != nil {
		t.Fatalf("ConfigGet: %v", err)
	}
	var kv struct {
		Key   string
		Value string
	}
	if err := json.Unmarshal([]byte(raw), &kv); err != nil {
		t.Fatalf("decode ConfigGet: %v", err)
	}
	if kv.Key != "Addresses.API" || kv.Value != "/ip4/127.0.0.1/tcp/5001" {
		t.Fatalf("ConfigGet = %+v", kv)
	}

	show, err := c.ConfigShow(ctx)
	if err != nil {
		t.Fatalf("ConfigShow: %v", err)
	}
	if !strings.Contains(show, "StorageMax") {
		t.Fatalf("ConfigShow missing key: %s", show)
	}
}

func TestBlockGetAndObjects(t *testing.T) {
	srv := ipfstest.NewServer()
	defer srv.Close()

	key, err := srv.Put("readme", []byte("Hello and Welcome to IPFS!"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	ctx := context.Background()
	c := srv.Client()

	block, err := c.BlockGet(ctx, key)
	if err != nil {
		t.Fatalf("BlockGet: %v", err)
	}
	if block != "Hello and Welcome to IPFS!" {
		t.Fatalf("BlockGet = %q", block)
	}

	obj, err := c.ObjectGet(ctx, key)
	if err != nil {
		t.Fatalf("ObjectGet: %v", err)
	}
	if obj.Data != block {
		t.Fatalf("ObjectGet data = %q", obj.Data)
	}

	links, err := c.ObjectLinks(ctx, key)
	if err != nil {
		t.Fatalf("ObjectLinks: %v", err)
	}
	if links.Hash != key {
		t.Fatalf("ObjectLinks hash = %q, want %q", links.Hash, key)
	}
}

func TestBlockGetInvalidUTF8IsDecode(t *testing.T) {
	srv := ipfstest.NewServer()
	defer srv.Close()

	key, err := srv.Put("", []byte{0xff, 0xfe, 0xfd})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	_, err = srv.Client().BlockGet(context.Background(), key)
	if !ipfs.IsDecode(err) {
		t.Fatalf("expected decode error, got %v", err)
	}
}
