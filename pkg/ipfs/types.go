package ipfs

import (
	"strconv"
	"strings"

	"github.com/ipfs/go-cid"
)

// Every result type requires all of its keys to be present and non-null.
// Empty strings and empty arrays are accepted unless Validate says otherwise.

// AddInfo is one record of the add command's newline-delimited response.
type AddInfo struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

func (a *AddInfo) UnmarshalJSON(data []byte) error {
	type plain AddInfo
	return decodeRequired(data, "AddInfo", (*plain)(a), "Name", "Hash", "Size")
}

// Validate checks that the daemon reported a name and a parseable CID.
func (a AddInfo) Validate() error {
	if a.Name == "" {
		return &ValidationError{Type: "AddInfo", Field: "Name", Reason: "empty"}
	}
	if _, err := cid.Decode(a.Hash); err != nil {
		return &ValidationError{Type: "AddInfo", Field: "Hash", Reason: err.Error()}
	}
	return nil
}

// CID parses Hash.
func (a AddInfo) CID() (cid.Cid, error) {
	return cid.Decode(a.Hash)
}

// Bytes parses Size, which the daemon reports as a decimal string.
func (a AddInfo) Bytes() (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(a.Size), 10, 64)
}

// VersionInfo is the version command's response.
type VersionInfo struct {
	Version string `json:"Version"`
	Commit  string `json:"Commit"`
	Repo    string `json:"Repo"`
	System  string `json:"System"`
	Golang  string `json:"Golang"`
}

func (v *VersionInfo) UnmarshalJSON(data []byte) error {
	type plain VersionInfo
	return decodeRequired(data, "VersionInfo", (*plain)(v), "Version", "Commit", "Repo", "System", "Golang")
}

func (v VersionInfo) Validate() error {
	if v.Version == "" {
		return &ValidationError{Type: "VersionInfo", Field: "Version", Reason: "empty"}
	}
	return nil
}

// IDInfo is the id command's response.
type IDInfo struct {
	ID              string   `json:"ID"`
	PublicKey       string   `json:"PublicKey"`
	Addresses       []string `json:"Addresses"`
	AgentVersion    string   `json:"AgentVersion"`
	ProtocolVersion string   `json:"ProtocolVersion"`
}

func (i *IDInfo) UnmarshalJSON(data []byte) error {
	type plain IDInfo
	return decodeRequired(data, "IDInfo", (*plain)(i), "ID", "PublicKey", "Addresses", "AgentVersion", "ProtocolVersion")
}

func (i IDInfo) Validate() error {
	if i.ID == "" {
		return &ValidationError{Type: "IDInfo", Field: "ID", Reason: "empty"}
	}
	return nil
}

// CommandInfo describes one node of the daemon's command tree.
type CommandInfo struct {
	Name        string         `json:"Name"`
	Subcommands []CommandInfo  `json:"Subcommands"`
	Options     []CommandNames `json:"Options"`
}

func (c *CommandInfo) UnmarshalJSON(data []byte) error {
	type plain CommandInfo
	return decodeRequired(data, "CommandInfo", (*plain)(c), "Name", "Subcommands", "Options")
}

func (c CommandInfo) Validate() error {
	if c.Name == "" {
		return &ValidationError{Type: "CommandInfo", Field: "Name", Reason: "empty"}
	}
	return nil
}

// Find walks the tree along path, e.g. Find("object", "links").
func (c *CommandInfo) Find(path ...string) (*CommandInfo, bool) {
	node := c
	for _, name := range path {
		var next *CommandInfo
		for i := range node.Subcommands {
			if node.Subcommands[i].Name == name {
				next = &node.Subcommands[i]
				break
			}
		}
		if next == nil {
			return nil, false
		}
		node = next
	}
	return node, true
}

// CommandNames lists the aliases of one option.
type CommandNames struct {
	Names []string `json:"Names"`
}

func (n *CommandNames) UnmarshalJSON(data []byte) error {
	type plain CommandNames
	return decodeRequired(data, "CommandNames", (*plain)(n), "Names")
}

// ObjectInfo is the object/get command's response.
type ObjectInfo struct {
	Links []ObjectLinkInfo `json:"Links"`
	Data  string           `json:"Data"`
}

func (o *ObjectInfo) UnmarshalJSON(data []byte) error {
	type plain ObjectInfo
	return decodeRequired(data, "ObjectInfo", (*plain)(o), "Links", "Data")
}

// ObjectLinkInfo is one DAG link.
type ObjectLinkInfo struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size uint64 `json:"Size"`
}

func (l *ObjectLinkInfo) UnmarshalJSON(data []byte) error {
	type plain ObjectLinkInfo
	return decodeRequired(data, "ObjectLinkInfo", (*plain)(l), "Name", "Hash", "Size")
}

// ObjectLinksInfo is the object/links command's response.
type ObjectLinksInfo struct {
	Hash  string           `json:"Hash"`
	Links []ObjectLinkInfo `json:"Links"`
}

func (o *ObjectLinksInfo) UnmarshalJSON(data []byte) error {
	type plain ObjectLinksInfo
	return decodeRequired(data, "ObjectLinksInfo", (*plain)(o), "Hash", "Links")
}

func (o ObjectLinksInfo) Validate() error {
	if o.Hash == "" {
		return &ValidationError{Type: "ObjectLinksInfo", Field: "Hash", Reason: "empty"}
	}
	return nil
}
