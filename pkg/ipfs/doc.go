// Package ipfs is a client for the local HTTP control API of an IPFS-style
// content-addressed storage daemon.
//
// Every call is a POST to {base}/{command}?arg=..&arg=.. where base defaults
// to http://localhost:5001/api/v0. Plain commands go through Client.Send,
// uploads through Client.SendMultipart. Response bodies are decoded with
// AsText, AsJSON or AsJSONStream (newline-delimited JSON, as returned by
// "add"). All failures are reported as *Error, classified as transport, I/O,
// decode or other.
//
// The typed helpers (Add, Cat, Version, ID, ...) are thin compositions of
// those primitives.
package ipfs
