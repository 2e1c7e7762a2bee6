package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash returns the hex SHA-256 digest of data. Trace content hashes and file
// cache paths are both derived from it.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// digestKey builds "namespace:<digest>" from the JSON encoding of parts.
// Struct fields encode in declaration order, so equal options give equal keys.
func digestKey(namespace string, parts ...any) string {
	h := sha256.New()
	// Encoding into a hash cannot fail for the plain values keyers pass.
	_ = json.NewEncoder(h).Encode(parts)
	return namespace + ":" + hex.EncodeToString(h.Sum(nil))
}
