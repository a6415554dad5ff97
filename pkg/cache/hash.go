package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Hash returns the hex SHA-256 of data. The runner hashes the canonical
// stage JSON and the serialized layout with it before deriving keys.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey returns prefix:<hex sha256>. Each part is JSON-encoded on its own
// line, so moving bytes between parts changes the key.
func hashKey(prefix string, parts ...any) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, p := range parts {
		if err := enc.Encode(p); err != nil {
			// Key inputs are strings and plain option structs.
			panic(fmt.Sprintf("cache: encode key part %T: %v", p, err))
		}
	}
	return prefix + ":" + hex.EncodeToString(h.Sum(nil))
}
