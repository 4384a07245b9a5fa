package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashKey builds "prefix:sha256(json(parts))". Parts must be JSON-encodable;
// struct fields are hashed by their JSON tags so field order is fixed.
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes the SHA-256 of data as 64 hex characters. Trace files are
// identified by the Hash of their raw (still compressed) bytes.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
