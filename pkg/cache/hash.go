package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// keyVersion is bumped whenever cached layouts or artifacts change shape,
// so entries written by older builds are never read back.
const keyVersion = "v1"

// hashKey returns "stage:version:sha256(parts)".
func hashKey(stage string, parts ...any) string {
	data, err := json.Marshal(parts)
	if err != nil {
		// NaN and Inf dimensions cannot be encoded as JSON.
		data = fmt.Appendf(nil, "%#v", parts)
	}
	return stage + ":" + keyVersion + ":" + Hash(data)
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
