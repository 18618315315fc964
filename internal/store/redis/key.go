package redis

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Key builds a cache key from a prefix and the 64-bit xxhash of payload,
// e.g. "ta:analyze:9f3a0c1d2b4e5f60".
func Key(prefix string, payload []byte) string {
	return prefix + ":" + strconv.FormatUint(xxhash.Sum64(payload), 16)
}

// KeyFor JSON-encodes v and returns Key(prefix, encoded).
func KeyFor(prefix string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("cache key: %w", err)
	}
	return Key(prefix, data), nil
}
