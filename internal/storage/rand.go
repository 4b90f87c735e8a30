package storage

import (
	"crypto/rand"
	"encoding/hex"
)

func randomSuffix() string {
	buf := make([]byte, 6)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
