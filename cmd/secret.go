package cmd

import (
	"crypto/rand"
	"encoding/hex"
)

// randomSecret returns a fresh 256 bits token secret.
func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
