package storage

import (
	"encoding/base64"
	"fmt"
)

// DefaultObfuscationKey is used when no key is configured.
const DefaultObfuscationKey = "scorelog:local-obfuscation:v1"

// Obfuscate XORs text with key and base64-encodes the result.
// Not encryption.
func Obfuscate(text, key string) string {
	return base64.StdEncoding.EncodeToString(xor([]byte(text), key))
}

// Deobfuscate reverses Obfuscate.
func Deobfuscate(encoded, key string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode obfuscated value: %w", err)
	}
	return string(xor(raw, key)), nil
}

func xor(data []byte, key string) []byte {
	if key == "" {
		key = DefaultObfuscationKey
	}
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ key[i%len(key)]
	}
	return out
}
