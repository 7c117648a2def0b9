package vectorize

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns a hex-encoded SHA-256 digest over the UTF-8 bytes of
// the embedding model name, a NUL separator, and the text. Including the
// model in the digest domain means the same text embedded under two models
// yields two distinct fingerprints; the separator keeps (model, text) pairs
// unambiguous. Deterministic, no side effects.
func Fingerprint(text, model string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
