package ssotoken

import "crypto/sha256"

const (
	encryptionKeySize = 16
	macKeySize        = 16
)

// KeyMaterial holds the two keys derived from the shared secret: an
// AES-128 encryption key and an HMAC key. Both sides of the bridge derive
// identical material from the same secret; it is never persisted or sent
// over the wire.
type KeyMaterial struct {
	Encryption []byte
	MAC        []byte
}

// DeriveKeys derives key material from the shared secret by hashing it with
// SHA-256 and splitting the digest into two contiguous halves: the first 16
// bytes become the encryption key, the last 16 the MAC key. Derivation is
// deterministic; the same secret always yields the same pair.
//
// An empty secret is a configuration error and must abort startup.
func DeriveKeys(secret string) (KeyMaterial, error) {
	if secret == "" {
		return KeyMaterial{}, newError(KindConfiguration, "shared secret is required")
	}
	sum := sha256.Sum256([]byte(secret))
	return KeyMaterial{
		Encryption: sum[:encryptionKeySize],
		MAC:        sum[encryptionKeySize : encryptionKeySize+macKeySize],
	}, nil
}
