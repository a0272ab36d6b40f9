package ssotoken

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"io"
)

const (
	ivLength  = aes.BlockSize
	tagLength = sha256.Size

	// minTokenLength is the smallest byte layout Open accepts: an IV plus
	// a MAC tag. Anything shorter cannot be split into its regions.
	minTokenLength = ivLength + tagLength
)

// seal encrypts plaintext and returns the wire layout IV || ciphertext || tag.
// The IV is fresh random bytes per call; the tag is HMAC-SHA256 over the
// protected region (IV and ciphertext) under the MAC key.
func seal(plaintext []byte, keys KeyMaterial, random io.Reader) ([]byte, error) {
	block, err := aes.NewCipher(keys.Encryption)
	if err != nil {
		return nil, wrapError(err, KindConfiguration, "create cipher")
	}

	iv := make([]byte, ivLength)
	if _, err := io.ReadFull(random, iv); err != nil {
		return nil, wrapError(err, KindConfiguration, "generate iv")
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	protected := make([]byte, ivLength+len(padded))
	copy(protected, iv)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(protected[ivLength:], padded)

	mac := hmac.New(sha256.New, keys.MAC)
	mac.Write(protected)
	return mac.Sum(protected), nil
}

// open authenticates and decrypts a token produced by seal. The MAC is
// verified with a constant-time compare before any decryption is attempted;
// a mismatch rejects the token outright so padding faults are never
// observable to an attacker.
func open(token []byte, keys KeyMaterial) ([]byte, error) {
	if len(token) < minTokenLength {
		return nil, newError(KindMalformedToken, "token shorter than iv and tag")
	}

	protected := token[:len(token)-tagLength]
	receivedTag := token[len(token)-tagLength:]

	mac := hmac.New(sha256.New, keys.MAC)
	mac.Write(protected)
	if !hmac.Equal(receivedTag, mac.Sum(nil)) {
		return nil, newError(KindAuthenticationFailure, "signature mismatch")
	}

	ciphertext := protected[ivLength:]
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, newError(KindMalformedToken, "ciphertext is not block aligned")
	}

	block, err := aes.NewCipher(keys.Encryption)
	if err != nil {
		return nil, wrapError(err, KindConfiguration, "create cipher")
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, protected[:ivLength]).CryptBlocks(plaintext, ciphertext)

	unpadded, err := pkcs7Unpad(plaintext, aes.BlockSize)
	if err != nil {
		// Should not occur once the MAC has passed, but a broken issuer
		// must surface as a rejection rather than a panic.
		return nil, wrapError(err, KindMalformedToken, "remove padding")
	}
	return unpadded, nil
}

// pkcs7Pad appends PKCS#7 padding up to the next block boundary. A full
// block of padding is added when the input is already aligned.
func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+n)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

// pkcs7Unpad strips PKCS#7 padding, validating every padding byte.
func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("input is not block aligned")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errors.New("invalid padding length")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.New("inconsistent padding bytes")
		}
	}
	return data[:len(data)-n], nil
}
