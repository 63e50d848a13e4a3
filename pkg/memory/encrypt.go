package memory

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/neuronos/neuronos/pkg/neuronerr"
)

// Encryptor provides optional AES-256-GCM at-rest encryption for
// Archival entries, per SPEC_FULL.md's DOMAIN STACK wiring of
// golang.org/x/crypto. A single passphrase is stretched into a 32-byte
// AES key with HKDF-SHA256 rather than used directly, so operators can
// pass an arbitrary-length secret.
type Encryptor struct {
	aead cipher.AEAD
}

// NewEncryptor derives an AES-256-GCM AEAD from passphrase and salt via
// HKDF-SHA256. salt should be constant for a given store (e.g. derived
// from the data directory) so the same passphrase always yields the
// same key.
func NewEncryptor(passphrase, salt []byte) (*Encryptor, error) {
	kdf := hkdf.New(sha256.New, passphrase, salt, []byte("neuronos-archival-memory"))
	key := make([]byte, 32)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, neuronerr.Wrap(neuronerr.KindEngineError, "derive archival encryption key", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, neuronerr.Wrap(neuronerr.KindEngineError, "init aes cipher", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, neuronerr.Wrap(neuronerr.KindEngineError, "init gcm", err)
	}
	return &Encryptor{aead: aead}, nil
}

// Encrypt seals plaintext, prefixing the result with a random nonce.
func (e *Encryptor) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, neuronerr.Wrap(neuronerr.KindEngineError, "generate nonce", err)
	}
	return e.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens ciphertext produced by Encrypt.
func (e *Encryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	n := e.aead.NonceSize()
	if len(ciphertext) < n {
		return nil, neuronerr.New(neuronerr.KindInvalidArgument, "archival ciphertext too short")
	}
	nonce, body := ciphertext[:n], ciphertext[n:]
	plain, err := e.aead.Open(nil, nonce, body, nil)
	if err != nil {
		return nil, neuronerr.Wrap(neuronerr.KindInvalidArgument, "decrypt archival entry", err)
	}
	return plain, nil
}
