package archive

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLen      = 16
	nonceLen     = 16
	tagLen       = 16
	pbkdf2Rounds = 100000
)

// Decrypt opens an AES-256-GCM bundle.
// Layout: salt(16) + nonce(16) + tag(16) + ciphertext.
func Decrypt(data []byte, password string) ([]byte, error) {
	if len(data) < saltLen+nonceLen+tagLen {
		return nil, fmt.Errorf("bundle too small (%d bytes)", len(data))
	}

	salt := data[:saltLen]
	nonce := data[saltLen : saltLen+nonceLen]
	tag := data[saltLen+nonceLen : saltLen+nonceLen+tagLen]
	ciphertext := data[saltLen+nonceLen+tagLen:]

	key := pbkdf2.Key([]byte(password), salt, pbkdf2Rounds, 32, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, nonceLen)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}

	// GCM wants ciphertext and tag contiguous.
	sealed := make([]byte, 0, len(ciphertext)+tagLen)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plain, nil
}
