package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/michelvankessel/nedcloud-website/internal/models"
)

// ErrCipherFormat indicates a ciphertext that is not in the expected
// "ivHex:cipherHex" form. On a stored secret this means data corruption.
var ErrCipherFormat = errors.New("invalid encrypted secret format")

// EncryptSecret encrypts a TOTP secret for at-rest storage using
// AES-256-CBC. The AES key is derived by hashing the deployment-wide key
// material with SHA-256, so any length of key material yields a valid
// 32-byte key. Each call draws a fresh random IV, so encrypting the same
// secret twice produces different ciphertexts.
func EncryptSecret(secret, key string) (models.EncryptedSecret, error) {
	derived := sha256.Sum256([]byte(key))

	block, err := aes.NewCipher(derived[:])
	if err != nil {
		return "", fmt.Errorf("failed to create AES cipher: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("failed to generate IV: %w", err)
	}

	plaintext := pkcs7Pad([]byte(secret), aes.BlockSize)
	ciphertext := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, plaintext)

	serialized := hex.EncodeToString(iv) + ":" + hex.EncodeToString(ciphertext)
	return models.EncryptedSecret(serialized), nil
}

// DecryptSecret reverses EncryptSecret. The ciphertext carries its own IV,
// so no external IV storage is needed.
func DecryptSecret(encrypted models.EncryptedSecret, key string) (string, error) {
	ivHex, cipherHex, ok := strings.Cut(string(encrypted), ":")
	if !ok || ivHex == "" || cipherHex == "" {
		return "", ErrCipherFormat
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != aes.BlockSize {
		return "", ErrCipherFormat
	}

	ciphertext, err := hex.DecodeString(cipherHex)
	if err != nil || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", ErrCipherFormat
	}

	derived := sha256.Sum256([]byte(key))
	block, err := aes.NewCipher(derived[:])
	if err != nil {
		return "", fmt.Errorf("failed to create AES cipher: %w", err)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := pkcs7Unpad(plaintext, aes.BlockSize)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt secret: %w", err)
	}

	return string(unpadded), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padding)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padding)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("invalid padded length")
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize {
		return nil, errors.New("invalid padding")
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, errors.New("invalid padding")
		}
	}
	return data[:len(data)-padding], nil
}
