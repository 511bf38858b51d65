package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

const backupCodeBytes = 4 // 8 hex characters per code

// GenerateBackupCodes returns count single-use recovery codes, each 8
// uppercase hex characters drawn from crypto/rand.
func GenerateBackupCodes(count int) ([]string, error) {
	codes := make([]string, count)
	for i := range codes {
		raw := make([]byte, backupCodeBytes)
		if _, err := rand.Read(raw); err != nil {
			return nil, fmt.Errorf("failed to generate backup code: %w", err)
		}
		codes[i] = strings.ToUpper(hex.EncodeToString(raw))
	}
	return codes, nil
}

// HashBackupCodes applies a one-way SHA-256 digest to each code
// independently, preserving order for storage. Plaintext codes are never
// reconstructible from the stored hashes.
func HashBackupCodes(codes []string) []string {
	hashes := make([]string, len(codes))
	for i, code := range codes {
		hashes[i] = hashBackupCode(code)
	}
	return hashes
}

// ConsumeBackupCode checks the provided code (case-insensitive) against
// the stored hashes. On a match it returns true and a copy of the list
// with exactly that entry removed, the rest in original order. On a miss
// it returns false and the original list unchanged. The caller is
// responsible for persisting the shrunken list so the code cannot be
// replayed.
func ConsumeBackupCode(provided string, hashes []string) (bool, []string) {
	target := hashBackupCode(strings.ToUpper(strings.TrimSpace(provided)))

	match := -1
	for i, h := range hashes {
		if subtle.ConstantTimeCompare([]byte(h), []byte(target)) == 1 {
			match = i
			break
		}
	}
	if match == -1 {
		return false, hashes
	}

	remaining := make([]string, 0, len(hashes)-1)
	remaining = append(remaining, hashes[:match]...)
	remaining = append(remaining, hashes[match+1:]...)
	return true, remaining
}

func hashBackupCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
