package models

import (
	"time"
)

// Roles form a closed set; there is no user-facing registration.
const (
	RoleAdmin  = "ADMIN"
	RoleEditor = "EDITOR"
)

// EncryptedSecret is an AES-encrypted TOTP secret serialized as
// "ivHex:cipherHex". The dedicated type keeps encrypted and plaintext
// secrets apart at compile time instead of inferring the format from
// string contents.
type EncryptedSecret string

type User struct {
	ID           string
	Email        string
	PasswordHash string // empty when the account has no password set
	Name         string
	Role         string

	TwoFactorEnabled     bool
	TwoFactorSecret      *EncryptedSecret // present iff TwoFactorEnabled
	TwoFactorBackupCodes []string         // SHA-256 hex hashes of unused recovery codes
	TwoFactorVerifiedAt  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPassword reports whether password login is possible for this account.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
