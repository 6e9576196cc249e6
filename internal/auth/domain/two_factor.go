package domain

import "time"

// TwoFactor holds the TOTP credential for a user. The store enforces at most
// one row per user; that uniqueness is what makes concurrent setup calls safe.
type TwoFactor struct {
	ID        string
	UserID    string
	SecretKey string // base32 TOTP seed, immutable once created
	Enabled   bool   // flips true exactly once, on first successful verify
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TwoFactorSetup is returned by the setup workflow. BackupCodes is populated
// only when the credential was created by this call; reuse returns an empty
// slice because the originals are stored hashed and cannot be re-shown.
type TwoFactorSetup struct {
	QR          string   `json:"qr"` // base64 PNG data URL of the provisioning QR
	OtpauthURL  string   `json:"otpauthUrl"`
	BackupCodes []string `json:"backupCodes"`
}
