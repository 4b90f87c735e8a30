package model

// VerificationToken is keyed by (identifier, token). The identifier is the
// raw email for signup verification, or "reset:<email>" for password reset.
type VerificationToken struct {
	Identifier string `json:"identifier"`
	Token      string `json:"token"`
	ExpiresAt  int64  `json:"expires_at"`
}
