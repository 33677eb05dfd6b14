package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Credential stores the OAuth grant of one connected seller or store account.
type Credential struct {
	bun.BaseModel `bun:"table:platform_credentials"`

	ID           int64     `bun:",pk,autoincrement"`
	Platform     string    `bun:"platform,notnull,unique:platform_account"`
	AccountID    string    `bun:"account_id,notnull,unique:platform_account"`
	AccessToken  string    `bun:"access_token,notnull"`
	RefreshToken string    `bun:"refresh_token"`
	TokenType    string    `bun:"token_type"`
	Scope        string    `bun:"scope"`
	ExpiresAt    time.Time `bun:"expires_at,nullzero"`
	IssuedAt     time.Time `bun:"issued_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero"`
}
