package integration

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/Additional-Code/sistemact/internal/entity"
)

// ExchangeCode trades an authorization code for a credential owned by the token's user_id.
func ExchangeCode(ctx context.Context, platform Platform, conf *oauth2.Config, client *http.Client, code string) (*entity.Credential, error) {
	if client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.Response != nil {
			return nil, &UpstreamError{Platform: platform, Op: "token exchange", Status: rerr.Response.StatusCode, Body: string(rerr.Body), Err: err}
		}
		return nil, &UpstreamError{Platform: platform, Op: "token exchange", Err: err}
	}

	accountID := extraString(tok, "user_id")
	if accountID == "" {
		return nil, &UpstreamError{Platform: platform, Op: "token exchange", Err: ErrMissingAccount}
	}

	return &entity.Credential{
		Platform:     string(platform),
		AccountID:    accountID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Scope:        extraString(tok, "scope"),
		ExpiresAt:    tok.Expiry,
		IssuedAt:     time.Now().UTC(),
	}, nil
}

func extraString(tok *oauth2.Token, key string) string {
	switch v := tok.Extra(key).(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}
