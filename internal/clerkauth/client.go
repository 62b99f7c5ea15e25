// Package clerkauth はClerkのセッショントークン検証と組織メンバーシップ照会を提供する。
package clerkauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/clerk/clerk-sdk-go/v2/user"
)

// ErrInvalidToken はセッショントークンが無効な場合に返される。
var ErrInvalidToken = errors.New("invalid session token")

// membershipPageSize はメンバーシップ一覧を取得する際の1ページの件数。
const membershipPageSize = 100

// Client はClerk Backend APIのラッパー。
// middleware.TokenVerifier と middleware.MembershipChecker を満たす。
type Client struct {
	verify      func(ctx context.Context, token string) (string, error)
	memberships func(ctx context.Context, clerkUserID string) ([]string, error)

	mu   sync.Mutex
	jwks map[string]*clerk.JSONWebKey
}

// New はシークレットキーを設定したClientを生成する。
func New(secretKey string) *Client {
	clerk.SetKey(secretKey)
	c := &Client{jwks: make(map[string]*clerk.JSONWebKey)}
	c.verify = c.verifyWithClerk
	c.memberships = listMembershipsWithClerk
	return c
}

// VerifyToken はセッショントークンを検証し、ClerkのユーザーIDを返す。
func (c *Client) VerifyToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	subject, err := c.verify(ctx, token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if subject == "" {
		return "", ErrInvalidToken
	}
	return subject, nil
}

// IsMember はユーザーが指定組織のメンバーかどうかを返す。
func (c *Client) IsMember(ctx context.Context, clerkUserID, organizationID string) (bool, error) {
	orgIDs, err := c.memberships(ctx, clerkUserID)
	if err != nil {
		return false, fmt.Errorf("failed to list organization memberships: %w", err)
	}
	for _, id := range orgIDs {
		if id == organizationID {
			return true, nil
		}
	}
	return false, nil
}

// verifyWithClerk はJWKをキーIDごとにキャッシュしながらトークンを検証する。
func (c *Client) verifyWithClerk(ctx context.Context, token string) (string, error) {
	unverified, err := jwt.Decode(ctx, &jwt.DecodeParams{Token: token})
	if err != nil {
		return "", err
	}

	jwk, err := c.jsonWebKey(ctx, unverified.KeyID)
	if err != nil {
		return "", err
	}

	claims, err := jwt.Verify(ctx, &jwt.VerifyParams{Token: token, JWK: jwk})
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (c *Client) jsonWebKey(ctx context.Context, keyID string) (*clerk.JSONWebKey, error) {
	c.mu.Lock()
	jwk, ok := c.jwks[keyID]
	c.mu.Unlock()
	if ok {
		return jwk, nil
	}

	jwk, err := jwt.GetJSONWebKey(ctx, &jwt.GetJSONWebKeyParams{KeyID: keyID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWK: %w", err)
	}
	slog.Info("ClerkのJWKを取得しました", slog.String("key_id", keyID))

	c.mu.Lock()
	c.jwks[keyID] = jwk
	c.mu.Unlock()
	return jwk, nil
}

func listMembershipsWithClerk(ctx context.Context, clerkUserID string) ([]string, error) {
	var orgIDs []string
	for offset := int64(0); ; offset += membershipPageSize {
		params := &user.ListOrganizationMembershipsParams{}
		params.Limit = clerk.Int64(membershipPageSize)
		params.Offset = clerk.Int64(offset)

		list, err := user.ListOrganizationMemberships(ctx, clerkUserID, params)
		if err != nil {
			return nil, err
		}
		for _, m := range list.OrganizationMemberships {
			if m.Organization != nil {
				orgIDs = append(orgIDs, m.Organization.ID)
			}
		}
		if len(list.OrganizationMemberships) < membershipPageSize || int64(len(orgIDs)) >= list.TotalCount {
			return orgIDs, nil
		}
	}
}
