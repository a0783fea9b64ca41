package auth

import (
	"errors"
	"fmt"
	"time"

	gojose "github.com/go-jose/go-jose/v4"
	gojwt "github.com/go-jose/go-jose/v4/jwt"
)

// Kind distinguishes short-lived access tokens from long-lived refresh
// tokens. A token of one kind is never accepted where the other is required.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// ErrInvalidToken covers every verification failure: malformed input, bad
// signature, expired token, or kind mismatch. Callers treat these uniformly.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the decoded contents of a bearer token.
type Claims struct {
	Subject   string
	Kind      Kind
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Pair bundles a freshly issued access and refresh token.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type kindClaims struct {
	TokenType string `json:"type"`
}

// Codec signs and verifies bearer tokens with a shared HS256 secret. It is
// stateless and pure; revocation state lives in the revocation store.
type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewCodec constructs a codec for the shared secret and validity windows.
func NewCodec(secret string, accessTTL, refreshTTL time.Duration) *Codec {
	return &Codec{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// AccessTTL reports the configured access token validity window.
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL reports the configured refresh token validity window.
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssuePair produces a signed access/refresh token pair for the subject.
func (c *Codec) IssuePair(subject string) (Pair, error) {
	access, err := c.sign(subject, KindAccess, c.accessTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := c.sign(subject, KindRefresh, c.refreshTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Verify validates signature, structure, expiry and kind. Any failure
// yields ErrInvalidToken; the reason is deliberately not distinguished.
func (c *Codec) Verify(raw string, expected Kind) (*Claims, error) {
	claims, err := c.decode(raw)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Kind != expected {
		return nil, ErrInvalidToken
	}
	if !claims.ExpiresAt.After(c.now()) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Decode validates signature and structure but not expiry or kind. The
// logout path uses it so that an already-expired token can still be
// blacklisted for the minimum retention window.
func (c *Codec) Decode(raw string) (*Claims, error) {
	claims, err := c.decode(raw)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (c *Codec) sign(subject string, kind Kind, ttl time.Duration) (string, error) {
	signer, err := gojose.NewSigner(
		gojose.SigningKey{Algorithm: gojose.HS256, Key: c.secret},
		(&gojose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("new signer: %w", err)
	}

	now := c.now().UTC()
	std := gojwt.Claims{
		Subject:  subject,
		IssuedAt: gojwt.NewNumericDate(now),
		Expiry:   gojwt.NewNumericDate(now.Add(ttl)),
	}

	token, err := gojwt.Signed(signer).Claims(std).Claims(kindClaims{TokenType: string(kind)}).Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize token: %w", err)
	}
	return token, nil
}

func (c *Codec) decode(raw string) (*Claims, error) {
	parsed, err := gojwt.ParseSigned(raw, []gojose.SignatureAlgorithm{gojose.HS256})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	var std gojwt.Claims
	var custom kindClaims
	if err := parsed.Claims(c.secret, &std, &custom); err != nil {
		return nil, fmt.Errorf("verify signature: %w", err)
	}
	if std.Subject == "" || std.Expiry == nil {
		return nil, fmt.Errorf("incomplete claims")
	}

	claims := &Claims{
		Subject:   std.Subject,
		Kind:      Kind(custom.TokenType),
		ExpiresAt: std.Expiry.Time(),
	}
	if std.IssuedAt != nil {
		claims.IssuedAt = std.IssuedAt.Time()
	}
	return claims, nil
}
