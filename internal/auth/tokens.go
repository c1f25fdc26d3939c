package auth

import (
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/shelfwise/catalog-server/internal/id"
)

const (
	tokenIssuer   = "shelfwise-catalog"
	tokenAudience = "shelfwise-admin"

	claimUserID = "user_id"
	claimRoot   = "is_root"
)

// ErrInvalidToken is returned for tokens that fail decryption or validation.
var ErrInvalidToken = errors.New("invalid token")

// TokenService handles PASETO token generation and verification.
type TokenService struct {
	symmetricKey        paseto.V4SymmetricKey
	accessTokenDuration time.Duration
}

// NewTokenService creates a token service from a 32-byte key.
func NewTokenService(key []byte, accessDuration time.Duration) (*TokenService, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d bytes, got %d", keyLength, len(key))
	}
	symmetricKey, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}
	return &TokenService{
		symmetricKey:        symmetricKey,
		accessTokenDuration: accessDuration,
	}, nil
}

// GenerateAccessToken creates a v4.local token naming userID as the acting user.
func (s *TokenService) GenerateAccessToken(userID string, root bool) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(userID)
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(s.accessTokenDuration))

	tokenID, err := id.Generate("token")
	if err != nil {
		return "", fmt.Errorf("generate token ID: %w", err)
	}
	token.SetJti(tokenID)

	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = token.Set(claimUserID, userID)
	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = token.Set(claimRoot, root)

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// VerifyAccessToken decrypts and validates a token and returns its identity.
func (s *TokenService) VerifyAccessToken(tokenString string) (*Identity, error) {
	parser := paseto.NewParser()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.NotExpired())
	parser.AddRule(paseto.ValidAt(time.Now()))

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := token.GetString(claimUserID)
	if err != nil || userID == "" {
		return nil, fmt.Errorf("%w: missing user", ErrInvalidToken)
	}
	var root bool
	if err := token.Get(claimRoot, &root); err != nil {
		root = false
	}
	identity := &Identity{UserID: userID, Root: root}
	identity.TokenID, _ = token.GetJti()
	identity.ExpiresAt, _ = token.GetExpiration()
	return identity, nil
}

// AccessTokenDuration returns the configured access token lifetime.
func (s *TokenService) AccessTokenDuration() time.Duration {
	return s.accessTokenDuration
}
