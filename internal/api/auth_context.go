package api

import (
	"context"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfwise/catalog-server/internal/auth"
	domainerrors "github.com/shelfwise/catalog-server/internal/errors"
)

const bearerPrefix = "Bearer "

// authenticateRequest verifies the bearer token and returns the acting identity.
func (s *Server) authenticateRequest(_ context.Context, header string) (*auth.Identity, error) {
	if header == "" {
		return nil, huma.Error401Unauthorized("Authentication required")
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return nil, huma.Error401Unauthorized("Invalid authorization header format")
	}

	identity, err := s.tokens.VerifyAccessToken(strings.TrimSpace(header[len(bearerPrefix):]))
	if err != nil {
		return nil, huma.Error401Unauthorized("Invalid or expired token")
	}
	return identity, nil
}

// requireActor authenticates the request and checks that the caller may act
// on userID's catalog.
func (s *Server) requireActor(ctx context.Context, header, userID string) (*auth.Identity, error) {
	identity, err := s.authenticateRequest(ctx, header)
	if err != nil {
		return nil, err
	}
	if !identity.CanActFor(userID) {
		return nil, toAPIError(domainerrors.Forbidden("cannot act on another user's catalog"))
	}
	return identity, nil
}

// requireRoot authenticates the request and checks for root.
func (s *Server) requireRoot(ctx context.Context, header string) (*auth.Identity, error) {
	identity, err := s.authenticateRequest(ctx, header)
	if err != nil {
		return nil, err
	}
	if !identity.Root {
		return nil, toAPIError(domainerrors.Forbidden("root access required"))
	}
	return identity, nil
}

// validate runs struct validation on a request body.
func (s *Server) validate(body any) error {
	return toAPIError(s.validator.Validate(body))
}
