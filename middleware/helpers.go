package middleware

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v4"
)

const (
	jwtClaimUserID  = "user_id"
	jwtClaimIsAdmin = "is_admin"
)

// GetUserIDFromContext extracts the authenticated user's id from the claims
// Authenticate stored. JSON numbers decode as float64.
func GetUserIDFromContext(ctx context.Context) (int, error) {
	claims, ok := ctx.Value(claimsContextKey).(jwt.MapClaims)
	if !ok {
		return 0, errors.New("no authentication claims in context")
	}
	raw, ok := claims[jwtClaimUserID].(float64)
	if !ok {
		return 0, errors.New("token is missing a numeric user_id claim")
	}
	userID := int(raw)
	if userID <= 0 || raw != float64(userID) {
		return 0, errors.New("token carries an invalid user_id claim")
	}
	return userID, nil
}

// IsAdminFromContext reports whether the authenticated token carries the
// admin flag. Missing claims read as false.
func IsAdminFromContext(ctx context.Context) bool {
	claims, ok := ctx.Value(claimsContextKey).(jwt.MapClaims)
	if !ok {
		return false
	}
	isAdmin, _ := claims[jwtClaimIsAdmin].(bool)
	return isAdmin
}
