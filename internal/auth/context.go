package auth

import (
	"context"

	"github.com/debemdeboas/spawnwrite/internal/model"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	ContextKeyUserID ContextKey = "userID"
	ContextKeyToken  ContextKey = "sessionToken"
)

func ContextWithUserID(ctx context.Context, userID model.UserID) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}

func UserIDFromContext(ctx context.Context) (model.UserID, bool) {
	userID, ok := ctx.Value(ContextKeyUserID).(model.UserID)
	return userID, ok
}

// ContextWithToken keeps the raw session token so sign-out can revoke it.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ContextKeyToken, token)
}

func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(ContextKeyToken).(string)
	return token, ok
}
