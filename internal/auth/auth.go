package auth

import (
	"context"
)

type ctxkey string

const (
	userkey ctxkey = "autheduser"
)

// AuthedUser is the identity extracted from a validated JWT. PrepWise user
// IDs are opaque strings minted by the auth provider.
type AuthedUser struct {
	UserID   string
	Username string
}

func StoreUserInContext(ctx context.Context, userID, username string) context.Context {
	ctx = context.WithValue(ctx, userkey, &AuthedUser{
		UserID:   userID,
		Username: username,
	})
	return ctx
}

func UserFromContext(ctx context.Context) *AuthedUser {
	au, ok := ctx.Value(userkey).(*AuthedUser)
	if ok {
		return au
	}
	return nil
}
