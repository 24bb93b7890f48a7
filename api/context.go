package api

import (
	"context"
	"errors"
)

type keyType string

const sessionIDKey keyType = "sessionID"

// ctxWithSessionID adds a guest session ID to the context
func ctxWithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// ctxGetSessionID retrieves a guest session ID from the context
func ctxGetSessionID(ctx context.Context) (string, error) {
	value := ctx.Value(sessionIDKey)
	if value == nil {
		return "", errors.New("session ID not found in context")
	}
	asString, ok := value.(string)
	if !ok {
		return "", errors.New("session ID is not of type `string`")
	}
	return asString, nil
}
