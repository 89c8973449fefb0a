package api

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

const (
	ctxRequestIdKey ctxKey = "REQUEST_ID"
	ctxIdentityKey  ctxKey = "IDENTITY"
)

func ctxWithRequestId(ctx context.Context, requestId uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxRequestIdKey, requestId)
}

func getRequestIdFromCtx(ctx context.Context) uuid.UUID {
	return ctx.Value(ctxRequestIdKey).(uuid.UUID)
}

func ctxWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, ctxIdentityKey, identity)
}

func getIdentityFromCtx(ctx context.Context) Identity {
	return ctx.Value(ctxIdentityKey).(Identity)
}
