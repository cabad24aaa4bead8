package observability

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	operationIDCtxKey contextKey = "operation_id"
	ownerIDCtxKey     contextKey = "owner_id"
)

// Standard attribute keys used in logs.
const (
	OperationIDKey = "operation_id"
	OwnerIDKey     = "owner_id"
)

// WithOperationID adds an operation ID to the context. If id is empty, a new
// UUID is generated.
func WithOperationID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.New().String()
	}
	return context.WithValue(ctx, operationIDCtxKey, id)
}

// OperationIDFromContext extracts the operation ID from context.
func OperationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(operationIDCtxKey).(string); ok {
		return id
	}
	return ""
}

// WithOwnerID adds the owning user's ID to the context.
func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerIDCtxKey, ownerID)
}

// OwnerIDFromContext extracts the owner ID from context.
func OwnerIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(ownerIDCtxKey).(string); ok {
		return id
	}
	return ""
}
