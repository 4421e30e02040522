package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrTenantMissing indicates the tenant identifier was not found in context.
	ErrTenantMissing = errors.New("tenant is required")
	// ErrTenantInvalid indicates the tenant identifier could not be parsed.
	ErrTenantInvalid = errors.New("tenant invalid")
)

// UUIDFrom returns the tenant identifier stored on ctx parsed as a UUID.
func UUIDFrom(ctx context.Context) (uuid.UUID, error) {
	id, ok := From(ctx)
	if !ok {
		return uuid.Nil, ErrTenantMissing
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrTenantInvalid, err)
	}
	return parsed, nil
}

// PrefixKey namespaces a cache key with the tenant identifier.
func PrefixKey(tenantID, key string) string {
	if tenantID == "" {
		return key
	}
	return tenantID + ":" + key
}
