package types

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextIdentity(t *testing.T) {
	ctx := context.Background()

	_, ok := UserID(ctx)
	assert.False(t, ok)

	ctx = WithUserID(ctx, "42")
	ctx = WithUserRole(ctx, RoleAdmin)

	id, ok := UserID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "42", id)

	role, ok := UserRole(ctx)
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, role)
	assert.True(t, IsAdmin(ctx))
}

func TestIsAdmin_NonAdmin(t *testing.T) {
	ctx := WithUserRole(context.Background(), RoleUser)
	assert.False(t, IsAdmin(ctx))

	assert.False(t, IsAdmin(context.Background()))
}

func TestRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-abc")
	id, ok := RequestID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "req-abc", id)
}
