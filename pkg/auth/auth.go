// Package auth carries the caller identity supplied by the authentication
// gateway. The service trusts the X-User-* headers; token validation happens
// upstream.
package auth

import (
	"context"
)

const (
	XUserNameHeader = "X-User-Name"
	XUserRoleHeader = "X-User-Role"

	RoleAdmin   = "admin"
	RoleStaff   = "staff"
	RoleStudent = "student"
)

type ctxKey int

const (
	userNameKey ctxKey = iota
	userRoleKey
)

func SetAuthContext(ctx context.Context, userName, role string) context.Context {
	ctx = context.WithValue(ctx, userNameKey, userName)
	return context.WithValue(ctx, userRoleKey, role)
}

func UserName(ctx context.Context) string {
	name, _ := ctx.Value(userNameKey).(string)
	return name
}

func Role(ctx context.Context) string {
	role, _ := ctx.Value(userRoleKey).(string)
	return role
}

func IsAdmin(ctx context.Context) bool {
	return Role(ctx) == RoleAdmin
}

// IsStaff reports whether the caller may manage inventory and approve
// reservations. Admins qualify.
func IsStaff(ctx context.Context) bool {
	role := Role(ctx)
	return role == RoleStaff || role == RoleAdmin
}
