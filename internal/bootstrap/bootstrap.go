// Package bootstrap creates the application's database account on first
// startup: one user holding readWrite on one database.
package bootstrap

import (
	"context"
	"log/slog"
)

// Admin is a privileged session able to create accounts. The caller owns it;
// Run never opens or closes one.
type Admin interface {
	CreateUser(ctx context.Context, database string, grant UserGrant) error
}

// Run selects s.Database and issues exactly one create-user call for the
// application account. Any error is returned as a *Failure without retry.
func Run(ctx context.Context, admin Admin, s Settings) error {
	grant := NewGrant(s)

	slog.InfoContext(ctx, "creating application user",
		"database", s.Database,
		"user", grant.User,
		"role", RoleReadWrite,
	)

	if err := admin.CreateUser(ctx, s.Database, grant); err != nil {
		return newFailure(s, err)
	}

	slog.InfoContext(ctx, "application user created", "database", s.Database, "user", grant.User)
	return nil
}
