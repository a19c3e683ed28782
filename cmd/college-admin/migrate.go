package main

import (
	"context"

	"github.com/noah-isme/college-admin-api/migrations"
	"github.com/noah-isme/college-admin-api/pkg/database"
)

var gooseRunFunc = database.Migrate // mockable

func (cli *commandLine) migrate(ctx context.Context, args []string) error {
	return gooseRunFunc(ctx, cli.db, migrations.FS, args[0], args[1:]...)
}
