package main

import (
	"context"

	"github.com/trezcool/tarpaulin/storage/database"
)

var migrateFunc = database.Migrate // mockable

func (cli *commandLine) migrate(ctx context.Context) error {
	return migrateFunc(ctx, cli.db)
}
