package main

import (
	"github.com/trezcool/darasa/storage/database"
)

var migrateFunc = database.Migrate // mockable

func (cli *commandLine) migrate() error {
	if err := migrateFunc(cli.db); err != nil {
		return err
	}
	return database.EnsureRootUser(cli.usrRepo, cli.conf)
}
