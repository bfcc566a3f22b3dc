package main

import (
	"fmt"

	sqlite "github.com/connerohnesorge/sqlite-native-go"
)

type cmdVersion struct {
	Options sqlite.Options `group:"Open" namespace:"open" env-namespace:"OPEN"`
}

func (cmd *cmdVersion) Execute([]string) error {
	var ctx = startup()

	var opts = cmd.Options
	opts.Memory = true

	conn, err := sqlite.Open(ctx, ":memory:", opts)
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("sqlitectl %s\nsqlite %s\nsource %s\n", sqlite.Version, conn.LibVersion(), conn.SourceID())
	return nil
}
