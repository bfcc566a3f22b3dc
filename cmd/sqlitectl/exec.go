package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const execLongDesc = `
Execute a script of zero or more semicolon-separated SQL statements against
a database. The script is read from --sql, or from --file, or from stdin if
neither is given. Rows returned by statements of the script are discarded.

With --transaction, the whole script runs within a single transaction which
is rolled back if any statement fails.
`

type cmdExec struct {
	DatabaseConfig
	SQL         string `long:"sql" description:"Script to execute"`
	File        string `long:"file" short:"f" description:"Path of a script file to execute"`
	Transaction bool   `long:"transaction" short:"t" description:"Run the script within a single transaction"`
}

func (cmd *cmdExec) Execute([]string) error {
	var ctx = startup()

	script, err := readScript(cmd.SQL, cmd.File)
	if err != nil {
		return err
	}

	var conn = cmd.open(ctx)
	defer conn.Close()

	if cmd.Transaction {
		err = conn.TransactionContext(ctx, func(context.Context) error { return conn.ExecScript(script) })
	} else {
		err = conn.ExecScript(script)
	}
	if err != nil {
		return err
	}

	total, err := conn.TotalChanges()
	if err != nil {
		return err
	}
	log.WithField("changes", total).Info("executed script")
	fmt.Printf("%d rows changed\n", total)
	return nil
}

// readScript returns |sql| if set, or else the content of |path|, or else stdin.
func readScript(sql, path string) (string, error) {
	if sql != "" {
		return sql, nil
	}
	var b []byte
	var err error

	if path != "" {
		b, err = ioutil.ReadFile(path)
	} else {
		b, err = ioutil.ReadAll(os.Stdin)
	}
	if err != nil {
		return "", errors.Wrap(err, "reading script")
	}
	return string(b), nil
}
