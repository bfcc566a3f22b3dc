package main

import (
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	sqlite "github.com/connerohnesorge/sqlite-native-go"
)

const exportLongDesc = `
Run a query and write its rows to a Parquet file. Column types are inferred
from the returned values: columns holding any text are written as strings,
and otherwise as doubles, 64-bit integers or byte arrays. NULLs are written
as missing optional values.
`

type cmdExport struct {
	DatabaseConfig
	SQL string `long:"sql" required:"true" description:"Query whose rows are exported"`
	Out string `long:"out" required:"true" description:"Path of the Parquet file to write"`
}

func (cmd *cmdExport) Execute(args []string) error {
	var ctx = startup()

	var conn = cmd.open(ctx)
	defer conn.Close()

	stmt, err := conn.Prepare(cmd.SQL)
	if err != nil {
		return err
	}
	defer stmt.Finalize()

	f, err := os.Create(cmd.Out)
	if err != nil {
		return errors.Wrap(err, "creating output file")
	}
	if err = sqlite.ExportParquet(f, stmt, textArgs(args)...); err != nil {
		_ = f.Close()
		_ = os.Remove(cmd.Out)
		return err
	}
	if err = f.Close(); err != nil {
		return errors.Wrap(err, "closing output file")
	}

	info, err := os.Stat(cmd.Out)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"path": cmd.Out,
		"size": humanize.IBytes(uint64(info.Size())),
	}).Info("exported query")
	return nil
}
