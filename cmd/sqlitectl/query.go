package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"

	sqlite "github.com/connerohnesorge/sqlite-native-go"
)

const queryLongDesc = `
Run a single query against a database and print its rows, as a table or as
one JSON object per row. Positional arguments are bound in order to the
parameters of the query, as text.

Examples:

# Print all rows of a table.
sqlitectl query --db app.db --sql 'SELECT * FROM users'

# Bind a parameter.
sqlitectl query --db app.db --sql 'SELECT * FROM users WHERE name = ?' alice
`

type cmdQuery struct {
	DatabaseConfig
	SQL    string `long:"sql" required:"true" description:"Query to run"`
	Format string `long:"format" short:"o" choice:"table" choice:"json" default:"table" description:"Output format"`
}

func (cmd *cmdQuery) Execute(args []string) error {
	var ctx = startup()

	var conn = cmd.open(ctx)
	defer conn.Close()

	stmt, err := conn.Prepare(cmd.SQL)
	if err != nil {
		return err
	}
	defer stmt.Finalize()

	columns, err := stmt.ColumnNames()
	if err != nil {
		return err
	}
	rows, err := stmt.All(textArgs(args)...)
	if err != nil {
		return err
	}

	switch cmd.Format {
	case "table":
		return outputTable(os.Stdout, columns, rows)
	case "json":
		return outputJSON(os.Stdout, rows)
	}
	return nil
}

func textArgs(args []string) []sqlite.BindValue {
	var out = make([]sqlite.BindValue, len(args))
	for i, arg := range args {
		out[i] = sqlite.Text(arg)
	}
	return out
}

func outputTable(w io.Writer, columns []string, rows []sqlite.Row) error {
	var table = tablewriter.NewWriter(w)
	table.Header(columns)

	for _, row := range rows {
		var cells = make([]string, len(row.Values))
		for i, v := range row.Values {
			cells[i] = sqlite.FormatValue(v)
		}
		if err := table.Append(cells); err != nil {
			return errors.Wrap(err, "appending table row")
		}
	}
	return errors.Wrap(table.Render(), "rendering table")
}

func outputJSON(w io.Writer, rows []sqlite.Row) error {
	var enc = json.NewEncoder(w)
	for _, row := range rows {
		var obj = make(map[string]interface{}, len(row.Columns))
		for i, col := range row.Columns {
			obj[col] = sqlite.NativeValue(row.Values[i])
		}
		if err := enc.Encode(obj); err != nil {
			return err
		}
	}
	return nil
}
