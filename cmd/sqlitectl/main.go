// sqlitectl is a tool for provisioning the native SQLite library and
// running statements against databases through it.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"

	sqlite "github.com/connerohnesorge/sqlite-native-go"
)

const iniFilename = "sqlitectl.ini"

// LogConfig configures handling of application log events.
type LogConfig struct {
	Level  string `long:"level" env:"LEVEL" default:"warn" choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error" choice:"fatal" description:"Logging level"`
	Format string `long:"format" env:"FORMAT" default:"text" choice:"json" choice:"text" choice:"color" description:"Logging output format"`
}

// DatabaseConfig is common configuration of commands opening a database.
type DatabaseConfig struct {
	Path    string         `long:"db" required:"true" description:"Path or file: URI of the SQLite database"`
	Options sqlite.Options `group:"Open" namespace:"open" env-namespace:"OPEN"`
}

var (
	baseCfg = new(struct {
		Log LogConfig `group:"Logging" namespace:"log" env-namespace:"LOG"`
	})
	parser = flags.NewParser(baseCfg, flags.Default)
)

// open opens the configured database. The returned Connection must be closed.
func (cfg *DatabaseConfig) open(ctx context.Context) *sqlite.Connection {
	conn, err := sqlite.Open(ctx, cfg.Path, cfg.Options)
	must(err, "failed to open database", "path", cfg.Path)

	log.WithFields(log.Fields{
		"path":    cfg.Path,
		"version": conn.LibVersion(),
		"id":      conn.ID(),
	}).Debug("opened database")

	return conn
}

// startup initializes logging and returns a Context cancelled on SIGINT or SIGTERM.
func startup() context.Context {
	initLog(baseCfg.Log)

	var ctx, cancel = context.WithCancel(context.Background())
	var signalCh = make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		<-signalCh
		cancel()
	}()
	return ctx
}

// initLog configures the logger.
func initLog(cfg LogConfig) {
	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else if cfg.Format == "text" {
		log.SetFormatter(&log.TextFormatter{})
	} else if cfg.Format == "color" {
		log.SetFormatter(&log.TextFormatter{ForceColors: true})
	}

	if lvl, err := log.ParseLevel(cfg.Level); err != nil {
		log.WithField("err", err).Fatal("unrecognized log level")
	} else {
		log.SetLevel(lvl)
	}
}

// must logs |msg| with |extra| as alternating field keys and values, and
// exits, if |err| is non-nil.
func must(err error, msg string, extra ...interface{}) {
	if err == nil {
		return
	}
	var fields = log.Fields{"err": err}
	for i := 0; i+1 < len(extra); i += 2 {
		fields[extra[i].(string)] = extra[i+1]
	}
	log.WithFields(fields).Fatal(msg)
}

func mustAddCmd(cmd *flags.Command, name, short, long string, cfg interface{}) *flags.Command {
	cmd, err := cmd.AddCommand(name, short, long, cfg)
	must(err, "failed to add command")
	return cmd
}

func main() {
	mustAddCmd(parser.Command, "fetch", "Provision the native SQLite library", fetchLongDesc, &cmdFetch{})
	mustAddCmd(parser.Command, "version", "Print the version of the loaded SQLite library", "", &cmdVersion{})
	mustAddCmd(parser.Command, "exec", "Execute a script of SQL statements", execLongDesc, &cmdExec{})
	mustAddCmd(parser.Command, "query", "Run a query and print its rows", queryLongDesc, &cmdQuery{})
	mustAddCmd(parser.Command, "export", "Export the rows of a query to a Parquet file", exportLongDesc, &cmdExport{})

	parseConfig()
}

// parseConfig parses an optional INI file from the working directory,
// followed by environment bindings and explicit flags.
func parseConfig() {
	var origOptions = parser.Options
	parser.Options |= flags.IgnoreUnknown

	if err := flags.NewIniParser(parser).ParseFile(iniFilename); err != nil && !os.IsNotExist(err) {
		must(err, "failed to parse config file", "file", iniFilename)
	}
	parser.Options = origOptions

	if _, err := parser.ParseArgs(os.Args[1:]); err != nil {
		if flagErr, ok := err.(*flags.Error); ok && flagErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
