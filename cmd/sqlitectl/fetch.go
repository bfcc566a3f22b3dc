package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/connerohnesorge/sqlite-native-go/internal/binary"
)

const fetchLongDesc = `
Provision the native SQLite library of the current platform into the local
cache, and print its path and size.

The library is copied from a bundle directory if one holds it, or otherwise
downloaded from the configured release URL. A library already present in
the cache is used as-is.
`

type cmdFetch struct {
	Library string        `long:"lib" description:"Explicit library path. When set, provisioning is skipped and the path is verified only"`
	Binary  binary.Config `group:"Binary" namespace:"binary" env-namespace:"SQLITE_NATIVE"`
}

func (cmd *cmdFetch) Execute([]string) error {
	var ctx = startup()
	var p = binary.New(cmd.Binary)

	path, err := p.Fetch(ctx, cmd.Library)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrap(err, "inspecting provisioned library")
	}
	fmt.Printf("%s\t%s\t%s\n", path, p.Platform().OS+"/"+p.Platform().Arch, humanize.IBytes(uint64(info.Size())))
	return nil
}
