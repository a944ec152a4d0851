package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/tobsdb/tobsdb/internal/catalog"
	"github.com/tobsdb/tobsdb/internal/cli"
	"github.com/tobsdb/tobsdb/internal/executor"
	"github.com/tobsdb/tobsdb/pkg"
)

func main() {
	cwd, _ := os.Getwd()

	statePath := flag.String("state", cwd+"/"+catalog.DefaultPath, "path to the persisted catalog snapshot")
	inMem := flag.Bool("m", false, "don't load or save a snapshot")
	debug := flag.Bool("debug", false, "enable debug-level logging")
	flag.Parse()

	if *debug {
		pkg.SetLogLevel(pkg.LogLevelDebug)
	}

	path := *statePath
	if *inMem {
		path = ""
	}

	var c *catalog.Catalog
	if path != "" {
		c = catalog.Load(path)
	} else {
		c = catalog.New()
	}

	e := executor.New(c, os.Stdout, path)

	scanner := cli.NewScanner(os.Stdin)
	for {
		cmd, ok := scanner.Next()
		if !ok {
			break
		}

		err := e.Execute(cmd)
		if errors.Is(err, executor.ErrExit) {
			os.Exit(0)
		}
		if err != nil {
			var execErr *executor.Error
			if errors.As(err, &execErr) && execErr.Kind == executor.KindIO {
				fmt.Fprintln(os.Stderr, "fatal:", execErr)
				os.Exit(1)
			}
		}
	}
}
