package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	savannah "github.com/Andrei15193/Savannah-sub000"
	"github.com/Andrei15193/Savannah-sub000/internal/app"
	"github.com/Andrei15193/Savannah-sub000/internal/bucket"
	"github.com/Andrei15193/Savannah-sub000/internal/config"
	"github.com/Andrei15193/Savannah-sub000/internal/logger"
	"os"
	"time"
)

const usage = `usage: savannah [-config file] <command> [arguments]

commands:
  create <collection>
  drop <collection>
  list
  put <collection> <partition key> <row key> <value>
  del <collection> <partition key> <row key>
  get <collection> <partition key> <row key>
  scan <collection> [-pk key] [-from row key] [-take n]
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := flag.NewFlagSet("savannah", flag.ContinueOnError)
	configPath := flags.String("config", "", "configuration file, ~/.savannah/savannah.conf by default")
	if err := flags.Parse(args); err != nil {
		return errUsage
	}
	if flags.NArg() == 0 {
		return errUsage
	}

	application, store, err := initialize(*configPath)
	if err != nil {
		return err
	}

	return application.Run(context.Background(), func(ctx context.Context) error {
		return execute(ctx, store, flags.Args(), os.Stdout)
	})
}

func initialize(configPath string) (*app.App, *savannah.Store, error) {
	if configPath == "" {
		path, err := config.DefaultPath()
		if err != nil {
			return nil, nil, err
		}
		configPath = path
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	}); err != nil {
		return nil, nil, err
	}

	hash, err := bucket.HashByName(cfg.Hash)
	if err != nil {
		return nil, nil, err
	}

	store, err := savannah.New(&savannah.Config{
		RootDir:     cfg.RootDir,
		Hash:        hash,
		ScanWorkers: cfg.ScanWorkers,
	})
	if err != nil {
		return nil, nil, err
	}

	application, err := app.CreateApp(&app.Config{
		ServiceName: "Savannah",
		StopTimeout: 5 * time.Second,
	}, store)
	if err != nil {
		return nil, nil, err
	}

	return application, store, nil
}
