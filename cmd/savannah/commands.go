package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	savannah "github.com/Andrei15193/Savannah-sub000"
	"io"
	"time"
)

var errUsage = errors.New("invalid arguments")

// entry is the record shape the command line tool reads and writes.
type entry struct {
	PartitionKey string
	RowKey       string
	Timestamp    time.Time
	Value        string
}

func execute(ctx context.Context, store *savannah.Store, args []string, out io.Writer) error {
	command, args := args[0], args[1:]

	switch command {
	case "list":
		if len(args) != 0 {
			return errUsage
		}
		names, err := store.ListCollections(ctx)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(out, name)
		}
		return nil
	case "create":
		if len(args) != 1 {
			return errUsage
		}
		return store.CreateCollection(ctx, args[0])
	case "drop":
		if len(args) != 1 {
			return errUsage
		}
		return store.DeleteCollection(ctx, args[0])
	}

	if len(args) == 0 {
		return errUsage
	}
	entries, err := savannah.Open[entry](store, args[0])
	if err != nil {
		return err
	}
	args = args[1:]

	switch command {
	case "put":
		if len(args) != 3 {
			return errUsage
		}
		return entries.Insert(ctx, entry{PartitionKey: args[0], RowKey: args[1], Value: args[2]})
	case "del":
		if len(args) != 2 {
			return errUsage
		}
		return entries.Delete(ctx, entry{PartitionKey: args[0], RowKey: args[1]})
	case "get":
		if len(args) != 2 {
			return errUsage
		}
		e, err := entries.Get(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		printEntry(out, e)
		return nil
	case "scan":
		q, err := scanQuery(args)
		if err != nil {
			return err
		}
		found, err := entries.Query(ctx, q)
		if err != nil {
			return err
		}
		for _, e := range found {
			printEntry(out, e)
		}
		return nil
	}
	return errUsage
}

func scanQuery(args []string) (*savannah.Query, error) {
	flags := flag.NewFlagSet("scan", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	pk := flags.String("pk", "", "partition key")
	from := flags.String("from", "", "smallest row key")
	take := flags.Int("take", 0, "maximum number of entries")
	if err := flags.Parse(args); err != nil || flags.NArg() != 0 {
		return nil, errUsage
	}

	q := &savannah.Query{Take: *take}
	if *pk != "" {
		q.Filter = savannah.Equal("PartitionKey", *pk)
	}
	if *from != "" {
		rows := savannah.GreaterThanOrEqual("RowKey", *from)
		if q.Filter == nil {
			q.Filter = rows
		} else {
			q.Filter = savannah.And(q.Filter, rows)
		}
	}
	return q, nil
}

func printEntry(out io.Writer, e *entry) {
	fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", e.PartitionKey, e.RowKey, e.Timestamp.Format(time.RFC3339Nano), e.Value)
}
