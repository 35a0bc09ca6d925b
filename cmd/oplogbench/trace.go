package main

import (
	"context"
	"io"
	"strings"

	"github.com/oplog-project/oplog/internal/cli"
	"github.com/oplog-project/oplog/pkg/oplog"
	"github.com/oplog-project/oplog/pkg/oplog/host"
	"github.com/oplog-project/oplog/pkg/oplog/tsclog"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"
)

// TraceCmd opens an interactive REPL over a single tsclog LoggedObject, so
// a user can push named operations from the prompt and watch the order
// they run in once synchronized — useful for building intuition about the
// merge order without writing a Go program.
func TraceCmd() *cli.Command {
	fs := flag.NewFlagSet("trace", flag.ContinueOnError)
	numCPU := fs.IntP("cpus", "c", 4, "Number of simulated CPUs")

	return &cli.Command{
		Flags: fs,
		Usage: "trace [flags]",
		Short: "Interactively push operations and watch a synchronize apply them",
		Long: "Commands:\n" +
			"  push <name>   push a named operation that prints its name when applied\n" +
			"  sync          synchronize and print the order operations ran in\n" +
			"  quit          exit",
		Exec: func(_ context.Context, o *cli.IO, _ []string) error {
			return runTrace(o, *numCPU)
		},
	}
}

func runTrace(o *cli.IO, numCPU int) error {
	h := host.NewSimulated(numCPU)
	cache := oplog.NewCache[tsclog.Logger](h, 0)
	obj := tsclog.NewObject(h, cache)

	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(s string) (completions []string) {
		for _, c := range []string{"push ", "sync", "quit"} {
			if strings.HasPrefix(c, s) {
				completions = append(completions, c)
			}
		}

		return completions
	})

	for {
		input, err := line.Prompt("oplogbench trace> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				return nil
			}

			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		line.AppendHistory(input)

		fields := strings.Fields(input)

		switch fields[0] {
		case "push":
			if len(fields) < 2 {
				o.ErrPrintln("usage: push <name>")
				continue
			}

			name := fields[1]
			obj.Push(tsclog.FuncOp{
				Name: name,
				Fn:   func() { o.Printf("applied: %s\n", name) },
			})
		case "sync":
			guard := obj.Synchronize()
			guard.Release()
		case "quit", "exit", "q":
			return nil
		default:
			o.ErrPrintln("unknown command:", fields[0])
		}
	}
}
