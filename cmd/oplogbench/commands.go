package main

import (
	"context"
	"fmt"

	"github.com/oplog-project/oplog/internal/cli"

	flag "github.com/spf13/pflag"
)

// allCommands returns every command this binary exposes, in display order.
func allCommands() []*cli.Command {
	return []*cli.Command{
		RunCmd(),
		TraceCmd(),
		VersionCmd(),
	}
}

// RunCmd drives a JSONC-configured synthetic workload against one of the
// LoggedObject variants and reports push/sync timing.
func RunCmd() *cli.Command {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	scenarioPath := fs.StringP("scenario", "s", "", "Path to a JSONC scenario file (defaults applied for anything omitted)")
	outPath := fs.StringP("out", "o", "", "Write the JSON result to `file` instead of stdout")

	return &cli.Command{
		Flags: fs,
		Usage: "run [flags]",
		Short: "Run a synthetic push/synchronize workload",
		Long: "Drives concurrent pushers against a tsclog or mfslog LoggedObject " +
			"as described by a JSONC scenario file, then reports how long the " +
			"push phase and the synchronize phase took.",
		Exec: func(_ context.Context, o *cli.IO, _ []string) error {
			sc := defaultScenario()

			if *scenarioPath != "" {
				loaded, err := loadScenario(*scenarioPath)
				if err != nil {
					return err
				}

				sc = loaded
			}

			res := runScenario(sc)

			if *outPath != "" {
				return writeResult(*outPath, res)
			}

			o.Printf("variant=%s num_cpu=%d pushed=%d applied=%d push=%s sync=%s\n",
				res.Variant, res.NumCPU, res.TotalPushed, res.TotalApplied,
				res.PushDuration, res.SyncDuration)

			if res.TotalApplied != int64(res.TotalPushed) {
				o.WarnLLM(
					fmt.Sprintf("only %d of %d pushed operations were applied", res.TotalApplied, res.TotalPushed),
					"lower wait_fraction on purpose exercises this; otherwise run again with wait_fraction 1.0",
				)
			}

			return nil
		},
	}
}

// VersionCmd prints the binary's identity.
func VersionCmd() *cli.Command {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)

	return &cli.Command{
		Flags: fs,
		Usage: "version",
		Short: "Print version information",
		Exec: func(_ context.Context, o *cli.IO, _ []string) error {
			o.Println("oplogbench (github.com/oplog-project/oplog)")

			return nil
		},
	}
}
