// Command oplogbench drives the oplog engine from the outside: it runs
// synthetic concurrent push/synchronize workloads against either
// LoggedObject variant and reports timing, and it offers an interactive
// trace mode for exploring merge and eviction behavior by hand.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/oplog-project/oplog/internal/cli"
)

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	os.Exit(cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, allCommands(), sigCh))
}
