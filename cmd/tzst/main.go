// Command tzst is the command-line entry point. It installs a SIGINT/SIGTERM
// handler that drains the atomic-writer cleanup registry and then exits
// with status 130, so a terminated create never leaves a visible temp file
// behind (O3 strengthening, see DESIGN.md), then executes the command tree
// built by cli.NewRootCommand.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/xixu-me/tzst/cli"
	liberr "github.com/xixu-me/tzst/errors"
	"github.com/xixu-me/tzst/internal/atomicfile"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	installSignalHandler()

	cli.Version = version
	root := cli.NewRootCommand()

	if err := root.Execute(); err != nil {
		cli.PrintError(err)

		// A domain error (archive/codec/security/conflict/atomic/path
		// failure) surfaces through liberr.Error; anything else comes from
		// cobra's own argument/flag validation rejecting the invocation
		// before RunE ran, per §10.2's exit-code split.
		if _, ok := err.(liberr.Error); ok {
			os.Exit(1)
		}
		os.Exit(2)
	}
}

func installSignalHandler() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sig
		atomicfile.CleanupAll()
		os.Exit(130)
	}()
}
