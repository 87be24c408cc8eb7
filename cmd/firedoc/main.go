// firedoc - local Firestore-style document store CLI
//
// Usage:
//
//	firedoc seed <fixture>                 Insert the documents of a fixture file
//	firedoc insert <reference> <props>     Insert one document
//	firedoc get <reference>                Print one document
//	firedoc collection <path>              List a collection
//	firedoc group <id>                     List a collection group
//	firedoc query [path] [--where ...]     Filter, order and limit
//	firedoc scenario <dir>                 Run conformance scenarios
//
// Run "firedoc help" for the full command list.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/firedoc/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.NewRootCommand().ExecuteContext(ctx)
	if err == nil {
		return
	}
	// Commands that already reported the failure return an empty message.
	if msg := err.Error(); msg != "" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	stop()
	os.Exit(cli.GetExitCode(err))
}
