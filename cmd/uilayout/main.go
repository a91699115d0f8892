// Command uilayout reconstructs screen layouts from element detections.
//
// Usage:
//
//	uilayout analyze [--image png [--ocr] [--clips dir]] [--format json|jsonl|csv|tsv|html] [-o file] <detections.json>
//	uilayout watch <dir>
//	uilayout mcp
//	uilayout config
//
// Every command accepts --config, --archive and -v. UILAYOUT_CONFIG and
// UILAYOUT_ARCHIVE set the defaults of --config and --archive.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "uilayout: %v\n", err)
		os.Exit(1)
	}
}
