package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"sentra/internal/devserver"
)

// WatchCommand starts the live-preview server, recompiling and
// broadcasting whenever the source file changes on disk.
func WatchCommand(args []string) error {
	files, flags, err := parseFlags(args)
	if err != nil {
		return err
	}
	if len(files) != 1 {
		return fmt.Errorf("usage: bfc watch <file.bf> --serve ADDR")
	}
	if flags.serveAddr == "" {
		return fmt.Errorf("bfc watch requires --serve ADDR")
	}
	sourceFile := files[0]

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("watching %s, serving %s/ws\n", sourceFile, flags.serveAddr)
	return devserver.ListenAndServe(ctx, flags.serveAddr, sourceFile, flags.pipelineOptions(), 500*time.Millisecond)
}
