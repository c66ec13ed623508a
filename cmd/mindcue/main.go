package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wiring := defaultCommandWiring(os.Stdout, os.Stderr)
	root := newRootCommand(wiring)
	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		exitOnErr(root.Name(), err, wiring.stderr)
	}
}
