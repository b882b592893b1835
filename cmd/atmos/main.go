package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/atmoscli/atmos"
)

func main() {
	cfg := atmos.DefaultConfig()
	if path, ok := atmos.FindConfig("."); ok {
		loaded, err := atmos.LoadConfig(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := atmos.New(cfg, nil).Init(os.Args).Execute(ctx)
	stop()
	os.Exit(atmos.ExitCode(err))
}
