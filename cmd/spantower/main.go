// Command spantower renders Zipkin traces as timeline waterfalls.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/spantower/internal/cli"
	"github.com/matzehuels/spantower/pkg/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.New(os.Stderr).Execute(ctx, os.Args[1:])
	stop()

	code := errors.ExitCode(err)
	if code != 0 && code != errors.ExitInterrupted {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	os.Exit(code)
}
