// Command paybridge drives the payment orchestrators from the command line
// and serves them over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mstgnz/paybridge/provider"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(openApp).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
		stop()
		os.Exit(1)
	}
}

// formatError renders a failure as "kind: message"
func formatError(err error) string {
	return fmt.Sprintf("%s: %v", provider.KindOf(err), err)
}
