// Command dtdgen converts DTD and XSD vocabularies into document type models.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/jacoelho/dtdmodel/cmd/dtdgen/internal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := internal.Run(ctx, os.Args[1:], os.Getenv)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
