// Command weird runs the weir daemon in the foreground. It is a thin
// bootstrap around the same daemon loop that `weir daemon run` uses, for
// service managers that launch the daemon binary directly.
package main

import (
	"context"
	"log"
	"os"

	"weir/internal/config"
	"weir/internal/daemonrun"
)

func main() {
	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := daemonrun.Run(context.Background(), cfg); err != nil {
		log.Printf("daemon: %v", err)
		os.Exit(1)
	}
}
