// Command canceltoken benchmarks and stress-tests the cancellation token.
//
// Usage:
//
//	go run ./cmd/canceltoken bench -n 10000000
//	go run ./cmd/canceltoken stress --config stress.yaml --outcome race
package main

import (
	"context"
	"os"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
