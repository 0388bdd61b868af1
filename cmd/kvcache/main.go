// Package main provides the kvcache CLI, which serves an in-memory cache over
// the Model Context Protocol and benchmarks it.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
