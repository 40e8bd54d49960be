package main

import (
	"fmt"
	"os"

	"github.com/Liamhigh/Verumlast/pkg/seal"
)

func runDigest(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "at least one file is required")
		return 1
	}
	for _, path := range args {
		raw, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read %s: %v\n", path, err)
			return 1
		}
		fmt.Printf("%s  %s\n", seal.Digest(raw), path)
	}
	return 0
}
