package main

import (
	"fmt"
	"os"
	"path/filepath"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	if len(args) < 2 {
		usage(args)
		return 1
	}

	switch args[1] {
	case "seal":
		return runSeal(args[2:])
	case "verify":
		return runVerify(args[2:])
	case "digest":
		return runDigest(args[2:])
	}

	usage(args)
	return 1
}

func usage(args []string) {
	name := "verum"
	if len(args) > 0 && args[0] != "" {
		name = filepath.Base(args[0])
	}
	fmt.Fprintf(os.Stderr, "usage:\n")
	fmt.Fprintf(os.Stderr, "  %s seal --narrative <file> --out <report.pdf> [--manifest-out <file>] [--lat <deg> --lon <deg>] [--no-qr] <evidence-file>...\n", name)
	fmt.Fprintf(os.Stderr, "  %s verify --manifest <manifest.json> --signature <b64> [--pubkey <pem-file>] [--document <report.pdf>] [--digest <hex>]\n", name)
	fmt.Fprintf(os.Stderr, "  %s digest <file>...\n", name)
}
