package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/Liamhigh/Verumlast/internal/domain"
	"github.com/Liamhigh/Verumlast/pkg/seal"
)

func runVerify(args []string) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var manifestPath string
	var signatureB64 string
	var pubkeyPath string
	var documentPath string
	var documentDigest string
	fs.StringVar(&manifestPath, "manifest", "", "path to the manifest JSON")
	fs.StringVar(&signatureB64, "signature", "", "base64 signature value")
	fs.StringVar(&pubkeyPath, "pubkey", "", "path to a PEM public key (default: key embedded in manifest)")
	fs.StringVar(&documentPath, "document", "", "path to the certified document")
	fs.StringVar(&documentDigest, "digest", "", "expected document digest (hex)")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if manifestPath == "" || signatureB64 == "" {
		fmt.Fprintln(os.Stderr, "--manifest and --signature are required")
		return 1
	}

	manifestBytes, err := os.ReadFile(manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read manifest: %v\n", err)
		return 1
	}
	var manifest domain.Manifest
	if err := json.Unmarshal(manifestBytes, &manifest); err != nil {
		fmt.Fprintf(os.Stderr, "decode manifest: %v\n", err)
		return 1
	}

	publicKeyPEM := manifest.DevicePublicKeyPEM
	if pubkeyPath != "" {
		raw, err := os.ReadFile(pubkeyPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read public key: %v\n", err)
			return 1
		}
		publicKeyPEM = string(raw)
	}

	valid, err := seal.VerifyManifest(manifest, domain.Signature{Value: signatureB64}, publicKeyPEM)
	if err != nil {
		fmt.Fprintf(os.Stderr, "verify: %v\n", err)
		return 1
	}
	fmt.Printf("signature_valid: %t\n", valid)
	if !valid {
		return 2
	}

	fingerprintOK := manifest.DeviceFingerprint == seal.Fingerprint(publicKeyPEM)
	fmt.Printf("fingerprint_valid: %t\n", fingerprintOK)
	if !fingerprintOK {
		return 2
	}

	if documentPath != "" && documentDigest != "" {
		raw, err := os.ReadFile(documentPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read document: %v\n", err)
			return 1
		}
		match := seal.Digest(raw) == documentDigest
		fmt.Printf("document_valid: %t\n", match)
		if !match {
			return 2
		}
	}
	return 0
}
