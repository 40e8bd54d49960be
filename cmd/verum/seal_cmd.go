package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Liamhigh/Verumlast/internal/domain"
	cryptoinfra "github.com/Liamhigh/Verumlast/internal/infra/crypto"
	"github.com/Liamhigh/Verumlast/internal/infra/keys/session"
	"github.com/Liamhigh/Verumlast/internal/infra/qrimg"
	"github.com/Liamhigh/Verumlast/internal/infra/render"
	"github.com/Liamhigh/Verumlast/internal/usecase"
)

type sealOutput struct {
	Manifest       domain.Manifest  `json:"manifest"`
	Signature      domain.Signature `json:"signature"`
	DocumentDigest string           `json:"document_digest"`
	PageCount      int              `json:"page_count"`
}

func runSeal(args []string) int {
	fs := flag.NewFlagSet("seal", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var narrativePath string
	var outPath string
	var manifestOutPath string
	var lat, lon float64
	var hasGeo bool
	var noQR bool
	fs.StringVar(&narrativePath, "narrative", "", "path to the narrative text file")
	fs.StringVar(&outPath, "out", "report.pdf", "path for the certified document")
	fs.StringVar(&manifestOutPath, "manifest-out", "", "path for the manifest+signature JSON (default stdout)")
	fs.Float64Var(&lat, "lat", 0, "latitude")
	fs.Float64Var(&lon, "lon", 0, "longitude")
	fs.BoolVar(&noQR, "no-qr", false, "skip the verification image")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	hasGeo = flagWasSet(fs, "lat") && flagWasSet(fs, "lon")

	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "at least one evidence file is required")
		return 1
	}

	var narrative string
	if narrativePath != "" {
		raw, err := os.ReadFile(narrativePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read narrative: %v\n", err)
			return 1
		}
		narrative = string(raw)
	}

	files := make([]usecase.FileInput, 0, fs.NArg())
	for _, path := range fs.Args() {
		raw, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read evidence %s: %v\n", path, err)
			return 1
		}
		files = append(files, usecase.FileInput{
			Name:  filepath.Base(path),
			Bytes: raw,
		})
	}

	geolocation := domain.GeolocationNone()
	if hasGeo {
		geolocation = domain.GeolocationAt(lat, lon)
	}

	uc := &usecase.SealReport{
		Keys:     session.NewManager(),
		Crypto:   cryptoinfra.NewService(),
		Renderer: render.NewRenderer(),
	}
	if !noQR {
		uc.Imager = qrimg.NewLocal()
	}

	report, err := uc.Execute(context.Background(), usecase.SealReportRequest{
		Narrative:   narrative,
		Files:       files,
		Geolocation: geolocation,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "seal: %v\n", err)
		return 1
	}

	if err := os.WriteFile(outPath, report.DocumentBytes, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write document: %v\n", err)
		return 1
	}

	payload, err := json.MarshalIndent(sealOutput{
		Manifest:       report.Manifest,
		Signature:      report.Signature,
		DocumentDigest: report.DocumentDigest,
		PageCount:      report.PageCount,
	}, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
		return 1
	}
	if err := writeOutput(manifestOutPath, payload); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		return 1
	}
	fmt.Fprintf(os.Stderr, "sealed %d evidence file(s) into %s (%d pages)\n", len(files), outPath, report.PageCount)
	fmt.Fprintf(os.Stderr, "document digest (disclose out-of-band): %s\n", report.DocumentDigest)
	return 0
}

func flagWasSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
