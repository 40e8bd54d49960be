// Package render lays out the certified document: narrative pages followed by
// a certification page. Rendering is a pure function of its input; the
// generation time is an explicit parameter and is pinned into the PDF
// metadata, so identical inputs produce byte-identical documents.
package render

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/Liamhigh/Verumlast/internal/domain"
)

type Input struct {
	Narrative   string
	Manifest    domain.Manifest
	Signature   domain.Signature
	GeneratedAt time.Time
	// QRImage is the PNG for the verification payload. Nil renders a visible
	// placeholder; a missing image never fails the render.
	QRImage []byte
}

// Page geometry is fixed: A4 portrait, millimeter units.
const (
	marginLeft   = 15.0
	marginTop    = 15.0
	marginRight  = 15.0
	bottomGuard  = 25.0
	bodyLineHt   = 5.5
	monoLineHt   = 3.2
	qrSizeMM     = 42.0
	labelColWide = 48.0
)

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderDocument adapts Render to the sealing pipeline's renderer contract.
func (r *Renderer) RenderDocument(narrative string, manifest domain.Manifest, sig domain.Signature, generatedAt time.Time, qrImage []byte) ([]byte, int, error) {
	return r.Render(Input{
		Narrative:   narrative,
		Manifest:    manifest,
		Signature:   sig,
		GeneratedAt: generatedAt,
		QRImage:     qrImage,
	})
}

// Render produces the certified document bytes and its page count.
func (r *Renderer) Render(in Input) ([]byte, int, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// Uncompressed streams keep the sealed artifact text-extractable for
	// reviewers without a PDF toolchain. Catalog sorting pins the object
	// emission order; without it font objects come out in map order and
	// identical inputs yield different bytes.
	pdf.SetCompression(false)
	pdf.SetCatalogSort(true)
	generatedAt := in.GeneratedAt.UTC()
	pdf.SetCreationDate(generatedAt)
	pdf.SetModificationDate(generatedAt)
	pdf.SetTitle("Certified Evidence Report", false)
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, bottomGuard)
	pdf.AliasNbPages("")

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	stamp := generatedAt.Format(time.RFC3339)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-18)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(110, 110, 110)
		footer := fmt.Sprintf("Page %d of {nb}  |  Generated %s", pdf.PageNo(), stamp)
		pdf.CellFormat(0, 8, footer, "T", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})

	r.narrativePages(pdf, tr, in.Narrative)
	r.certificationPage(pdf, tr, in)

	if pdf.Err() {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrRenderFailure, pdf.Error())
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrRenderFailure, err)
	}
	return buf.Bytes(), pdf.PageCount(), nil
}

func (r *Renderer) narrativePages(pdf *gofpdf.Fpdf, tr func(string) string, narrative string) {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(0, 9, "Certified Evidence Report", "", 1, "L", false, 0, "")
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "", 11)
	if strings.TrimSpace(narrative) == "" {
		narrative = "(no narrative supplied)"
	}
	// MultiCell flows across as many pages as the text needs.
	pdf.MultiCell(0, bodyLineHt, tr(narrative), "", "L", false)
}

func (r *Renderer) certificationPage(pdf *gofpdf.Fpdf, tr func(string) string, in Input) {
	m := in.Manifest

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 9, "Certification", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	r.fieldRow(pdf, tr, "Engine version", m.Version)
	r.fieldRow(pdf, tr, "Seal ID", m.ManifestID)
	r.fieldRow(pdf, tr, "Sealed at (UTC)", m.SealedAtUTC)
	r.fieldRow(pdf, tr, "Device fingerprint", "")
	r.monoBlock(pdf, m.DeviceFingerprint)
	r.fieldRow(pdf, tr, "Geolocation", formatGeolocation(m.Geolocation))
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, "Evidence files", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	if len(m.Evidence) == 0 {
		pdf.CellFormat(0, 6, "(none)", "", 1, "L", false, 0, "")
	}
	for i, ev := range m.Evidence {
		pdf.CellFormat(0, 5.5, tr(fmt.Sprintf("%d. %s", i+1, ev.FileName)), "", 1, "L", false, 0, "")
		r.monoBlock(pdf, ev.Digest)
	}
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, "Device public key", "", 1, "L", false, 0, "")
	pdf.SetFont("Courier", "", 7)
	for _, line := range strings.Split(strings.TrimRight(m.DevicePublicKeyPEM, "\n"), "\n") {
		pdf.CellFormat(0, monoLineHt, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Signature (%s)", in.Signature.Alg), "", 1, "L", false, 0, "")
	pdf.SetFont("Courier", "", 7)
	// Full signature, wrapped, never truncated.
	pdf.MultiCell(0, monoLineHt, in.Signature.Value, "", "L", false)
	pdf.Ln(3)

	r.verificationBlock(pdf, in)
}

func (r *Renderer) verificationBlock(pdf *gofpdf.Fpdf, in Input) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, "Verification", "", 1, "L", false, 0, "")

	x := pdf.GetX()
	y := pdf.GetY()
	if len(in.QRImage) > 0 {
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("verification-payload", opts, bytes.NewReader(in.QRImage))
		pdf.ImageOptions("verification-payload", x, y, qrSizeMM, qrSizeMM, false, opts, 0, "")
	} else {
		pdf.Rect(x, y, qrSizeMM, qrSizeMM, "D")
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetXY(x, y+qrSizeMM/2-3)
		pdf.MultiCell(qrSizeMM, 3.5, "Verification image\nunavailable", "", "C", false)
	}

	pdf.SetXY(x+qrSizeMM+6, y)
	pdf.SetFont("Helvetica", "", 8)
	note := "Scan to obtain the seal ID and device fingerprint. The digest of " +
		"this document is disclosed separately by the issuer; it is not " +
		"embedded here because it can only be computed after rendering."
	pdf.MultiCell(0, 4, note, "", "L", false)
	pdf.SetY(y + qrSizeMM + 4)
}

func (r *Renderer) fieldRow(pdf *gofpdf.Fpdf, tr func(string) string, label, value string) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(labelColWide, 6, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, tr(value), "", 1, "L", false, 0, "")
}

// monoBlock prints a long hex value on its own line in a small monospaced
// face so the digest stays contiguous in the page content stream.
func (r *Renderer) monoBlock(pdf *gofpdf.Fpdf, value string) {
	pdf.SetFont("Courier", "", 6)
	pdf.CellFormat(0, 3.4, value, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
}

func formatGeolocation(g domain.Geolocation) string {
	if g.Status != domain.GeolocationAvailable || g.Latitude == nil || g.Longitude == nil {
		return "unavailable"
	}
	return fmt.Sprintf("%.6f, %.6f", *g.Latitude, *g.Longitude)
}
