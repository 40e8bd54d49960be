package http

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Liamhigh/Verumlast/internal/domain"
	"github.com/Liamhigh/Verumlast/internal/usecase"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type evidenceInput struct {
	FileName    string `json:"file_name"`
	MediaType   string `json:"media_type"`
	BytesBase64 string `json:"bytes_base64"`
}

type geolocationInput struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type sealRequest struct {
	Narrative   string            `json:"narrative"`
	Evidence    []evidenceInput   `json:"evidence"`
	Geolocation *geolocationInput `json:"geolocation,omitempty"`
}

type sealResponse struct {
	Manifest       domain.Manifest  `json:"manifest"`
	Signature      domain.Signature `json:"signature"`
	DocumentBase64 string           `json:"document_base64"`
	DocumentDigest string           `json:"document_digest"`
	PageCount      int              `json:"page_count"`
}

type verifyRequest struct {
	Manifest       domain.Manifest  `json:"manifest"`
	Signature      domain.Signature `json:"signature"`
	PublicKeyPEM   string           `json:"public_key_pem,omitempty"`
	DocumentBase64 string           `json:"document_base64,omitempty"`
	DocumentDigest string           `json:"document_digest,omitempty"`
}

type verifyResponse struct {
	SignatureValid   bool   `json:"signature_valid"`
	FingerprintValid bool   `json:"fingerprint_valid"`
	DocumentValid    *bool  `json:"document_valid,omitempty"`
	ManifestID       string `json:"manifest_id"`
}

type sealRecordResponse struct {
	ManifestID        string `json:"manifest_id"`
	DeviceFingerprint string `json:"device_fingerprint"`
	DocumentDigest    string `json:"document_digest"`
	PageCount         int    `json:"page_count"`
	EvidenceCount     int    `json:"evidence_count"`
	SealedAtUTC       string `json:"sealed_at_utc"`
}

func (s *Server) handleSeal(c *gin.Context) {
	if !s.enforceRateLimit(c, "seal") {
		return
	}
	var req sealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	files := make([]usecase.FileInput, 0, len(req.Evidence))
	for _, ev := range req.Evidence {
		raw, err := base64.StdEncoding.DecodeString(ev.BytesBase64)
		if err != nil {
			writeErrorCode(c, http.StatusBadRequest, "BAD_EVIDENCE", "evidence bytes_base64 is not valid base64")
			return
		}
		files = append(files, usecase.FileInput{
			Name:      ev.FileName,
			MediaType: ev.MediaType,
			Bytes:     raw,
		})
	}

	geolocation := domain.GeolocationNone()
	if req.Geolocation != nil {
		geolocation = domain.GeolocationAt(req.Geolocation.Latitude, req.Geolocation.Longitude)
	}

	report, err := s.sealUC.Execute(c.Request.Context(), usecase.SealReportRequest{
		Narrative:   req.Narrative,
		Files:       files,
		Geolocation: geolocation,
	})
	if err != nil {
		writeSealError(c, err)
		return
	}

	c.JSON(http.StatusOK, sealResponse{
		Manifest:       report.Manifest,
		Signature:      report.Signature,
		DocumentBase64: base64.StdEncoding.EncodeToString(report.DocumentBytes),
		DocumentDigest: report.DocumentDigest,
		PageCount:      report.PageCount,
	})
}

func (s *Server) handleVerify(c *gin.Context) {
	if !s.enforceRateLimit(c, "verify") {
		return
	}
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	var documentBytes []byte
	if req.DocumentBase64 != "" {
		raw, err := base64.StdEncoding.DecodeString(req.DocumentBase64)
		if err != nil {
			writeErrorCode(c, http.StatusBadRequest, "BAD_DOCUMENT", "document_base64 is not valid base64")
			return
		}
		documentBytes = raw
	}

	resp, err := s.verifyUC.Execute(c.Request.Context(), usecase.VerifyReportRequest{
		Manifest:       req.Manifest,
		Signature:      req.Signature,
		PublicKeyPEM:   req.PublicKeyPEM,
		DocumentBytes:  documentBytes,
		DocumentDigest: req.DocumentDigest,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPublicKey) {
			writeErrorCode(c, http.StatusBadRequest, "BAD_PUBLIC_KEY", "public key could not be parsed")
		} else {
			writeErrorCode(c, http.StatusInternalServerError, "INTERNAL", "verification failed")
		}
		return
	}

	c.JSON(http.StatusOK, verifyResponse{
		SignatureValid:   resp.SignatureValid,
		FingerprintValid: resp.FingerprintValid,
		DocumentValid:    resp.DocumentValid,
		ManifestID:       resp.ManifestID,
	})
}

func (s *Server) handleGetSealRecord(c *gin.Context) {
	if s.records == nil {
		writeErrorCode(c, http.StatusNotFound, "NO_LEDGER", "seal records are not persisted on this deployment")
		return
	}
	record, err := s.records.GetByManifestID(c.Request.Context(), c.Param("manifest_id"))
	if errors.Is(err, domain.ErrNotFound) {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "no seal record for that manifest id")
		return
	}
	if err != nil {
		writeErrorCode(c, http.StatusInternalServerError, "INTERNAL", "seal record lookup failed")
		return
	}
	c.JSON(http.StatusOK, sealRecordResponse{
		ManifestID:        record.ManifestID,
		DeviceFingerprint: record.DeviceFingerprint,
		DocumentDigest:    record.DocumentDigest,
		PageCount:         record.PageCount,
		EvidenceCount:     record.EvidenceCount,
		SealedAtUTC:       record.SealedAtUTC,
	})
}

func writeSealError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNoEvidence), errors.Is(err, domain.ErrInvalidManifest):
		writeErrorCode(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
	case errors.Is(err, domain.ErrPolicyDenied):
		writeErrorCode(c, http.StatusForbidden, "POLICY_DENIED", err.Error())
	case errors.Is(err, domain.ErrCryptoFailure):
		writeErrorCode(c, http.StatusInternalServerError, "CRYPTO_FAILURE", "sealing aborted: key or signing failure")
	case errors.Is(err, domain.ErrRenderFailure):
		writeErrorCode(c, http.StatusInternalServerError, "RENDER_FAILURE", "sealing aborted: document could not be rendered")
	default:
		writeErrorCode(c, http.StatusInternalServerError, "INTERNAL", "sealing aborted")
	}
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Code: code, Message: message})
}
