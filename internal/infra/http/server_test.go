package http

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Liamhigh/Verumlast/internal/config"
	"github.com/Liamhigh/Verumlast/internal/domain"
	cryptoinfra "github.com/Liamhigh/Verumlast/internal/infra/crypto"
	"github.com/Liamhigh/Verumlast/internal/infra/keys/session"
	"github.com/Liamhigh/Verumlast/internal/infra/ratelimit"
	"github.com/Liamhigh/Verumlast/internal/infra/render"
	"github.com/Liamhigh/Verumlast/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testServer(cfg config.Config) *Server {
	cryptoSvc := cryptoinfra.NewService()
	deps := ServerDeps{
		Seal: &usecase.SealReport{
			Keys:     session.NewManager(),
			Crypto:   cryptoSvc,
			Renderer: render.NewRenderer(),
		},
		Verify: &usecase.VerifyReport{Crypto: cryptoSvc},
	}
	if cfg.RateLimitRequests > 0 {
		deps.RateLimiter = ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{})
	}
	return NewServerWithDeps(cfg, deps)
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func sealBody() map[string]any {
	return map[string]any{
		"narrative": "Two files delivered for certification.",
		"evidence": []map[string]any{
			{"file_name": "contract.pdf", "media_type": "application/pdf", "bytes_base64": base64.StdEncoding.EncodeToString([]byte("abc"))},
			{"file_name": "photo.jpg", "media_type": "image/jpeg", "bytes_base64": base64.StdEncoding.EncodeToString([]byte("xyz"))},
		},
		"geolocation": map[string]any{"latitude": -33.918861, "longitude": 18.4233},
	}
}

func TestHealthz(t *testing.T) {
	srv := testServer(config.Config{})
	w := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestSealEndpoint_ReturnsVerifiableSeal(t *testing.T) {
	srv := testServer(config.Config{})

	w := doJSON(t, srv, http.MethodPost, "/v1/seal", sealBody())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp sealResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	require.Equal(t, domain.ManifestVersion, resp.Manifest.Version)
	require.Len(t, resp.Manifest.Evidence, 2)
	require.Equal(t, cryptoinfra.Digest([]byte("abc")), resp.Manifest.Evidence[0].Digest)

	doc, err := base64.StdEncoding.DecodeString(resp.DocumentBase64)
	require.NoError(t, err)
	require.Equal(t, cryptoinfra.Digest(doc), resp.DocumentDigest)

	valid, err := cryptoinfra.NewService().VerifyManifest(resp.Manifest, resp.Signature, resp.Manifest.DevicePublicKeyPEM)
	require.NoError(t, err)
	require.True(t, valid)

	// Round-trip through the verify endpoint.
	vw := doJSON(t, srv, http.MethodPost, "/v1/verify", map[string]any{
		"manifest":        resp.Manifest,
		"signature":       resp.Signature,
		"document_base64": resp.DocumentBase64,
		"document_digest": resp.DocumentDigest,
	})
	require.Equal(t, http.StatusOK, vw.Code, vw.Body.String())

	var vresp verifyResponse
	require.NoError(t, json.Unmarshal(vw.Body.Bytes(), &vresp))
	require.True(t, vresp.SignatureValid)
	require.True(t, vresp.FingerprintValid)
	require.NotNil(t, vresp.DocumentValid)
	require.True(t, *vresp.DocumentValid)
}

func TestSealEndpoint_RejectsEmptyEvidence(t *testing.T) {
	srv := testServer(config.Config{})
	body := sealBody()
	body["evidence"] = []map[string]any{}

	w := doJSON(t, srv, http.MethodPost, "/v1/seal", body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "BAD_REQUEST", resp.Code)
}

func TestSealEndpoint_RejectsBadBase64(t *testing.T) {
	srv := testServer(config.Config{})
	body := sealBody()
	body["evidence"] = []map[string]any{
		{"file_name": "contract.pdf", "media_type": "application/pdf", "bytes_base64": "%%not-base64%%"},
	}

	w := doJSON(t, srv, http.MethodPost, "/v1/seal", body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "BAD_EVIDENCE", resp.Code)
}

func TestSealEndpoint_RejectsMalformedJSON(t *testing.T) {
	srv := testServer(config.Config{})
	req := httptest.NewRequest(http.MethodPost, "/v1/seal", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyEndpoint_MalformedKeyIsBadRequest(t *testing.T) {
	srv := testServer(config.Config{})
	w := doJSON(t, srv, http.MethodPost, "/v1/verify", map[string]any{
		"manifest":       map[string]any{"version": domain.ManifestVersion},
		"signature":      map[string]any{"alg": "ecdsa-p256-sha256", "value": "AA=="},
		"public_key_pem": "garbage",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "BAD_PUBLIC_KEY", resp.Code)
}

func TestSealRecordEndpoint_WithoutStoreIs404(t *testing.T) {
	srv := testServer(config.Config{})
	w := doJSON(t, srv, http.MethodGet, "/v1/seals/some-id", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "NO_LEDGER", resp.Code)
}

func TestRateLimit_ThrottlesAndSetsHeaders(t *testing.T) {
	srv := testServer(config.Config{
		RateLimitRequests:      2,
		RateLimitWindowSeconds: 60,
	})

	for i := 0; i < 2; i++ {
		w := doJSON(t, srv, http.MethodPost, "/v1/verify", map[string]any{
			"manifest":  map[string]any{},
			"signature": map[string]any{},
		})
		require.NotEqual(t, http.StatusTooManyRequests, w.Code, "request %d throttled early", i+1)
		require.Equal(t, "2", w.Header().Get("RateLimit-Limit"))
	}

	w := doJSON(t, srv, http.MethodPost, "/v1/verify", map[string]any{
		"manifest":  map[string]any{},
		"signature": map[string]any{},
	})
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "0", w.Header().Get("RateLimit-Remaining"))
	require.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimit_EndpointsHaveSeparateBuckets(t *testing.T) {
	srv := testServer(config.Config{
		RateLimitRequests:      1,
		RateLimitWindowSeconds: 60,
	})

	w := doJSON(t, srv, http.MethodPost, "/v1/seal", sealBody())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The verify bucket is untouched by the seal request.
	w = doJSON(t, srv, http.MethodPost, "/v1/verify", map[string]any{
		"manifest":  map[string]any{},
		"signature": map[string]any{},
	})
	require.NotEqual(t, http.StatusTooManyRequests, w.Code)
}
