package qrimg

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestLocal_EncodesPNG(t *testing.T) {
	img, err := NewLocal().Encode(context.Background(), `{"manifest_id":"x","device_fingerprint":"y"}`)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.HasPrefix(img, pngMagic) {
		t.Fatal("output is not a PNG")
	}
}

func TestLocal_ZeroSizeFallsBackToDefault(t *testing.T) {
	l := &Local{}
	img, err := l.Encode(context.Background(), "payload")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(img) == 0 {
		t.Fatal("empty image")
	}
}

func TestClient_RequiresBaseURL(t *testing.T) {
	if _, err := NewClient("   ", nil); err == nil {
		t.Fatal("expected error for empty base url")
	}
}

func TestClient_PostsPayloadAndReturnsBody(t *testing.T) {
	var gotPath, gotBody, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		var buf bytes.Buffer
		buf.ReadFrom(r.Body)
		gotBody = buf.String()
		w.Write(pngMagic)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL+"/", srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	img, err := client.Encode(context.Background(), "the-payload")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if gotPath != "/render" {
		t.Fatalf("request path %q", gotPath)
	}
	if gotBody != "the-payload" {
		t.Fatalf("request body %q", gotBody)
	}
	if !strings.HasPrefix(gotContentType, "text/plain") {
		t.Fatalf("content type %q", gotContentType)
	}
	if !bytes.Equal(img, pngMagic) {
		t.Fatal("response body not returned verbatim")
	}
}

func TestClient_NonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Encode(context.Background(), "payload"); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestClient_EmptyBodyIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	defer srv.Close()

	client, err := NewClient(srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Encode(context.Background(), "payload"); err == nil {
		t.Fatal("expected error for empty body")
	}
}

func TestClient_OversizedBodyIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(bytes.Repeat([]byte{0xAA}, maxImageBytes+1))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Encode(context.Background(), "payload"); err == nil {
		t.Fatal("expected error for oversized body")
	}
}
