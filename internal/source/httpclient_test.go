package source

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andybalholm/brotli"
)

func TestGetDecodesGzip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ae := r.Header.Get("Accept-Encoding"); ae != "gzip, br" {
			t.Errorf("Accept-Encoding = %q, want %q", ae, "gzip, br")
		}
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte("compressed payload"))
		gz.Close()
	}))
	defer srv.Close()

	body, err := NewClient(0).Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(body) != "compressed payload" {
		t.Errorf("body = %q", body)
	}
}

func TestGetRejectsTruncatedGzip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		gz.Write([]byte("compressed payload"))
		gz.Close()

		w.Header().Set("Content-Encoding", "gzip")
		w.Write(buf.Bytes()[:buf.Len()-6]) // chop off the gzip trailer
	}))
	defer srv.Close()

	if _, err := NewClient(0).Get(context.Background(), srv.URL, nil); err == nil {
		t.Fatal("expected error for a truncated gzip stream")
	}
}

func TestGetDecodesBrotli(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		bw := brotli.NewWriter(w)
		bw.Write([]byte("brotli payload"))
		bw.Close()
	}))
	defer srv.Close()

	body, err := NewClient(0).Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(body) != "brotli payload" {
		t.Errorf("body = %q", body)
	}
}

func TestGetSendsBrowserHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != defaultUserAgent {
			t.Errorf("User-Agent = %q", ua)
		}
		if accept := r.Header.Get("Accept"); accept != "application/json" {
			t.Errorf("Accept = %q, want caller override to win", accept)
		}
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	var out map[string]interface{}
	if err := NewClient(0).GetJSON(context.Background(), srv.URL, &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
}

func TestGetNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	if _, err := NewClient(0).Get(context.Background(), srv.URL, nil); err == nil {
		t.Fatal("expected error for HTTP 403")
	}
}

func TestRegistryOrderAndLookup(t *testing.T) {
	r := NewRegistry()
	if ids := r.IDs(); len(ids) != 0 {
		t.Errorf("empty registry IDs = %v", ids)
	}
	if _, ok := r.Get("girafull"); ok {
		t.Error("empty registry resolved an adapter")
	}
}
