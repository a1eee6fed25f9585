package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchJSONDecodesSuccessfulResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/debug/routes" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"count": 3}`))
	}))
	defer srv.Close()

	var out map[string]any
	if err := fetchJSON(srv.URL, "/debug/routes", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["count"] != float64(3) {
		t.Fatalf("expected count 3, got %v", out["count"])
	}
}

func TestFetchJSONNonOKStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var out map[string]any
	if err := fetchJSON(srv.URL, "/debug/cache", &out); err == nil {
		t.Fatalf("expected a non-200 status to surface as an error")
	}
}

func TestFetchJSONUnreachableAddrErrors(t *testing.T) {
	var out map[string]any
	if err := fetchJSON("http://127.0.0.1:0", "/debug/cache", &out); err == nil {
		t.Fatalf("expected an unreachable address to surface an error")
	}
}

func TestPrintJSONWritesIndentedOutput(t *testing.T) {
	var buf bytes.Buffer
	orig := cmdOut
	cmdOut = &buf
	defer func() { cmdOut = orig }()

	if err := printJSON(map[string]any{"len": 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("expected printJSON to write output")
	}
}

func TestNewRoutesCommandWiring(t *testing.T) {
	cmd := newRoutesCommand()
	if cmd.Use != "routes" {
		t.Fatalf("expected Use to be 'routes', got %q", cmd.Use)
	}
	list, _, err := cmd.Find([]string{"list"})
	if err != nil {
		t.Fatalf("expected a 'list' subcommand, got error: %v", err)
	}
	if list.Use != "list" {
		t.Fatalf("expected the subcommand's Use to be 'list', got %q", list.Use)
	}
}

func TestNewCacheCommandWiring(t *testing.T) {
	cmd := newCacheCommand()
	stats, _, err := cmd.Find([]string{"stats"})
	if err != nil {
		t.Fatalf("expected a 'stats' subcommand, got error: %v", err)
	}
	if stats.Use != "stats" {
		t.Fatalf("expected the subcommand's Use to be 'stats', got %q", stats.Use)
	}
}
