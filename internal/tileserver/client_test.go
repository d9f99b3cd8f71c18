// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package tileserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func parseTestIP(raw string) (net.IP, error) {
	ip := net.ParseIP(raw)
	if ip == nil {
		return nil, fmt.Errorf("invalid test IP %q", raw)
	}
	return ip, nil
}

func TestFetchIndex_ParsesTableEntriesWithAbsoluteDetailURLs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/index.json":
			_ = json.NewEncoder(w).Encode(indexDocument{Tables: []indexEntry{
				{Name: "public.parcels", DetailURL: "/tables/public.parcels"},
			}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, Options{AllowPrivateIPs: true})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	entries, err := client.FetchIndex(context.Background())
	if err != nil {
		t.Fatalf("FetchIndex returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Name != "public.parcels" {
		t.Errorf("unexpected name: %s", entries[0].Name)
	}
	if entries[0].DetailURL != srv.URL+"/tables/public.parcels" {
		t.Errorf("expected detail url resolved against base, got %s", entries[0].DetailURL)
	}
}

func TestFetchDetail_ParsesColumnsTileURLAndBounds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(detailDocument{
			Columns: []string{"id", "zone", "geometry"},
			TileURL: "https://tiles.example.com/public.parcels/{z}/{x}/{y}.pbf",
			Bounds:  detailBoundsDoc{West: -1, South: -2, East: 3, North: 4},
		})
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, Options{AllowPrivateIPs: true})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	detail, err := client.FetchDetail(context.Background(), srv.URL+"/tables/public.parcels")
	if err != nil {
		t.Fatalf("FetchDetail returned error: %v", err)
	}
	if len(detail.Columns) != 3 {
		t.Fatalf("expected 3 columns, got %+v", detail.Columns)
	}
	if detail.Bounds.West != -1 || detail.Bounds.North != 4 {
		t.Errorf("unexpected bounds: %+v", detail.Bounds)
	}
}

func TestFetchIndex_RetriesTransientFailuresThenSucceeds(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(indexDocument{Tables: []indexEntry{{Name: "public.parcels", DetailURL: "/d"}}})
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, Options{AllowPrivateIPs: true, RetryDelay: time.Millisecond})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	entries, err := client.FetchIndex(context.Background())
	if err != nil {
		t.Fatalf("FetchIndex returned error after retries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after successful retry, got %d", len(entries))
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestFetchIndex_ExhaustsRetriesReturnsErrFetchFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, Options{AllowPrivateIPs: true, MaxRetries: 1, RetryDelay: time.Millisecond})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	_, err = client.FetchIndex(context.Background())
	if err == nil {
		t.Fatal("expected an error when every attempt fails")
	}
	var fetchErr *ErrFetchFailed
	if !asErrFetchFailed(err, &fetchErr) {
		t.Fatalf("expected *ErrFetchFailed, got %T: %v", err, err)
	}
}

func asErrFetchFailed(err error, target **ErrFetchFailed) bool {
	e, ok := err.(*ErrFetchFailed)
	if !ok {
		return false
	}
	*target = e
	return true
}

func TestNewClient_RejectsNonHTTPScheme(t *testing.T) {
	if _, err := NewClient("ftp://example.com", Options{}); err == nil {
		t.Fatal("expected an error for a non-http(s) scheme")
	}
}

func TestNewClient_RejectsLoopbackHostWithoutAllowPrivateIPs(t *testing.T) {
	if _, err := NewClient("http://127.0.0.1:9999", Options{}); err == nil {
		t.Fatal("expected SSRF protection to reject a loopback host")
	}
}

func TestIsPrivateIP_RejectsLoopbackLinkLocalAndPrivateRanges(t *testing.T) {
	cases := []string{"127.0.0.1", "169.254.1.1", "10.0.0.1", "192.168.1.1", "::1", "fe80::1"}
	for _, raw := range cases {
		ips, err := parseTestIP(raw)
		if err != nil {
			t.Fatalf("failed to parse %s: %v", raw, err)
		}
		if !isPrivateIP(ips) {
			t.Errorf("expected %s to be classified private", raw)
		}
	}
}
