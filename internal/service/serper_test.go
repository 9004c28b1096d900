package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestSerperClient_Search(t *testing.T) {
	var gotBody serperRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("X-API-KEY"); got != "test-key" {
			t.Errorf("missing API key header, got %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"organic":[
			{"title":"Result A","snippet":"snippet a","link":"https://a"},
			{"title":"Result B","snippet":"snippet b","link":"https://b"}
		]}`))
	}))
	defer srv.Close()

	c := NewSerperClient(&SerperConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Country: "us",
		Locale:  "en",
	})

	items, err := c.Search(context.Background(), "solar panels", 7)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if gotBody.Query != "solar panels" || gotBody.Num != 7 {
		t.Errorf("request body %+v, want query and num propagated", gotBody)
	}
	if gotBody.Locale != "en" || gotBody.Country != "us" {
		t.Errorf("locale/country not propagated: %+v", gotBody)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Title != "Result A" || items[1].Link != "https://b" {
		t.Errorf("items parsed incorrectly: %+v", items)
	}
}

func TestSerperClient_ClientErrorFailsFast(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"bad query"}`))
	}))
	defer srv.Close()

	c := NewSerperClient(&SerperConfig{APIKey: "k", BaseURL: srv.URL, MaxRetries: 3})

	if _, err := c.Search(context.Background(), "whatever query", 5); err == nil {
		t.Fatal("expected an error for a 400 response")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("client errors must not be retried, got %d attempts", n)
	}
}

func TestSerperClient_EmptyOrganic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewSerperClient(&SerperConfig{APIKey: "k", BaseURL: srv.URL})
	items, err := c.Search(context.Background(), "obscure query", 5)
	if err != nil {
		t.Fatalf("empty result set must not be an error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
}
