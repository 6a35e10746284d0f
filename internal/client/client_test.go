package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"clipdrop/internal/platform"
)

func TestSendPostsJSON(t *testing.T) {
	var got Request
	var contentType, requestID, method string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		contentType = r.Header.Get("Content-Type")
		requestID = r.Header.Get("X-Request-ID")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("server failed to decode body: %v", err)
		}
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"status":"queued"}`))
	}))
	defer server.Close()

	c := New(server.URL)
	ex, err := c.Send(context.Background(), Request{
		VideoURL:   "https://youtu.be/x",
		Resolution: "720p",
		Platform:   platform.YouTube,
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if method != http.MethodPost {
		t.Errorf("Expected POST, got %s", method)
	}
	if contentType != "application/json" {
		t.Errorf("Expected Content-Type application/json, got %q", contentType)
	}
	if requestID == "" {
		t.Error("Expected X-Request-ID header to be set")
	}
	if got.VideoURL != "https://youtu.be/x" || got.Resolution != "720p" || got.Platform != platform.YouTube {
		t.Errorf("server received %+v", got)
	}
	if ex.StatusCode != http.StatusAccepted || !ex.OK() {
		t.Errorf("Exchange status = %d, OK = %v", ex.StatusCode, ex.OK())
	}
	if string(ex.Body) != `{"status":"queued"}` {
		t.Errorf("Exchange body = %q", ex.Body)
	}
}

func TestSendTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close()

	if _, err := New(endpoint).Send(context.Background(), Request{VideoURL: "https://a.b"}); err == nil {
		t.Fatal("Expected an error from a closed server")
	}
}

func TestSendHonoursContext(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New(server.URL).Send(ctx, Request{}); err == nil {
		t.Fatal("Expected cancelled context to abort the request")
	}
}

func TestExchangeOK(t *testing.T) {
	for code, want := range map[int]bool{199: false, 200: true, 204: true, 299: true, 300: false, 500: false} {
		ex := &Exchange{StatusCode: code}
		if ex.OK() != want {
			t.Errorf("Exchange{%d}.OK() = %v, want %v", code, ex.OK(), want)
		}
	}
}
