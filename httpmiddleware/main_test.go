package httpmiddleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHttpRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Test"); got != "yes" {
			t.Errorf("header X-Test = %q", got)
		}
		w.Write([]byte("pong"))
	}))
	defer server.Close()

	body, err := HttpRequest(HttpRequestStruct{
		Method:  "GET",
		Url:     server.URL,
		Headers: map[string]string{"X-Test": "yes"},
	})
	if err != nil {
		t.Fatalf("HttpRequest failed: %v", err)
	}
	if string(body) != "pong" {
		t.Errorf("body = %q", body)
	}
}

func TestHttpRequestNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := HttpRequest(HttpRequestStruct{Method: "GET", Url: server.URL})
	if err == nil {
		t.Fatal("expected an error on a 500 response")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error should carry the status code: %v", err)
	}
}

func TestHttpRequestWithContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := HttpRequestWithContext(ctx, HttpRequestStruct{Method: "GET", Url: server.URL}); err == nil {
		t.Fatal("expected an error on a cancelled context")
	}
}
