package translate_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"polychat/internal/translate"
)

func TestTranslate_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/translate" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var in map[string]string
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decode: %v", err)
		}
		want := map[string]string{"q": "hello bob", "source": "auto", "target": "es", "format": "text", "api_key": "k"}
		for k, v := range want {
			if in[k] != v {
				t.Errorf("%s = %q, want %q", k, in[k], v)
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"translatedText": "hola bob"})
	}))
	defer srv.Close()

	got, err := translate.New(srv.URL+"/", "k").Translate(context.Background(), "hello bob", "es")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "hola bob" {
		t.Fatalf("got %q", got)
	}
}

func TestTranslate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name: "server error with message",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"es is not supported"}`))
			},
			want: "es is not supported",
		},
		{
			name: "server error without body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			want: "503",
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html>"))
			},
			want: "decode response",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := translate.New(srv.URL, "").Translate(context.Background(), "hi", "es")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestTranslate_EmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"translatedText":""}`))
	}))
	defer srv.Close()

	_, err := translate.New(srv.URL, "").Translate(context.Background(), "hi", "es")
	if !errors.Is(err, translate.ErrEmptyTranslation) {
		t.Fatalf("got %v", err)
	}
}

func TestTranslate_BlankInputSkipsRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	got, err := translate.New(srv.URL, "").Translate(context.Background(), "  ", "es")
	if err != nil || got != "  " || called {
		t.Fatalf("got %q err=%v called=%v", got, err, called)
	}
}
