package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClient_PostAndGet(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/echo":
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			io.Copy(w, r.Body)
		case r.Method == http.MethodGet && r.URL.Path == "/raw":
			w.Write([]byte("<html></html>"))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"no route"}`))
		}
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	ctx := context.Background()

	var out map[string]string
	if err := c.Post(ctx, "/echo", map[string]string{"asignatura": "Historia"}, &out); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if out["asignatura"] != "Historia" {
		t.Errorf("Post() decoded %v", out)
	}

	raw, err := c.GetRaw(ctx, "/raw")
	if err != nil || string(raw) != "<html></html>" {
		t.Errorf("GetRaw() = %q, %v", raw, err)
	}

	err = c.Get(ctx, "/missing", nil)
	if err == nil || !strings.Contains(err.Error(), "404") || !strings.Contains(err.Error(), "no route") {
		t.Errorf("Get() error = %v, want server error with message", err)
	}
	if _, err := c.GetRaw(ctx, "/missing"); err == nil {
		t.Error("GetRaw() on 404 succeeded")
	}
}

func TestClient_PostMultipart(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm() error = %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f, h, err := r.FormFile("pdf")
		if err != nil {
			t.Errorf("FormFile() error = %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(f)
		json.NewEncoder(w).Encode(map[string]string{
			"unidad": r.FormValue("unidad"),
			"name":   h.Filename,
			"data":   string(data),
		})
	}))
	defer ts.Close()

	var out map[string]string
	err := NewClient(ts.URL).PostMultipart(context.Background(), "/exercises",
		map[string]string{"unidad": "Fracciones"},
		[]File{{Field: "pdf", Name: "tema.pdf", Data: []byte("%PDF-1.4")}},
		&out)
	if err != nil {
		t.Fatalf("PostMultipart() error = %v", err)
	}
	if out["unidad"] != "Fracciones" || out["name"] != "tema.pdf" || out["data"] != "%PDF-1.4" {
		t.Errorf("server saw %v", out)
	}
}

func TestResponseError(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"json error", `{"error":"invalid outline"}`, "server error (400): invalid outline"},
		{"plain body", "bad things", "server error (400): bad things"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := responseError(http.StatusBadRequest, []byte(tt.body)).Error(); got != tt.want {
				t.Errorf("responseError() = %q, want %q", got, tt.want)
			}
		})
	}
}
