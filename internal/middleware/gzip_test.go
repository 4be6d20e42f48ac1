package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func gzipEchoHandler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	defer r.Body.Close()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"echo":"` + string(body) + `"}`))
}

func TestGzipMiddleware(t *testing.T) {
	type want struct {
		statusCode      int
		contentEncoding string
		bodyContains    string
	}

	tests := []struct {
		name        string
		requestBody string
		headers     map[string]string
		want        want
	}{
		{
			name:        "client accepts gzip",
			requestBody: "order placed",
			headers: map[string]string{
				"Accept-Encoding": "gzip",
				"Content-Type":    "application/json",
			},
			want: want{
				statusCode:      http.StatusOK,
				contentEncoding: "gzip",
				bodyContains:    "order placed",
			},
		},
		{
			name:        "client does not accept gzip",
			requestBody: "plain request",
			headers: map[string]string{
				"Accept-Encoding": "",
				"Content-Type":    "application/json",
			},
			want: want{
				statusCode:      http.StatusOK,
				contentEncoding: "",
				bodyContains:    "plain request",
			},
		},
		{
			name:        "compressed request body",
			requestBody: "compressed request",
			headers: map[string]string{
				"Content-Encoding": "gzip",
				"Accept-Encoding":  "gzip",
				"Content-Type":     "application/json",
			},
			want: want{
				statusCode:      http.StatusOK,
				contentEncoding: "gzip",
				bodyContains:    "compressed request",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requestBody io.Reader
			if strings.Contains(tt.headers["Content-Encoding"], "gzip") {
				var buf bytes.Buffer
				gz := gzip.NewWriter(&buf)
				if _, err := gz.Write([]byte(tt.requestBody)); err != nil {
					t.Fatalf("write gzip: %v", err)
				}
				if err := gz.Close(); err != nil {
					t.Fatalf("close gzip: %v", err)
				}
				requestBody = &buf
			} else {
				requestBody = strings.NewReader(tt.requestBody)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/orders", requestBody)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			w := httptest.NewRecorder()

			h := GzipMiddleware(http.HandlerFunc(gzipEchoHandler))
			h.ServeHTTP(w, req)

			res := w.Result()
			defer res.Body.Close()

			if res.StatusCode != tt.want.statusCode {
				t.Fatalf("status: got %d want %d", res.StatusCode, tt.want.statusCode)
			}

			if ce := res.Header.Get("Content-Encoding"); ce != tt.want.contentEncoding {
				t.Fatalf("content-encoding: got %q want %q", ce, tt.want.contentEncoding)
			}

			var body []byte
			var err error
			if res.Header.Get("Content-Encoding") == "gzip" {
				gr, err := gzip.NewReader(res.Body)
				if err != nil {
					t.Fatalf("new gzip reader: %v", err)
				}
				defer gr.Close()
				body, err = io.ReadAll(gr)
				if err != nil {
					t.Fatalf("read gzip body: %v", err)
				}
			} else {
				body, err = io.ReadAll(res.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
			}

			if !strings.Contains(string(body), tt.want.bodyContains) {
				t.Fatalf("body %q does not contain %q", string(body), tt.want.bodyContains)
			}
		})
	}

	t.Run("invalid gzip body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader("not gzip"))
		req.Header.Set("Content-Encoding", "gzip")

		w := httptest.NewRecorder()
		GzipMiddleware(http.HandlerFunc(gzipEchoHandler)).ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("status: got %d want %d", w.Code, http.StatusBadRequest)
		}
	})
}
