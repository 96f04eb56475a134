package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hwstore/hwstore-server/internal/weather"
)

func newWeatherProvider(t *testing.T) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("q") == "Nowhere" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"name":"Recife","main":{"temp":29}}`))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func weatherClient(baseURL, key string) *weather.Client {
	return weather.NewClient(weather.Config{
		APIKey:  key,
		BaseURL: baseURL,
		Units:   "metric",
		Lang:    "pt_br",
		Timeout: time.Second,
	}, nil, nil)
}

func TestWeatherProxy(t *testing.T) {
	provider := newWeatherProvider(t)

	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	tests := []struct {
		name   string
		client *weather.Client
		city   string
		status int
		body   string
	}{
		{name: "ok", client: weatherClient(provider.URL, "key"), city: "Recife", status: http.StatusOK, body: `{"name":"Recife","main":{"temp":29}}`},
		{name: "upstream error passes through", client: weatherClient(provider.URL, "key"), city: "Nowhere", status: http.StatusNotFound, body: `{"cod":"404","message":"city not found"}`},
		{name: "missing key", client: weatherClient(provider.URL, ""), city: "Recife", status: http.StatusInternalServerError, body: `{"error":"weather API key missing"}`},
		{name: "unreachable provider", client: weatherClient(closedURL, "key"), city: "Recife", status: http.StatusInternalServerError, body: `{"error":"failed to fetch weather"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := startTestServer(t, testConfig(t), Services{Weather: tt.client})

			status, body := get(t, ts, "/api/weather/"+tt.city)
			if status != tt.status || body != tt.body {
				t.Fatalf("expected %d %s, got %d %s", tt.status, tt.body, status, body)
			}
		})
	}
}
