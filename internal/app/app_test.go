package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/NivBraz/greeting-service/internal/config"
	"github.com/NivBraz/greeting-service/internal/pipeline"
	"github.com/NivBraz/greeting-service/pkg/logger"
)

func testConfig(sources ...string) *config.Config {
	cfg := &config.Config{
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 100, Burst: 10},
		Count:     config.CountConfig{Concurrency: 2},
		Sources:   sources,
	}
	cfg.HTTPClient.MaxRetries = 1
	return cfg
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.Config
		wantErr bool
	}{
		{"valid config", testConfig("http://example.com/article1"), false},
		{"no sources", testConfig(), true},
		{"no concurrency", &config.Config{
			RateLimit: config.RateLimitConfig{RequestsPerSecond: 1},
			Sources:   []string{"a"},
		}, true},
	}

	p := pipeline.New(pipeline.ReporterFunc(func(context.Context, int) error { return nil }))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, p, logger.NewNoopLogger(), io.Discard)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApp_Run(t *testing.T) {
	article := `<html><head><style>p { color: red; }</style></head>
<body><h1>Hello World!</h1><p>This is a test article.</p><script>var ignored = 1;</script></body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/article":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = io.WriteString(w, article)
		case "/plain":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = io.WriteString(w, "one two three")
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	local := filepath.Join(t.TempDir(), "greeting.txt")
	require.NoError(t, os.WriteFile(local, []byte("Hello World!"), 0o644))

	cfg := testConfig(server.URL+"/article", server.URL+"/plain", server.URL+"/missing", local)

	rec := &recordingReporter{}
	app, err := New(cfg, pipeline.New(rec), logger.NewNoopLogger(), io.Discard)
	require.NoError(t, err)

	result, err := app.Run(context.Background())
	require.Error(t, err)
	require.NotNil(t, result)

	require.Len(t, result.Sources, 4)
	require.Equal(t, server.URL+"/article", result.Sources[0].Source)
	require.Equal(t, 7, result.Sources[0].Count)
	require.Equal(t, 3, result.Sources[1].Count)
	require.NotEmpty(t, result.Sources[2].Error)
	require.Equal(t, 2, result.Sources[3].Count)

	require.Equal(t, 12, result.Stats.TotalWords)
	require.Equal(t, 1, result.Stats.Failed)
	require.ElementsMatch(t, []int{7, 3, 2}, rec.counts())
}

type recordingReporter struct {
	mu     sync.Mutex
	values []int
}

func (r *recordingReporter) Report(_ context.Context, count int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, count)
	return nil
}

func (r *recordingReporter) counts() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.values...)
}
