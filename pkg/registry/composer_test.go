package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const packagistSearchJSON = `{
  "results": [
    {"name": "monolog/monolog", "description": "Sends your logs to files", "url": "https://packagist.org/packages/monolog/monolog", "repository": "https://github.com/Seldaek/monolog", "downloads": 900, "favers": 20},
    {"name": "psr/log", "description": "", "url": "https://packagist.org/packages/psr/log", "repository": "", "downloads": 10, "favers": 1}
  ],
  "total": 57
}`

const packagistDetailJSON = `{
  "package": {
    "name": "monolog/monolog",
    "description": "Sends your logs to files",
    "downloads": {"total": 5600, "monthly": 340, "daily": 12},
    "maintainers": [{"name": "seldaek", "avatar_url": "https://avatars.example/seldaek.png"}],
    "versions": {
      "2.1.0": {
        "name": "monolog/monolog",
        "version": "2.1.0",
        "version_normalized": "2.1.0.0",
        "time": "2020-05-22T07:31:27+00:00",
        "keywords": ["log", "logging"],
        "require": {"php": ">=7.2", "psr/log": "^1.0.1"},
        "license": ["MIT"],
        "homepage": "https://github.com/Seldaek/monolog",
        "source": {"type": "git", "url": "https://github.com/Seldaek/monolog.git", "reference": "abc"},
        "authors": [{"name": "Jordi Boggiano", "email": "j.boggiano@seld.be", "homepage": "https://seld.be"}]
      },
      "dev-main": {
        "name": "monolog/monolog",
        "version": "dev-main",
        "version_normalized": "dev-main",
        "time": "2020-06-01T00:00:00+00:00"
      }
    }
  }
}`

func newComposerServer(t *testing.T, handler http.HandlerFunc) *ComposerProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewComposerProvider(NewClient(5*time.Second, "pkgbot-test"), ComposerOptions{BaseURL: srv.URL + "/"})
}

func TestComposerSearch(t *testing.T) {
	var gotQuery, gotUA string
	p := newComposerServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		gotQuery = r.URL.Query().Get("q")
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(packagistSearchJSON))
	})

	resp, err := p.Search(context.Background(), "mono log")
	require.NoError(t, err)

	assert.Equal(t, "mono log", gotQuery)
	assert.Equal(t, "pkgbot-test", gotUA)
	assert.Equal(t, 57, resp.Total)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "monolog/monolog", resp.Results[0].Name)
	assert.Equal(t, int64(20), resp.Results[0].Stars)
	assert.Empty(t, resp.Results[1].Description)
}

func TestComposerSearchEmpty(t *testing.T) {
	p := newComposerServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": [], "total": 0}`))
	})

	_, err := p.Search(context.Background(), "zzzz")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyResult))
}

func TestComposerSearchServerError(t *testing.T) {
	p := newComposerServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := p.Search(context.Background(), "x")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrEmptyResult))

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
}

func TestComposerDetail(t *testing.T) {
	p := newComposerServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/packages/monolog/monolog.json", r.URL.Path)
		_, _ = w.Write([]byte(packagistDetailJSON))
	})

	detail, err := p.Detail(context.Background(), "monolog/monolog")
	require.NoError(t, err)

	assert.Equal(t, "monolog/monolog", detail.Name)
	assert.Equal(t, []DownloadCount{
		{Period: "daily", Count: 12},
		{Period: "monthly", Count: 340},
		{Period: "total", Count: 5600},
	}, detail.Downloads)
	require.Len(t, detail.Maintainers, 1)
	assert.Equal(t, "seldaek", detail.Maintainers[0].Name)

	require.Contains(t, detail.Versions, "2.1.0")
	rec := detail.Versions["2.1.0"]
	assert.Equal(t, "2.1.0.0", rec.Normalized)
	assert.Equal(t, time.Date(2020, 5, 22, 7, 31, 27, 0, time.UTC), rec.Time.UTC())
	assert.Equal(t, ">=7.2", rec.Require["php"])
	require.NotNil(t, rec.Source)
	assert.Equal(t, "https://github.com/Seldaek/monolog.git", rec.Source.URL)
	require.Len(t, rec.Authors, 1)
	assert.Equal(t, "https://seld.be", rec.Authors[0].Homepage)
	assert.Contains(t, detail.Versions, "dev-main")
}

func TestComposerDetailInvalid(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{"error payload", http.StatusOK, `{"status": "error", "message": "Package not found"}`},
		{"not found", http.StatusNotFound, `{"status": "error"}`},
		{"malformed", http.StatusOK, `{"package": [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newComposerServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.payload))
			})

			_, err := p.Detail(context.Background(), "vendor/missing")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidResponse))
		})
	}
}

func TestComposerDetailCancelled(t *testing.T) {
	p := newComposerServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(packagistDetailJSON))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Detail(ctx, "monolog/monolog")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, ErrInvalidResponse))
}

func TestComposerLayout(t *testing.T) {
	p := NewComposerProvider(NewClient(0, ""), ComposerOptions{})
	layout := p.Layout()

	assert.Equal(t, "php", layout.PlatformKey)
	assert.Equal(t, "composer require monolog/monolog", layout.Install("monolog/monolog"))
	assert.Equal(t, "https://packagist.org/search/?tags=psr-3", layout.Tag("psr-3"))
	assert.Equal(t, "https://choosealicense.com/licenses/mit", layout.License("MIT"))
	assert.Equal(t, "https://packagist.org/?query=mono+log", p.SearchPageURL("mono log"))
	assert.Equal(t, "https://packagist.org/packages/monolog/monolog", p.DirectURL("monolog/monolog"))
}
