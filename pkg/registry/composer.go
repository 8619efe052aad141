package registry

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// DefaultPackagistURL is the public Packagist instance.
const DefaultPackagistURL = "https://packagist.org"

// ComposerOptions configures the Packagist provider.
type ComposerOptions struct {
	// BaseURL serves both the JSON API and the web pages.
	BaseURL string
	// PlatformKey is the require entry naming the PHP runtime.
	PlatformKey string
}

// ComposerProvider searches Packagist.
type ComposerProvider struct {
	client      *Client
	baseURL     string
	platformKey string
}

var _ Provider = (*ComposerProvider)(nil)

// NewComposerProvider creates a Packagist provider.
func NewComposerProvider(client *Client, opts ComposerOptions) *ComposerProvider {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultPackagistURL
	}
	platformKey := opts.PlatformKey
	if platformKey == "" {
		platformKey = "php"
	}
	return &ComposerProvider{
		client:      client,
		baseURL:     baseURL,
		platformKey: platformKey,
	}
}

func (p *ComposerProvider) Name() string  { return "composer" }
func (p *ComposerProvider) Title() string { return "Packagist" }

// Layout returns the composer card layout.
func (p *ComposerProvider) Layout() Layout {
	return Layout{
		PlatformKey:     p.platformKey,
		PlatformLabel:   "PHP version",
		InstallCommand:  "composer require %s",
		InstallLanguage: "bash",
		TagURL:          p.baseURL + "/search/?tags=%s",
		LicenseURL:      defaultLicenseURL,
		Color:           0xF28D1A,
	}
}

func (p *ComposerProvider) SearchPageURL(term string) string {
	return p.baseURL + "/?query=" + url.QueryEscape(term)
}

func (p *ComposerProvider) DirectURL(name string) string {
	return p.baseURL + "/packages/" + name
}

type packagistSearchResponse struct {
	Results []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		URL         string `json:"url"`
		Repository  string `json:"repository"`
		Downloads   int64  `json:"downloads"`
		Favers      int64  `json:"favers"`
	} `json:"results"`
	Total int `json:"total"`
}

// Search queries /search.json.
func (p *ComposerProvider) Search(ctx context.Context, term string) (*SearchResponse, error) {
	endpoint := fmt.Sprintf("%s/search.json?q=%s", p.baseURL, url.QueryEscape(term))

	var parsed packagistSearchResponse
	if err := p.client.GetJSON(ctx, endpoint, &parsed); err != nil {
		return nil, fmt.Errorf("composer search: %w", err)
	}
	if len(parsed.Results) == 0 {
		return nil, NewError(p.Name(), ErrEmptyResult, term)
	}

	out := &SearchResponse{
		Total:   parsed.Total,
		Results: make([]SearchResult, 0, len(parsed.Results)),
	}
	for _, r := range parsed.Results {
		out.Results = append(out.Results, SearchResult{
			Name:        r.Name,
			Description: r.Description,
			URL:         r.URL,
			Repository:  r.Repository,
			Downloads:   r.Downloads,
			Stars:       r.Favers,
		})
	}
	return out, nil
}

type packagistDetailResponse struct {
	Package *struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Downloads   struct {
			Total   int64 `json:"total"`
			Monthly int64 `json:"monthly"`
			Daily   int64 `json:"daily"`
		} `json:"downloads"`
		Maintainers []struct {
			Name      string `json:"name"`
			AvatarURL string `json:"avatar_url"`
		} `json:"maintainers"`
		Versions map[string]packagistVersion `json:"versions"`
	} `json:"package"`
}

type packagistVersion struct {
	Name              string            `json:"name"`
	Version           string            `json:"version"`
	VersionNormalized string            `json:"version_normalized"`
	Time              string            `json:"time"`
	Keywords          []string          `json:"keywords"`
	Require           map[string]string `json:"require"`
	License           []string          `json:"license"`
	Homepage          string            `json:"homepage"`
	Source            *struct {
		Type      string `json:"type"`
		URL       string `json:"url"`
		Reference string `json:"reference"`
	} `json:"source"`
	Authors []struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Homepage string `json:"homepage"`
	} `json:"authors"`
}

// Detail fetches /packages/{name}.json.
func (p *ComposerProvider) Detail(ctx context.Context, name string) (*PackageDetail, error) {
	endpoint := fmt.Sprintf("%s/packages/%s.json", p.baseURL, name)

	var parsed packagistDetailResponse
	if err := p.client.GetJSON(ctx, endpoint, &parsed); err != nil {
		return nil, detailError(p.Name(), err)
	}
	pkg := parsed.Package
	if pkg == nil || pkg.Name == "" {
		return nil, NewError(p.Name(), ErrInvalidResponse, "missing package in response")
	}

	detail := &PackageDetail{
		Name:        pkg.Name,
		Description: pkg.Description,
		Downloads: []DownloadCount{
			{Period: "daily", Count: pkg.Downloads.Daily},
			{Period: "monthly", Count: pkg.Downloads.Monthly},
			{Period: "total", Count: pkg.Downloads.Total},
		},
		Maintainers: make([]Maintainer, 0, len(pkg.Maintainers)),
		Versions:    make(map[string]VersionRecord, len(pkg.Versions)),
	}
	for _, m := range pkg.Maintainers {
		detail.Maintainers = append(detail.Maintainers, Maintainer{Name: m.Name, AvatarURL: m.AvatarURL})
	}
	for id, v := range pkg.Versions {
		detail.Versions[id] = v.record()
	}
	return detail, nil
}

func (v packagistVersion) record() VersionRecord {
	rec := VersionRecord{
		Name:       v.Name,
		Version:    v.Version,
		Normalized: v.VersionNormalized,
		Time:       parseTime(v.Time),
		Keywords:   v.Keywords,
		Require:    v.Require,
		License:    v.License,
		Homepage:   v.Homepage,
	}
	if v.Source != nil {
		rec.Source = &Source{Type: v.Source.Type, URL: v.Source.URL, Reference: v.Source.Reference}
	}
	for _, a := range v.Authors {
		rec.Authors = append(rec.Authors, Author{Name: a.Name, Email: a.Email, Homepage: a.Homepage})
	}
	return rec
}
