package registry

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	// DefaultNPMRegistryURL is the public npm registry.
	DefaultNPMRegistryURL = "https://registry.npmjs.org"
	// DefaultNPMDownloadsURL serves npm download counts.
	DefaultNPMDownloadsURL = "https://api.npmjs.org"
	// DefaultNPMWebURL is the npm website.
	DefaultNPMWebURL = "https://www.npmjs.com"

	npmSearchSize = 10
)

// NPMOptions configures the npm provider.
type NPMOptions struct {
	RegistryURL  string
	DownloadsURL string
	WebURL       string
	// PlatformKey is the dependency entry naming the runtime. npm manifests rarely
	// list it among dependencies, so the platform field is usually omitted.
	PlatformKey string
}

// NPMProvider searches the npm registry.
type NPMProvider struct {
	client       *Client
	registryURL  string
	downloadsURL string
	webURL       string
	platformKey  string
}

var _ Provider = (*NPMProvider)(nil)

// NewNPMProvider creates an npm provider.
func NewNPMProvider(client *Client, opts NPMOptions) *NPMProvider {
	p := &NPMProvider{
		client:       client,
		registryURL:  strings.TrimRight(opts.RegistryURL, "/"),
		downloadsURL: strings.TrimRight(opts.DownloadsURL, "/"),
		webURL:       strings.TrimRight(opts.WebURL, "/"),
		platformKey:  opts.PlatformKey,
	}
	if p.registryURL == "" {
		p.registryURL = DefaultNPMRegistryURL
	}
	if p.downloadsURL == "" {
		p.downloadsURL = DefaultNPMDownloadsURL
	}
	if p.webURL == "" {
		p.webURL = DefaultNPMWebURL
	}
	if p.platformKey == "" {
		p.platformKey = "node"
	}
	return p
}

func (p *NPMProvider) Name() string  { return "npm" }
func (p *NPMProvider) Title() string { return "npm" }

// Layout returns the npm card layout.
func (p *NPMProvider) Layout() Layout {
	return Layout{
		PlatformKey:     p.platformKey,
		PlatformLabel:   "Node version",
		InstallCommand:  "npm install %s",
		InstallLanguage: "bash",
		TagURL:          p.webURL + "/search?q=keywords:%s",
		LicenseURL:      defaultLicenseURL,
		Color:           0xCB3837,
	}
}

func (p *NPMProvider) SearchPageURL(term string) string {
	return p.webURL + "/search?q=" + url.QueryEscape(term)
}

func (p *NPMProvider) DirectURL(name string) string {
	return p.webURL + "/package/" + name
}

type npmSearchResponse struct {
	Objects []struct {
		Package struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			Links       struct {
				NPM        string `json:"npm"`
				Homepage   string `json:"homepage"`
				Repository string `json:"repository"`
			} `json:"links"`
		} `json:"package"`
		Downloads struct {
			Monthly int64 `json:"monthly"`
			Weekly  int64 `json:"weekly"`
		} `json:"downloads"`
	} `json:"objects"`
	Total int `json:"total"`
}

// Search queries /-/v1/search.
func (p *NPMProvider) Search(ctx context.Context, term string) (*SearchResponse, error) {
	endpoint := fmt.Sprintf("%s/-/v1/search?text=%s&size=%d", p.registryURL, url.QueryEscape(term), npmSearchSize)

	var parsed npmSearchResponse
	if err := p.client.GetJSON(ctx, endpoint, &parsed); err != nil {
		return nil, fmt.Errorf("npm search: %w", err)
	}
	if len(parsed.Objects) == 0 {
		return nil, NewError(p.Name(), ErrEmptyResult, term)
	}

	out := &SearchResponse{
		Total:   parsed.Total,
		Results: make([]SearchResult, 0, len(parsed.Objects)),
	}
	for _, o := range parsed.Objects {
		link := o.Package.Links.NPM
		if link == "" {
			link = p.DirectURL(o.Package.Name)
		}
		out.Results = append(out.Results, SearchResult{
			Name:        o.Package.Name,
			Description: o.Package.Description,
			URL:         link,
			Repository:  o.Package.Links.Repository,
			Downloads:   o.Downloads.Monthly,
		})
	}
	return out, nil
}

type npmPerson struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	URL   string `json:"url"`
}

var personPattern = regexp.MustCompile(`^\s*([^<(]*?)\s*(?:<([^>]*)>)?\s*(?:\(([^)]*)\))?\s*$`)

// UnmarshalJSON accepts both {"name": ...} objects and "Name <email> (url)" strings.
func (n *npmPerson) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if m := personPattern.FindStringSubmatch(s); m != nil {
			n.Name, n.Email, n.URL = m[1], m[2], m[3]
		} else {
			n.Name = s
		}
		return nil
	}
	type plain npmPerson
	var obj plain
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*n = npmPerson(obj)
	return nil
}

type npmLicense []string

// UnmarshalJSON accepts "MIT", {"type": "MIT"} and arrays of either.
func (l *npmLicense) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "" {
			*l = npmLicense{s}
		}
		return nil
	}
	var obj struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		if obj.Type != "" {
			*l = npmLicense{obj.Type}
		}
		return nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	for _, raw := range list {
		var item npmLicense
		if err := item.UnmarshalJSON(raw); err != nil {
			return err
		}
		*l = append(*l, item...)
	}
	return nil
}

type npmRepository struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// UnmarshalJSON accepts both {"url": ...} objects and shorthand strings.
func (r *npmRepository) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.URL = s
		return nil
	}
	type plain npmRepository
	var obj plain
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*r = npmRepository(obj)
	return nil
}

type npmVersion struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Description  string            `json:"description"`
	Keywords     []string          `json:"keywords"`
	Dependencies map[string]string `json:"dependencies"`
	License      npmLicense        `json:"license"`
	Licenses     npmLicense        `json:"licenses"`
	Homepage     string            `json:"homepage"`
	Repository   *npmRepository    `json:"repository"`
	Author       *npmPerson        `json:"author"`
	Contributors []npmPerson       `json:"contributors"`
}

type npmDocument struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Maintainers []npmPerson           `json:"maintainers"`
	Versions    map[string]npmVersion `json:"versions"`
	Time        map[string]string     `json:"time"`
	Error       string                `json:"error"`
}

type npmDownloadsPoint struct {
	Downloads int64  `json:"downloads"`
	Error     string `json:"error"`
}

// Detail fetches the package document and its weekly and monthly download counts.
func (p *NPMProvider) Detail(ctx context.Context, name string) (*PackageDetail, error) {
	endpoint := fmt.Sprintf("%s/%s", p.registryURL, url.PathEscape(name))

	var doc npmDocument
	if err := p.client.GetJSON(ctx, endpoint, &doc); err != nil {
		return nil, detailError(p.Name(), err)
	}
	if doc.Error != "" {
		return nil, NewError(p.Name(), ErrInvalidResponse, doc.Error)
	}
	if doc.Name == "" || len(doc.Versions) == 0 {
		return nil, NewError(p.Name(), ErrInvalidResponse, "missing package document")
	}

	detail := &PackageDetail{
		Name:        doc.Name,
		Description: doc.Description,
		Maintainers: make([]Maintainer, 0, len(doc.Maintainers)),
		Versions:    make(map[string]VersionRecord, len(doc.Versions)),
	}

	for _, period := range []struct{ label, path string }{
		{"weekly", "last-week"},
		{"monthly", "last-month"},
	} {
		var point npmDownloadsPoint
		pointURL := fmt.Sprintf("%s/downloads/point/%s/%s", p.downloadsURL, period.path, name)
		if err := p.client.GetJSON(ctx, pointURL, &point); err != nil {
			return nil, detailError(p.Name(), err)
		}
		if point.Error != "" {
			return nil, NewError(p.Name(), ErrInvalidResponse, point.Error)
		}
		detail.Downloads = append(detail.Downloads, DownloadCount{Period: period.label, Count: point.Downloads})
	}

	for _, m := range doc.Maintainers {
		detail.Maintainers = append(detail.Maintainers, Maintainer{Name: m.Name, AvatarURL: gravatarURL(m.Email)})
	}
	for id, v := range doc.Versions {
		detail.Versions[id] = v.record(parseTime(doc.Time[id]))
	}
	return detail, nil
}

func (v npmVersion) record(published time.Time) VersionRecord {
	rec := VersionRecord{
		Name:       v.Name,
		Version:    v.Version,
		Normalized: v.Version,
		Time:       published,
		Keywords:   v.Keywords,
		Require:    v.Dependencies,
		License:    append([]string(nil), v.License...),
		Homepage:   v.Homepage,
	}
	if len(rec.License) == 0 {
		rec.License = append(rec.License, v.Licenses...)
	}
	if v.Repository != nil && v.Repository.URL != "" {
		rec.Source = &Source{Type: v.Repository.Type, URL: normalizeRepositoryURL(v.Repository.URL)}
	}
	if v.Author != nil && v.Author.Name != "" {
		rec.Authors = append(rec.Authors, Author{Name: v.Author.Name, Email: v.Author.Email, Homepage: v.Author.URL})
	}
	for _, c := range v.Contributors {
		if c.Name != "" {
			rec.Authors = append(rec.Authors, Author{Name: c.Name, Email: c.Email, Homepage: c.URL})
		}
	}
	return rec
}

// normalizeRepositoryURL turns npm repository specs into browsable https URLs.
func normalizeRepositoryURL(raw string) string {
	u := strings.TrimPrefix(raw, "git+")
	switch {
	case strings.HasPrefix(u, "git://"):
		u = "https://" + strings.TrimPrefix(u, "git://")
	case strings.HasPrefix(u, "ssh://git@"):
		u = "https://" + strings.TrimPrefix(u, "ssh://git@")
	case strings.HasPrefix(u, "git@"):
		u = "https://" + strings.Replace(strings.TrimPrefix(u, "git@"), ":", "/", 1)
	case strings.HasPrefix(u, "github:"):
		u = "https://github.com/" + strings.TrimPrefix(u, "github:") + ".git"
	case !strings.Contains(u, "://") && strings.Count(u, "/") == 1:
		u = "https://github.com/" + u + ".git"
	}
	return u
}

func gravatarURL(email string) string {
	if email == "" {
		return ""
	}
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "https://www.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?s=64&d=retro"
}
