// Package registry models package-registry search and detail payloads and the providers
// that fetch them.
package registry

import "time"

// SearchResult is one candidate returned by a registry search, in relevance order.
type SearchResult struct {
	Name        string
	Description string
	URL         string
	Repository  string
	Downloads   int64
	Stars       int64
}

// SearchResponse is the decoded search endpoint payload.
type SearchResponse struct {
	Total   int
	Results []SearchResult
}

// DownloadCount is the number of downloads within a named period ("daily", "total", ...).
type DownloadCount struct {
	Period string
	Count  int64
}

// Maintainer is a registry account responsible for a package.
type Maintainer struct {
	Name      string
	AvatarURL string
}

// Author is a person credited in a version's manifest.
type Author struct {
	Name     string
	Email    string
	Homepage string
}

// Source describes where a version's code lives.
type Source struct {
	Type      string
	URL       string
	Reference string
}

// VersionRecord is one published version of a package.
//
// Normalized may be a branch label such as "dev-master" or "9999999-dev" rather than a
// dotted version.
type VersionRecord struct {
	Name       string
	Version    string
	Normalized string
	Time       time.Time
	Keywords   []string
	Require    map[string]string
	License    []string
	Homepage   string
	Source     *Source
	Authors    []Author
}

// PackageDetail is the extended-info payload for one package.
type PackageDetail struct {
	Name        string
	Description string
	// Downloads are listed in display order.
	Downloads   []DownloadCount
	Maintainers []Maintainer
	// Versions is keyed by the registry's version identifier.
	Versions map[string]VersionRecord
}
