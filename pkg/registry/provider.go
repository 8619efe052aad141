package registry

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Provider is a package-registry integration supplying search and detail endpoints.
type Provider interface {
	// Name is the command keyword, e.g. "composer".
	Name() string
	// Title is the human-readable registry name, e.g. "Packagist".
	Title() string
	// Layout describes how detail cards for this registry are laid out.
	Layout() Layout
	// SearchPageURL links to the registry's own search page for term.
	SearchPageURL(term string) string
	// DirectURL is the canonical web page of a package.
	DirectURL(name string) string
	// Search queries the search endpoint. Zero matches yield ErrEmptyResult.
	Search(ctx context.Context, term string) (*SearchResponse, error)
	// Detail fetches extended info. Malformed or error payloads yield ErrInvalidResponse.
	Detail(ctx context.Context, name string) (*PackageDetail, error)
}

// Layout holds the provider-specific strings used when composing detail fields.
type Layout struct {
	// PlatformKey is the dependency name that denotes the runtime itself ("php").
	PlatformKey string
	// PlatformLabel is the field label for the runtime constraint ("PHP version").
	PlatformLabel string
	// InstallCommand is a format string taking the package name.
	InstallCommand string
	// InstallLanguage is the code block language of the install snippet.
	InstallLanguage string
	// TagURL is a format string taking the escaped keyword.
	TagURL string
	// LicenseURL is a format string taking the lower-cased license identifier.
	LicenseURL string
	// Color is the accent color of cards for this registry.
	Color int
}

// Install renders the install command for name.
func (l Layout) Install(name string) string {
	return fmt.Sprintf(l.InstallCommand, name)
}

// Tag links a keyword to the registry's tag search.
func (l Layout) Tag(keyword string) string {
	return fmt.Sprintf(l.TagURL, url.QueryEscape(keyword))
}

// License links a license identifier to its reference page.
func (l Layout) License(license string) string {
	return fmt.Sprintf(l.LicenseURL, strings.ToLower(license))
}

const defaultLicenseURL = "https://choosealicense.com/licenses/%s"
