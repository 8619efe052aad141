package lookup

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"pkgbot/pkg/chat"
	"pkgbot/pkg/registry"
)

// MaxCandidates is the number of search results offered for selection.
const MaxCandidates = 10

const ellipsis = "…"

// ListOptions bounds the rendered candidate list.
type ListOptions struct {
	// MaxLength is the rune ceiling of the whole list (default 2048).
	MaxLength int
	// MinDescription is the shortest description kept after truncation (default 24).
	MinDescription int
}

// DefaultListOptions returns the Discord embed description limits.
func DefaultListOptions() ListOptions {
	return ListOptions{MaxLength: 2048, MinDescription: 24}
}

func (o ListOptions) withDefaults() ListOptions {
	d := DefaultListOptions()
	if o.MaxLength <= 0 {
		o.MaxLength = d.MaxLength
	}
	if o.MinDescription <= 0 {
		o.MinDescription = d.MinDescription
	}
	return o
}

// Listing is a rendered candidate list.
type Listing struct {
	Text string
	// Shown is how many leading candidates made it into Text.
	Shown int
}

// RenderCandidates renders a numbered, linked list of results within opts.MaxLength.
//
// Descriptions share one budget. Each entry may use whatever is left after
// reserving MinDescription for every later entry, so earlier entries get more
// room. If the floors still overflow, descriptions are dropped from the tail
// and then trailing entries are dropped.
func RenderCandidates(results []registry.SearchResult, opts ListOptions) Listing {
	opts = opts.withDefaults()
	if len(results) > MaxCandidates {
		results = results[:MaxCandidates]
	}

	descs := make([]string, len(results))
	for i, r := range results {
		descs[i] = strings.Join(strings.Fields(r.Description), " ")
	}

	fixed := 0
	for i, r := range results {
		fixed += utf8.RuneCountInString(renderEntry(i, r, descs[i] != "", ""))
	}
	if len(results) > 1 {
		fixed += len(results) - 1
	}

	budget := opts.MaxLength - fixed
	for i := range descs {
		if descs[i] == "" {
			continue
		}
		later := 0
		for _, d := range descs[i+1:] {
			if d != "" {
				later++
			}
		}
		allowance := budget - later*opts.MinDescription
		if allowance < opts.MinDescription {
			allowance = opts.MinDescription
		}
		descs[i] = truncate(descs[i], allowance)
		budget -= utf8.RuneCountInString(descs[i])
	}

	shown := len(results)
	text := renderList(results[:shown], descs)
	for i := shown - 1; i >= 0 && utf8.RuneCountInString(text) > opts.MaxLength; i-- {
		descs[i] = ""
		text = renderList(results[:shown], descs)
	}
	for shown > 0 && utf8.RuneCountInString(text) > opts.MaxLength {
		shown--
		text = renderList(results[:shown], descs)
	}

	return Listing{Text: text, Shown: shown}
}

func renderList(results []registry.SearchResult, descs []string) string {
	lines := make([]string, 0, len(results))
	for i, r := range results {
		lines = append(lines, renderEntry(i, r, descs[i] != "", descs[i]))
	}
	return chat.Lines(lines)
}

func renderEntry(index int, r registry.SearchResult, withDescription bool, desc string) string {
	title := chat.Bold(r.Name)
	if withDescription {
		title += " - " + chat.Italic(desc)
	}
	return chat.ListItem(index, chat.Link(title, r.URL))
}

// truncate shortens s to at most limit runes, marking the cut with an ellipsis.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	cut := strings.TrimRightFunc(string(runes[:limit-1]), unicode.IsSpace)
	return cut + ellipsis
}
