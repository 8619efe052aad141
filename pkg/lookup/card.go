package lookup

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"pkgbot/pkg/chat"
	"pkgbot/pkg/registry"
)

// ListCard builds the candidate list message.
func ListCard(p registry.Provider, term string, total int, listing Listing) chat.Card {
	return chat.Card{
		Title:       fmt.Sprintf("%s: %s", p.Title(), term),
		URL:         p.SearchPageURL(term),
		Description: listing.Text,
		Footer:      fmt.Sprintf("%s packages found", humanize.Comma(int64(total))),
		Color:       p.Layout().Color,
	}
}

// DetailCard builds the final card for a package and its resolved release.
func DetailCard(p registry.Provider, detail *registry.PackageDetail, release ResolvedRelease) chat.Card {
	layout := p.Layout()

	var record *registry.VersionRecord
	if release.Found {
		if rec, ok := detail.Versions[release.VersionID]; ok {
			record = &rec
		}
	}

	card := chat.Card{
		Title:       fmt.Sprintf("%s %s", detail.Name, chat.Italic("("+release.VersionID+")")),
		URL:         p.DirectURL(detail.Name),
		Description: detail.Description,
		Footer:      DetailFooter(detail.Downloads, release),
		Fields:      ComposeFields(layout, detail, record),
		Color:       layout.Color,
	}
	if len(detail.Maintainers) > 0 {
		m := detail.Maintainers[0]
		card.Author = &chat.Author{Name: m.Name, IconURL: m.AvatarURL}
	}
	return card
}

// DetailFooter renders download counts and the release age.
func DetailFooter(downloads []registry.DownloadCount, release ResolvedRelease) string {
	periods := make([]string, 0, len(downloads))
	for _, d := range downloads {
		periods = append(periods, fmt.Sprintf("%s %s", humanize.Comma(d.Count), d.Period))
	}

	var sb strings.Builder
	sb.WriteString("Downloads: ")
	sb.WriteString(strings.Join(periods, " | "))
	switch {
	case !release.Found || release.Age == UnknownAge:
		sb.WriteString("\nlast updated: unknown")
	case release.Age == JustNowAge:
		sb.WriteString("\nlast updated just now")
	default:
		fmt.Fprintf(&sb, "\nlast updated %s ago", release.Age)
	}
	return sb.String()
}
