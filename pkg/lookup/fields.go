package lookup

import (
	"net/url"
	"strconv"
	"strings"

	"pkgbot/pkg/chat"
	"pkgbot/pkg/registry"
)

// Field labels.
const (
	LabelInstall      = "add to your project"
	LabelKeywords     = "keywords"
	LabelDependencies = "dependencies"
	LabelLicense      = "license"
	LabelHomepage     = "homepage"
	LabelRepository   = "repository"
	LabelAuthor       = "author"
)

// ComposeFields lays out the detail card fields for a release.
// Spacers break the three-column inline grid; the second one is skipped when
// two links and a single author already fill a row.
func ComposeFields(layout registry.Layout, detail *registry.PackageDetail, record *registry.VersionRecord) []chat.Field {
	rec := registry.VersionRecord{}
	if record != nil {
		rec = *record
	}

	fields := []chat.Field{{
		Name:  LabelInstall,
		Value: chat.CodeBlock(layout.InstallLanguage, layout.Install(detail.Name)),
	}}

	if len(rec.Keywords) > 0 {
		tags := make([]string, 0, len(rec.Keywords))
		for _, keyword := range rec.Keywords {
			tags = append(tags, chat.Link(keyword, layout.Tag(keyword)))
		}
		fields = append(fields, chat.Field{Name: LabelKeywords, Value: strings.Join(tags, ", ")})
	}

	constraint, hasPlatform := rec.Require[layout.PlatformKey]
	if hasPlatform {
		fields = append(fields, chat.Field{Name: layout.PlatformLabel, Value: constraint, Inline: true})
	}

	fields = append(fields, chat.Field{
		Name:   LabelDependencies,
		Value:  strconv.Itoa(DependencyCount(layout, rec.Require)),
		Inline: true,
	})

	if len(rec.License) > 0 {
		links := make([]string, 0, len(rec.License))
		for _, license := range rec.License {
			links = append(links, chat.Link(license, layout.License(license)))
		}
		fields = append(fields, chat.Field{Name: LabelLicense, Value: strings.Join(links, " "), Inline: true})
	}

	if len(fields) > 0 {
		fields = append(fields, chat.SpacerField)
	}

	addedLinks := 0

	if rec.Homepage != "" {
		fields = append(fields, chat.Field{
			Name:   LabelHomepage,
			Value:  chat.Link(stripScheme(rec.Homepage), rec.Homepage),
			Inline: true,
		})
		addedLinks++
	}

	if rec.Source != nil {
		if display, target, ok := repositoryLink(rec.Source.URL); ok {
			fields = append(fields, chat.Field{
				Name:   LabelRepository,
				Value:  chat.Link(display, target),
				Inline: true,
			})
			addedLinks++
		}
	}

	if !(addedLinks == 2 && len(rec.Authors) == 1) {
		fields = append(fields, chat.SpacerField)
	}

	for _, author := range rec.Authors {
		fields = append(fields, chat.Field{Name: LabelAuthor, Value: author.Name, Inline: true})
	}

	return fields
}

// DependencyCount counts third-party requirements, excluding the platform entry.
func DependencyCount(layout registry.Layout, require map[string]string) int {
	n := len(require)
	if _, ok := require[layout.PlatformKey]; ok {
		n--
	}
	return n
}

func stripScheme(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return raw
	}
	return strings.TrimPrefix(raw, u.Scheme+"://")
}

// repositoryLink renders git remotes as owner/name links. Only .git URLs qualify.
func repositoryLink(raw string) (display, target string, ok bool) {
	if !strings.HasSuffix(raw, ".git") {
		return "", "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", "", false
	}
	display = strings.TrimSuffix(strings.TrimPrefix(u.Path, "/"), ".git")
	if display == "" {
		return "", "", false
	}
	return display, strings.TrimSuffix(raw, ".git"), true
}
