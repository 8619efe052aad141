package lookup

import (
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-version"

	"pkgbot/pkg/registry"
)

// SentinelVersion seeds the latest-release scan; it is returned when nothing qualifies.
const SentinelVersion = "0.0.0.0"

// UnknownAge is reported when no release could be resolved.
const UnknownAge = "unknown"

// JustNowAge is reported for releases that are not in the past, including
// timestamps ahead of the local clock.
const JustNowAge = "now"

var sentinel = version.Must(version.NewVersion(SentinelVersion))

// ResolvedRelease is the release a detail card is built from.
type ResolvedRelease struct {
	// VersionID is the key of the winning record, or SentinelVersion.
	VersionID string
	// Released is the winning record's timestamp; zero when not Found.
	Released time.Time
	// Age is a relative duration such as "3 months".
	Age string
	// Found reports whether any record qualified.
	Found bool
}

// ResolveLatest picks the highest dotted release, ignoring branch refs and
// pre-release or dev versions.
func ResolveLatest(versions map[string]registry.VersionRecord, now time.Time) ResolvedRelease {
	ids := make([]string, 0, len(versions))
	for id := range versions {
		ids = append(ids, id)
	}
	// Equal versions under different keys resolve to the first key in order.
	sort.Strings(ids)

	best := sentinel
	result := ResolvedRelease{VersionID: SentinelVersion, Age: UnknownAge}

	for _, id := range ids {
		rec := versions[id]
		if !qualifies(rec.Normalized) {
			continue
		}
		v, err := version.NewVersion(rec.Normalized)
		if err != nil {
			continue
		}
		if !v.GreaterThan(best) {
			continue
		}
		best = v
		result = ResolvedRelease{
			VersionID: id,
			Released:  rec.Time,
			Found:     true,
		}
	}

	if result.Found {
		result.Age = relativeAge(result.Released, now)
	}
	return result
}

func qualifies(normalized string) bool {
	return strings.Contains(normalized, ".") &&
		!strings.Contains(normalized, "/") &&
		!strings.Contains(normalized, "-")
}

func relativeAge(released, now time.Time) string {
	if released.IsZero() {
		return UnknownAge
	}
	if !released.Before(now) {
		return JustNowAge
	}
	return strings.TrimSpace(humanize.RelTime(released, now, "", ""))
}
