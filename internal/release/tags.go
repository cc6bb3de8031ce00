package release

import (
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/marcin-skalski/relnotes/internal/github"
)

// SortTags orders tags newest version first. Tags that are not semantic
// versions keep their provider order after the versioned ones.
func SortTags(tags []github.Tag) []github.Tag {
	type entry struct {
		tag github.Tag
		ver *semver.Version
	}

	var versioned, other []entry
	for _, t := range tags {
		v, err := semver.NewVersion(t.Name)
		if err != nil {
			other = append(other, entry{tag: t})
			continue
		}
		versioned = append(versioned, entry{tag: t, ver: v})
	}

	sort.SliceStable(versioned, func(i, j int) bool {
		return versioned[i].ver.GreaterThan(versioned[j].ver)
	})

	out := make([]github.Tag, 0, len(tags))
	for _, e := range versioned {
		out = append(out, e.tag)
	}
	for _, e := range other {
		out = append(out, e.tag)
	}
	return out
}

// NextPatch suggests the version after the newest semantic version tag, keeping
// a leading "v" if the tag had one. It returns "" when no tag is a version.
func NextPatch(tags []github.Tag) string {
	sorted := SortTags(tags)
	if len(sorted) == 0 {
		return ""
	}
	v, err := semver.NewVersion(sorted[0].Name)
	if err != nil {
		return ""
	}
	// A prerelease such as 1.2.0-rc.1 is followed by 1.2.0 itself.
	next := v.IncPatch()
	if len(v.Original()) > 0 && v.Original()[0] == 'v' {
		return "v" + next.String()
	}
	return next.String()
}
