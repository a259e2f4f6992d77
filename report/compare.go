package report

import (
	"strings"

	version "github.com/hashicorp/go-version"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/psirt-checker/advisory"
	"github.com/aquasecurity/psirt-checker/config"
)

// Comparator orders two release strings.
type Comparator func(a, b string) int

// Lexical compares releases as plain strings. "15.2(10)" sorts before
// "15.2(9)", which is a known approximation.
func Lexical(a, b string) int {
	return strings.Compare(a, b)
}

// Semantic compares releases as versions. Releases that do not parse, such
// as IOS trains like "15.2(7)E4", rank above every version and compare
// lexically among themselves. A letter glued to the last segment, as in the
// IOS-XE rebuild "17.3.4a", ranks above the plain release, while a dashed
// suffix such as "17.3.4-rc1" stays a pre-release.
func Semantic(a, b string) int {
	va, errA := version.NewVersion(a)
	vb, errB := version.NewVersion(b)
	switch {
	case errA != nil && errB != nil:
		return Lexical(a, b)
	case errA != nil:
		return 1
	case errB != nil:
		return -1
	}

	if c := compareSegments(va.Segments64(), vb.Segments64()); c != 0 {
		return c
	}
	if ra, rb := suffixRank(va), suffixRank(vb); ra != rb {
		return ra - rb
	}
	if c := va.Compare(vb); c != 0 {
		return c
	}
	return Lexical(a, b)
}

func compareSegments(a, b []int64) int {
	for i := 0; i < len(a) || i < len(b); i++ {
		var x, y int64
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}

func suffixRank(v *version.Version) int {
	pre := v.Prerelease()
	switch {
	case pre == "":
		return 1
	case strings.Contains(v.Original(), "-"+pre):
		return 0
	default:
		return 2
	}
}

func ComparatorFor(name string) (Comparator, error) {
	switch name {
	case "", config.CompareLexical:
		return Lexical, nil
	case config.CompareSemantic:
		return Semantic, nil
	}
	return nil, xerrors.Errorf("unknown comparator: %s", name)
}

// MinimumSuggestedRelease returns the highest first-fixed release across the
// advisories, i.e. the lowest release that fixes all of them. Unknown values
// are ignored; Unknown is returned when nothing else is left.
func MinimumSuggestedRelease(advisories []advisory.Record, cmp Comparator) string {
	releases := lo.Filter(lo.FlatMap(advisories, func(a advisory.Record, _ int) []string {
		return a.FirstFixed
	}), func(r string, _ int) bool {
		return r != "" && r != advisory.Unknown
	})
	if len(releases) == 0 {
		return advisory.Unknown
	}

	slices.SortFunc(releases, cmp)
	return releases[len(releases)-1]
}
