package semver

import (
	"strconv"
	"strings"
)

// Version is a dotted numeric release tag such as "v2024.05.3.0", with an
// optional "-preview" style suffix.
type Version struct {
	Parts []int
	Pre   string
}

// Parse reads a release tag. ok is false when the tag has no numeric core.
func Parse(tag string) (v Version, ok bool) {
	tag = strings.TrimSpace(tag)
	tag = strings.TrimPrefix(strings.TrimPrefix(tag, "v"), "V")

	core := tag
	if idx := strings.IndexAny(tag, "-+"); idx >= 0 {
		core = tag[:idx]
		v.Pre = strings.ToLower(tag[idx+1:])
	}
	if core == "" {
		return Version{}, false
	}

	for _, s := range strings.Split(core, ".") {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return Version{}, false
		}
		v.Parts = append(v.Parts, n)
	}
	return v, true
}

// Compare returns -1, 0 or +1 as a is older than, equal to, or newer than b.
// A tag with a suffix sorts before the same tag without one. Tags that do
// not parse sort before those that do and compare as plain strings among
// themselves.
func Compare(a, b string) int {
	av, aok := Parse(a)
	bv, bok := Parse(b)
	switch {
	case !aok && !bok:
		return strings.Compare(a, b)
	case !aok:
		return -1
	case !bok:
		return 1
	}

	for i := range max(len(av.Parts), len(bv.Parts)) {
		x, y := at(av.Parts, i), at(bv.Parts, i)
		if x != y {
			if x < y {
				return -1
			}
			return 1
		}
	}

	switch {
	case av.Pre == bv.Pre:
		return 0
	case av.Pre == "":
		return 1
	case bv.Pre == "":
		return -1
	}
	return comparePre(av.Pre, bv.Pre)
}

func at(parts []int, i int) int {
	if i < len(parts) {
		return parts[i]
	}
	return 0
}

// comparePre orders "preview2" before "preview10".
func comparePre(a, b string) int {
	aText, an := splitTrailingNumber(a)
	bText, bn := splitTrailingNumber(b)
	if c := strings.Compare(aText, bText); c != 0 {
		return c
	}
	switch {
	case an < bn:
		return -1
	case an > bn:
		return 1
	}
	return 0
}

func splitTrailingNumber(s string) (string, int) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return s, 0
	}
	return s[:i], n
}
