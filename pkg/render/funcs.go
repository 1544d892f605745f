package render

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig"
	goVersion "github.com/hashicorp/go-version"
)

var nonLabelChars = regexp.MustCompile(`[^a-z0-9-]+`)

// funcMap returns the functions available to templates: the sprig library
// plus the confgen helpers. Only deterministic functions are used by the
// built-in template.
func funcMap() template.FuncMap {
	funcs := sprig.TxtFuncMap()
	funcs["sortVersions"] = sortVersions
	funcs["hostLabel"] = hostLabel
	funcs["hostOf"] = hostOf
	return funcs
}

// sortVersions returns a copy of `tags` ordered newest first. Tags that
// aren't valid versions are placed after the valid ones, in lexical order.
func sortVersions(tags []string) []string {
	type tag struct {
		raw    string
		parsed *goVersion.Version
	}

	parsed := make([]tag, 0, len(tags))
	for _, raw := range tags {
		v, err := goVersion.NewVersion(raw)
		if err != nil {
			v = nil
		}
		parsed = append(parsed, tag{raw, v})
	}

	sort.SliceStable(parsed, func(i, j int) bool {
		a, b := parsed[i], parsed[j]
		switch {
		case a.parsed != nil && b.parsed != nil:
			if cmp := a.parsed.Compare(b.parsed); cmp != 0 {
				return cmp > 0
			}
			return a.raw < b.raw
		case a.parsed != nil:
			return true
		case b.parsed != nil:
			return false
		default:
			return a.raw < b.raw
		}
	})

	sorted := make([]string, len(parsed))
	for i, t := range parsed {
		sorted[i] = t.raw
	}
	return sorted
}

// hostLabel converts a version tag into something usable as part of a DNS
// label. For example, "v1.2.0" becomes "v1-2-0". Tags without any letter
// or digit give an empty label. Distinct tags may give the same label, in
// which case the built-in template only serves the newest of them.
func hostLabel(s string) string {
	label := nonLabelChars.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(label, "-")
}

// hostOf returns the host (and port) of a URL, or the input unchanged if it
// can't be parsed.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
