package router

import (
	"strings"

	"github.com/wayfind-dev/wayfind/pkg/search"
)

// ParsedLocation is a fully decoded URL location.
type ParsedLocation struct {
	// Href is pathname + encoded search + hash.
	Href string

	Pathname string

	// Search is the decoded search mapping.
	Search search.Params

	// SearchStr is the encoded search without the leading "?".
	SearchStr string

	Hash string

	// State is opaque data attached by the history backend. Excluded
	// from navigation equivalence.
	State map[string]any

	// Mask, when set, is the public-facing location shown to the
	// user in place of this one.
	Mask *ParsedLocation
}

// NavEquals reports navigation equivalence: identical pathname,
// encoded search, and hash. State is deliberately excluded.
func (l ParsedLocation) NavEquals(o ParsedLocation) bool {
	return l.Pathname == o.Pathname && l.SearchStr == o.SearchStr && l.Hash == o.Hash
}

// PublicHref returns the href the user should see: the mask when one
// is set, the real href otherwise.
func (l ParsedLocation) PublicHref() string {
	if l.Mask != nil {
		return l.Mask.Href
	}
	return l.Href
}

// MaskOptions describes a public-facing location distinct from the
// resolved one, used for privacy-preserving dynamic segments.
type MaskOptions struct {
	To     string
	Search search.Params
}

// ToOptions describes a navigation target.
type ToOptions struct {
	// To is the target path: absolute ("/posts/$id"), relative
	// ("../settings"), or "." for the current path. Dynamic segments
	// are interpolated from Params.
	To string

	// From overrides the pathname relative targets resolve against
	// (default: the current location's pathname).
	From string

	// Params interpolates "$name" segments in To; the splat segment
	// "$" is filled from Params["*"].
	Params map[string]string

	// Search replaces the search params. With SearchMerge set it is
	// layered over the current params instead (nil values delete).
	Search search.Params

	// SearchMerge merges Search over the current params.
	SearchMerge bool

	// UpdateSearch, when set, derives the next search params from
	// the current ones. Applied after Search/SearchMerge.
	UpdateSearch func(search.Params) search.Params

	Hash string

	// State is attached to the history entry.
	State map[string]any

	// Mask publishes a different href than the resolved one.
	Mask *MaskOptions

	// Replace uses history replace instead of push.
	Replace bool

	// Force reruns the navigation even when the target is
	// navigation-equivalent to the current location.
	Force bool
}

// ParseLocation decodes an href into a ParsedLocation.
func ParseLocation(href string, codec search.Codec) (ParsedLocation, error) {
	loc := ParsedLocation{Href: href}

	rest := href
	if i := strings.IndexByte(rest, '#'); i != -1 {
		loc.Hash = rest[i+1:]
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '?'); i != -1 {
		loc.SearchStr = rest[i+1:]
		rest = rest[:i]
	}
	loc.Pathname = cleanPathname(rest)

	params, err := codec.Parse(loc.SearchStr)
	if err != nil {
		return ParsedLocation{}, &SearchParseError{Search: loc.SearchStr, Err: err}
	}
	loc.Search = params

	loc.Href = assembleHref(loc.Pathname, loc.SearchStr, loc.Hash)
	return loc, nil
}

// BuildLocation resolves a navigation target against the current
// location: relative paths, param interpolation, search merge or
// replace, and masking.
func BuildLocation(cur ParsedLocation, to ToOptions, codec search.Codec) (ParsedLocation, error) {
	from := to.From
	if from == "" {
		from = cur.Pathname
	}

	pathname := resolvePathname(from, to.To)
	pathname = interpolateParams(pathname, to.Params)

	params := cur.Search
	switch {
	case to.SearchMerge:
		params = search.Merge(cur.Search, to.Search)
	case to.Search != nil:
		params = search.Clone(to.Search)
	}
	if to.UpdateSearch != nil {
		params = to.UpdateSearch(search.Clone(params))
	}
	if params == nil {
		params = search.Params{}
	}

	searchStr, err := codec.Serialize(params)
	if err != nil {
		return ParsedLocation{}, &SearchParseError{Err: err}
	}

	loc := ParsedLocation{
		Pathname:  pathname,
		Search:    params,
		SearchStr: searchStr,
		Hash:      to.Hash,
		State:     to.State,
	}
	loc.Href = assembleHref(loc.Pathname, loc.SearchStr, loc.Hash)

	if to.Mask != nil {
		masked, err := BuildLocation(cur, ToOptions{
			To:     to.Mask.To,
			From:   to.From,
			Params: to.Params,
			Search: to.Mask.Search,
		}, codec)
		if err != nil {
			return ParsedLocation{}, err
		}
		loc.Mask = &masked
	}

	return loc, nil
}

// resolvePathname applies a To target to a base pathname.
func resolvePathname(base, to string) string {
	switch {
	case to == "" || to == ".":
		return cleanPathname(base)
	case strings.HasPrefix(to, "/"):
		return cleanPathname(to)
	}

	segments := splitPath(base)
	for _, part := range strings.Split(to, "/") {
		switch part {
		case "", ".":
		case "..":
			if len(segments) > 0 {
				segments = segments[:len(segments)-1]
			}
		default:
			segments = append(segments, part)
		}
	}
	return "/" + strings.Join(segments, "/")
}

// interpolateParams substitutes $name segments from params. The splat
// segment "$" takes Params["*"], which may span several segments.
func interpolateParams(pathname string, params map[string]string) string {
	if len(params) == 0 || !strings.Contains(pathname, "$") {
		return pathname
	}
	segments := splitPath(pathname)
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch {
		case seg == "$":
			if v, ok := params["*"]; ok {
				out = append(out, strings.Trim(v, "/"))
				continue
			}
			out = append(out, seg)
		case strings.HasPrefix(seg, "$"):
			if v, ok := params[strings.TrimPrefix(seg, "$")]; ok {
				out = append(out, v)
				continue
			}
			out = append(out, seg)
		default:
			out = append(out, seg)
		}
	}
	return "/" + strings.Join(out, "/")
}

// cleanPathname normalizes a pathname: leading slash, no trailing
// slash (except root), collapsed empty segments.
func cleanPathname(p string) string {
	segments := splitPath(p)
	if len(segments) == 0 {
		return "/"
	}
	return "/" + strings.Join(segments, "/")
}

func assembleHref(pathname, searchStr, hash string) string {
	href := pathname
	if searchStr != "" {
		href += "?" + searchStr
	}
	if hash != "" {
		href += "#" + hash
	}
	return href
}
