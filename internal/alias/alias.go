// internal/alias/alias.go
//
// Slug and alias helpers.
//
// • Slug(title) ─ converts arbitrary text into a URL-safe slug restricted to
//   ASCII a-z, 0-9 and “-”.
// • Format(path, id, title) ─ builds the public alias of one uuid:
//
//	/<slug(path[0])>/…/<slug(path[n])>/<id>/<slug(title)>
//
// Rules (Slug)
// ------------
// 1. Lower-case everything.
// 2. Transliterate ä, ö, ü, and ß (content is mostly German).
// 3. Convert any run of other non-[a-z0-9] characters to one “-”.
// 4. Trim leading / trailing “-”.
// 5. Cap at 100 bytes, trimming a dash left dangling by the cut.
//
// Notes
// -----
// • Slug may return "".  Format never does: an empty title slug falls back
//   to the numeric id, so every alias carries at least "/<id>/<id>".
// • Oxford commas, two spaces after periods.

package alias

import (
	"strconv"
	"strings"
)

const maxSlugLen = 100

var transliterations = map[rune]string{
	'ä': "ae",
	'ö': "oe",
	'ü': "ue",
	'ß': "ss",
}

// Slug converts title → lower-kebab ASCII.
func Slug(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	lastWasDash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastWasDash = false
		case transliterations[r] != "":
			b.WriteString(transliterations[r])
			lastWasDash = false
		default:
			// any other non-ASCII or punctuation becomes a single dash
			if !lastWasDash {
				b.WriteRune('-')
				lastWasDash = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	return slug
}

// Format joins the context path, id, and title into an alias.  Path
// segments that slug to "" are skipped.
func Format(path []string, id int, title string) string {
	ids := strconv.Itoa(id)

	var b strings.Builder
	for _, p := range path {
		if s := Slug(p); s != "" {
			b.WriteByte('/')
			b.WriteString(s)
		}
	}

	suffix := Slug(title)
	if suffix == "" {
		suffix = ids
	}

	b.WriteByte('/')
	b.WriteString(ids)
	b.WriteByte('/')
	b.WriteString(suffix)
	return b.String()
}
