package transformer

import (
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-catalog/entity"
)

const (
	MaxTitleLength       = 60
	MaxDescriptionLength = 160
)

// NormalizeSEO derives the search metadata of a product. Empty meta fields fall
// back to the product name and descriptions.
func NormalizeSEO(kind entity.ProductKind, base entity.ProductBase) SEO {
	title := collapse(base.MetaTitle)
	if title == "" {
		title = collapse(base.Name)
	}

	description := collapse(base.MetaDescription)
	if description == "" {
		description = collapse(base.ShortDescription)
	}
	if description == "" {
		description = collapse(base.Description)
	}

	return SEO{
		Title:       truncate(title, MaxTitleLength),
		Description: truncate(description, MaxDescriptionLength),
		Keywords:    Keywords(base.MetaKeywords),
		Canonical:   "/" + strings.ToLower(string(kind)) + "/" + Slug(base.Slug, base.Name),
	}
}

// Keywords splits a comma separated list, lower-cases and trims every entry
// and drops blanks and duplicates.
func Keywords(raw string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		kw := strings.ToLower(collapse(part))
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to at most n runes, preferring the last word boundary.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	full := []rune(s)
	cut := string(full[:n])
	if full[n] == ' ' {
		return strings.TrimRight(cut, " ,.;:-")
	}
	if i := strings.LastIndexByte(cut, ' '); i > 0 && utf8.RuneCountInString(cut[:i]) >= n/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:-")
}
