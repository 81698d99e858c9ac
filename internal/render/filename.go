package render

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"hotel_recs/internal/domain"
)

const (
	slugMax      = 20
	slugFallback = "hotels"
)

// Filename is hotel-recommendations-{slug}-{YYYY-MM-DD}.pdf, the slug taken
// from the client name, else the destination, else "hotels". A value
// that slugs to nothing (e.g. "东京") counts as absent.
func Filename(meta domain.Metadata, day time.Time) string {
	slug := Slug(meta.ClientName)
	if slug == "" {
		slug = Slug(meta.Destination)
	}
	if slug == "" {
		slug = slugFallback
	}
	return "hotel-recommendations-" + slug + "-" + day.Format("2006-01-02") + ".pdf"
}

// Slug lowercases s, folds accents ("ö" -> "o"), turns every run of other
// characters into one '-', trims dashes and truncates to 20 characters.
func Slug(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.Trim(b.String(), "-")
	if len(out) > slugMax {
		out = strings.TrimRight(out[:slugMax], "-")
	}
	return out
}
