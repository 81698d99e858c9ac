package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hotel_recs/internal/domain"
	"hotel_recs/internal/layout"
)

const (
	DefaultTitle   = "Hotel Recommendations"
	NoImagesText   = "No images available"
	UnavailableImg = "Image unavailable"
	LinkDisplayMax = 70

	coverImageH  = 130.0
	lineHeight   = 5.5
	bulletWrap   = 90 // characters per highlight line at 10pt
	bulletIndent = 4.0
)

var (
	styleTitle   = domain.TextStyle{Size: 16, Bold: true, Color: domain.Black}
	styleHeading = domain.TextStyle{Size: 12, Bold: true, Color: domain.DarkGray}
	styleBody    = domain.TextStyle{Size: 10, Color: domain.DarkGray}
	styleLabel   = domain.TextStyle{Size: 10, Bold: true, Color: domain.DarkGray}
	styleLink    = domain.TextStyle{Size: 10, Color: domain.LinkBlue}
	styleMuted   = domain.TextStyle{Size: 11, Color: domain.MidGray}
)

// Compositor turns a BuildRequest into the ordered page list of a Document.
//
// Resolution policy: entries are processed one after another and, within an
// entry, images are resolved one at a time. This bounds outbound requests
// against third-party booking sites to one per build and keeps every failure
// attributable to a single URL and stage. Do not parallelise it.
type Compositor struct {
	resolver domain.AssetResolver
}

func NewCompositor(r domain.AssetResolver) *Compositor {
	return &Compositor{resolver: r}
}

// Compose validates req and builds the document. Only validation problems
// and context cancellation are errors; image failures become placeholders.
func (c *Compositor) Compose(ctx context.Context, req domain.BuildRequest, startedAt time.Time) (*domain.Document, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	b := &build{
		ctx:      ctx,
		resolver: c.resolver,
		req:      req,
		started:  startedAt,
		assets:   map[string]domain.ImageAsset{},
	}

	pages := []domain.Page{b.cover()}
	for i, h := range req.Hotels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pages = append(pages, b.hotelPages(i, h)...)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &domain.Document{
		ID:        uuid.NewString(),
		StartedAt: startedAt,
		Metadata:  req.Metadata(),
		Pages:     pages,
		Assets:    b.assets,
	}, nil
}

// build is the state of one Compose call.
type build struct {
	ctx      context.Context
	resolver domain.AssetResolver
	req      domain.BuildRequest
	started  time.Time
	assets   map[string]domain.ImageAsset // per-URL memo; entries are terminal
}

func (b *build) asset(src string) domain.ImageAsset {
	if a, ok := b.assets[src]; ok {
		return a
	}
	a := b.resolver.Resolve(b.ctx, src)
	if a.Status == domain.AssetPending || a.Status == "" {
		a = domain.FailedAsset(src, "", fmt.Errorf("resolver returned unsettled asset"))
	}
	b.assets[src] = a
	return a
}

// ---- cover ----

func (b *build) coverAsset() (domain.ImageAsset, bool) {
	if u := strings.TrimSpace(b.req.CoverImageURL); u != "" {
		if a := b.asset(u); a.Loaded() {
			return a, true
		}
	}
	first := b.req.Hotels[0].Images
	for _, u := range first[:layout.GridCells(len(first))] {
		if a := b.asset(u); a.Loaded() {
			return a, true
		}
	}
	return domain.ImageAsset{}, false
}

func (b *build) cover() domain.Page {
	pb := newPage(domain.PageCover, -1)

	if a, ok := b.coverAsset(); ok {
		area := domain.Box{X: layout.MarginX, Y: layout.MarginTop, W: layout.ContentWidth, H: coverImageH}
		pb.image(layout.FitInCell(layout.PxToMM(a.Width, a.Height), area), a.SourceURL)
	}

	title := strings.TrimSpace(b.req.Destination)
	if title == "" {
		title = DefaultTitle
	}
	pb.centred(172, title, domain.TextStyle{Size: 26, Bold: true, Color: domain.Black})
	pb.centred(184, monthYear(b.req.CheckInDate, b.started), domain.TextStyle{Size: 14, Color: domain.MidGray})

	y := 200.0
	line := func(s string) {
		pb.centred(y, s, domain.TextStyle{Size: 11, Color: domain.DarkGray})
		y += 8
	}
	if v := strings.TrimSpace(b.req.ClientName); v != "" {
		line("Prepared for " + v)
	}
	if v := strings.TrimSpace(b.req.ExecutiveName); v != "" {
		line("Prepared by " + v)
	}
	if s := stayLine(b.req.CheckInDate, b.req.CheckOutDate); s != "" {
		line(s)
	}
	line(hotelCount(len(b.req.Hotels)))

	pb.centred(layout.ContentBottom-5, "Generated "+b.started.Format("02 Jan 2006"),
		domain.TextStyle{Size: 9, Color: domain.MidGray})
	return pb.page()
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, f := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(f, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func monthYear(checkIn string, fallback time.Time) string {
	if t, ok := parseDate(checkIn); ok {
		return t.Format("January 2006")
	}
	return fallback.Format("January 2006")
}

func stayLine(in, out string) string {
	ti, okIn := parseDate(in)
	to, okOut := parseDate(out)
	switch {
	case okIn && okOut:
		return fmt.Sprintf("Stay: %s to %s", ti.Format("02 Jan 2006"), to.Format("02 Jan 2006"))
	case okIn:
		return "Check-in: " + ti.Format("02 Jan 2006")
	case okOut:
		return "Check-out: " + to.Format("02 Jan 2006")
	}
	return ""
}

func hotelCount(n int) string {
	if n == 1 {
		return "1 hotel option"
	}
	return fmt.Sprintf("%d hotel options", n)
}

// ---- hotel pages ----

func hotelTitle(i int, h domain.HotelEntry) string {
	if name := strings.TrimSpace(h.Name); name != "" {
		return fmt.Sprintf("%d. %s", i+1, name)
	}
	return fmt.Sprintf("Hotel %d", i+1)
}

// hotelPages resolves the entry's images, then lays out its primary page and
// any continuation pages its highlights need.
func (b *build) hotelPages(i int, h domain.HotelEntry) []domain.Page {
	n := layout.GridCells(len(h.Images))
	resolved := make([]domain.ImageAsset, 0, n)
	loaded := 0
	for _, u := range h.Images[:n] {
		a := b.asset(u)
		if a.Loaded() {
			loaded++
		}
		resolved = append(resolved, a)
	}
	if n > 0 && loaded < n {
		log.Debug().Int("hotel", i).Int("images", n).Int("loaded", loaded).Msg("hotel has unavailable images")
	}

	title := hotelTitle(i, h)
	pb := newPage(domain.PageContent, i)
	pb.text(layout.MarginX, layout.MarginTop+6, title, styleTitle)
	y := layout.MarginTop + 12

	if loaded == 0 {
		pb.p.NoImages = true
		pb.text(layout.MarginX, y+6, NoImagesText, styleMuted)
		y += 12
	} else {
		area := domain.Box{X: layout.MarginX, Y: y, W: layout.ContentWidth, H: layout.GridHeight(n)}
		for k, cell := range layout.GridLayout(n, area) {
			a := resolved[k]
			if !a.Loaded() {
				pb.placeholder(cell, UnavailableImg)
				continue
			}
			pb.image(layout.FitInCell(layout.PxToMM(a.Width, a.Height), cell), a.SourceURL)
		}
		y += area.H + 6
	}

	// link: the display text is truncated, the target never is
	pb.text(layout.MarginX, y+5, "Link:", styleLabel)
	pb.text(layout.MarginX+12, y+5, layout.Truncate(h.Link, LinkDisplayMax), styleLink)
	pb.link(domain.Box{X: layout.MarginX + 12, Y: y, W: layout.ContentWidth - 12, H: 6.5}, h.Link)
	y += 8

	if p := strings.TrimSpace(h.Price); p != "" {
		pb.text(layout.MarginX, y+5, "Price:", styleLabel)
		pb.text(layout.MarginX+12, y+5, p, domain.TextStyle{Size: 11, Bold: true, Color: domain.Black})
		y += 8
	}

	bullets := layout.SplitNotes(h.Notes)
	if len(bullets) == 0 {
		return []domain.Page{pb.page()}
	}

	pb.text(layout.MarginX, y+8, "Highlights", styleHeading)
	y += 10

	lines := bulletLines(bullets)
	items := make([]string, len(lines))
	for k, ln := range lines {
		items[k] = ln.text
	}

	var pages []domain.Page
	for start := 0; ; {
		res := layout.FlowBullets(items[start:], y, layout.ContentBottom, lineHeight)
		for k, p := range res.Placements {
			pb.text(lines[start+k].x(), p.Y, p.Item, styleBody)
		}
		if res.Overflow < 0 {
			break
		}
		// a continuation page starts at MarginTop+12 and always fits a line,
		// so only the primary page can take none
		start += res.Overflow

		pages = append(pages, pb.page())
		pb = newPage(domain.PageContent, i)
		pb.p.Continuation = true
		pb.text(layout.MarginX, layout.MarginTop+6, title+" (continued)", styleTitle)
		y = layout.MarginTop + 12
	}
	return append(pages, pb.page())
}

type flowLine struct {
	text  string
	first bool
}

func (l flowLine) x() float64 {
	if l.first {
		return layout.MarginX + 2
	}
	return layout.MarginX + 2 + bulletIndent
}

// bulletLines wraps each highlight into flow lines; the first line of each
// highlight carries the bullet glyph.
func bulletLines(bullets []string) []flowLine {
	var out []flowLine
	for _, b := range bullets {
		for k, w := range layout.Wrap(b, bulletWrap) {
			if k == 0 {
				out = append(out, flowLine{text: "• " + w, first: true})
				continue
			}
			out = append(out, flowLine{text: w})
		}
	}
	return out
}
