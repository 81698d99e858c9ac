package app

import (
	"hotel_recs/internal/domain"
	"hotel_recs/internal/layout"
)

// pageBuilder accumulates draw commands for one page.
type pageBuilder struct {
	p domain.Page
}

func newPage(kind domain.PageKind, hotel int) *pageBuilder {
	return &pageBuilder{p: domain.Page{Kind: kind, HotelIndex: hotel}}
}

func (b *pageBuilder) text(x, y float64, s string, st domain.TextStyle) {
	b.p.Commands = append(b.p.Commands, domain.DrawCommand{
		Kind:  domain.CmdText,
		Box:   domain.Box{X: x, Y: y},
		Text:  s,
		Style: st,
	})
}

// centred sets s centred across the content width, or across box when given.
func (b *pageBuilder) centred(y float64, s string, st domain.TextStyle) {
	b.centredIn(domain.Box{X: layout.MarginX, W: layout.ContentWidth}, y, s, st)
}

func (b *pageBuilder) centredIn(box domain.Box, y float64, s string, st domain.TextStyle) {
	st.Align = "C"
	b.p.Commands = append(b.p.Commands, domain.DrawCommand{
		Kind:  domain.CmdText,
		Box:   domain.Box{X: box.X, Y: y, W: box.W},
		Text:  s,
		Style: st,
	})
}

func (b *pageBuilder) image(box domain.Box, src string) {
	b.p.Boxes = append(b.p.Boxes, box)
	b.p.Commands = append(b.p.Commands, domain.DrawCommand{Kind: domain.CmdImage, Box: box, Asset: src})
}

func (b *pageBuilder) placeholder(cell domain.Box, label string) {
	fill, stroke := domain.LightGray, domain.MidGray
	b.p.Boxes = append(b.p.Boxes, cell)
	b.p.Placeholders++
	b.p.Commands = append(b.p.Commands, domain.DrawCommand{Kind: domain.CmdRect, Box: cell, Fill: &fill, Stroke: &stroke})
	b.centredIn(cell, cell.Y+cell.H/2+1.5, label, domain.TextStyle{Size: 10, Color: domain.MidGray})
}

func (b *pageBuilder) link(box domain.Box, target string) {
	b.p.Commands = append(b.p.Commands, domain.DrawCommand{Kind: domain.CmdLink, Box: box, URL: target})
}

func (b *pageBuilder) page() domain.Page { return b.p }
