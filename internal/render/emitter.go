// Package render replays composed pages onto a drawing surface, stamps every
// page and serialises the result.
package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"hotel_recs/internal/domain"
)

type WatermarkOptions struct {
	Text    string
	Opacity float64
	Angle   float64
}

func DefaultWatermark() WatermarkOptions {
	return WatermarkOptions{Text: "CONFIDENTIAL", Opacity: 0.12, Angle: 45}
}

// SurfaceFactory creates a fresh surface per document.
type SurfaceFactory func(doc *domain.Document) Surface

func PDFSurfaceFactory(doc *domain.Document) Surface {
	title := DefaultTitle(doc.Metadata)
	return NewPDFSurface(title, doc.Metadata.ExecutiveName)
}

func DefaultTitle(meta domain.Metadata) string {
	if meta.Destination != "" {
		return "Hotel Recommendations - " + meta.Destination
	}
	return "Hotel Recommendations"
}

type Emitter struct {
	newSurface SurfaceFactory
	wm         WatermarkOptions
}

func NewEmitter(f SurfaceFactory, wm WatermarkOptions) *Emitter {
	if f == nil {
		f = PDFSurfaceFactory
	}
	if wm.Opacity <= 0 || wm.Opacity > 1 {
		wm.Opacity = DefaultWatermark().Opacity
	}
	return &Emitter{newSurface: f, wm: wm}
}

// Artifact is the serialised document.
type Artifact struct {
	Filename string
	Data     []byte
	Pages    int
}

// Emit draws every page, then runs the stamping pass over all of them, then
// serialises. Any surface error or panic is reported as ErrBuildFailed.
func (e *Emitter) Emit(doc *domain.Document) (art Artifact, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: surface panic: %v", domain.ErrBuildFailed, r)
		}
	}()

	s := e.newSurface(doc)
	for i, p := range doc.Pages {
		s.AddPage()
		if err := drawPage(s, doc, p); err != nil {
			return Artifact{}, fmt.Errorf("%w: page %d: %v", domain.ErrBuildFailed, i+1, err)
		}
	}

	st := newStamper(s, e.wm)
	st.stampAll()

	var buf bytes.Buffer
	if err := s.Output(&buf); err != nil {
		return Artifact{}, fmt.Errorf("%w: serialise: %v", domain.ErrBuildFailed, err)
	}
	return Artifact{
		Filename: Filename(doc.Metadata, doc.StartedAt),
		Data:     buf.Bytes(),
		Pages:    len(doc.Pages),
	}, nil
}

func drawPage(s Surface, doc *domain.Document, p domain.Page) error {
	for _, c := range p.Commands {
		switch c.Kind {
		case domain.CmdText:
			s.Text(c.Box.X, c.Box.Y, c.Text, c.Style, c.Box.W)
		case domain.CmdRect:
			s.Rect(c.Box, c.Fill, c.Stroke)
		case domain.CmdLink:
			s.Link(c.Box, c.URL)
		case domain.CmdImage:
			a, ok := doc.Assets[c.Asset]
			if !ok || !a.Loaded() {
				// compositor only emits images for loaded assets
				log.Warn().Str("url", c.Asset).Msg("image command without loaded asset, skipped")
				continue
			}
			if err := s.Image(c.Asset, a.Data, c.Box); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown draw command %q", c.Kind)
		}
	}
	return nil
}

// Save hands the artifact to sv synchronously. Failures are returned, not
// retried.
func (e *Emitter) Save(ctx context.Context, sv domain.Saver, art Artifact) error {
	if sv == nil {
		return fmt.Errorf("%w: no saver configured", domain.ErrSaveFailed)
	}
	if err := sv.Save(ctx, art.Filename, art.Data); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrSaveFailed, art.Filename, err)
	}
	return nil
}
