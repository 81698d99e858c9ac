package render

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"hotel_recs/internal/domain"
	"hotel_recs/internal/layout"
)

const fontFamily = "Helvetica"

// Surface is the drawing backend the emitter replays pages onto. Pages are
// one-based, matching gofpdf.
type Surface interface {
	AddPage()
	PageCount() int
	SetPage(n int)
	Text(x, y float64, s string, st domain.TextStyle, width float64)
	Image(key string, data []byte, box domain.Box) error
	Rect(box domain.Box, fill, stroke *domain.RGB)
	Link(box domain.Box, url string)
	Watermark(text string, opacity, angle float64)
	Footer(text string)
	Output(w io.Writer) error
}

// PDFSurface draws with gofpdf on A4 portrait millimetre pages.
type PDFSurface struct {
	pdf  *gofpdf.Fpdf
	tr   func(string) string
	imgs map[string]bool
}

func NewPDFSurface(title, author string) *PDFSurface {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(layout.MarginX, layout.MarginTop, layout.MarginX)
	// pagination is decided by the compositor
	pdf.SetAutoPageBreak(false, layout.MarginBottom)
	pdf.SetTitle(title, true)
	if author != "" {
		pdf.SetAuthor(author, true)
	}
	pdf.SetCreator("hotel-recs", true)
	return &PDFSurface{
		pdf:  pdf,
		tr:   pdf.UnicodeTranslatorFromDescriptor(""), // UTF-8 -> cp1252 for core fonts
		imgs: map[string]bool{},
	}
}

func (s *PDFSurface) AddPage()       { s.pdf.AddPage() }
func (s *PDFSurface) PageCount() int { return s.pdf.PageCount() }
func (s *PDFSurface) SetPage(n int)  { s.pdf.SetPage(n) }

func (s *PDFSurface) setStyle(st domain.TextStyle) {
	style := ""
	if st.Bold {
		style = "B"
	}
	size := st.Size
	if size <= 0 {
		size = 10
	}
	s.pdf.SetFont(fontFamily, style, size)
	s.pdf.SetTextColor(st.Color.R, st.Color.G, st.Color.B)
}

func (s *PDFSurface) Text(x, y float64, txt string, st domain.TextStyle, width float64) {
	s.setStyle(st)
	txt = s.tr(txt)
	if st.Align == "C" && width > 0 {
		x += (width - s.pdf.GetStringWidth(txt)) / 2
	}
	s.pdf.Text(x, y, txt)
}

// Image registers data under key once and draws it into box.
func (s *PDFSurface) Image(key string, data []byte, box domain.Box) error {
	opts := gofpdf.ImageOptions{ImageType: "JPG", ReadDpi: false}
	if !s.imgs[key] {
		s.pdf.RegisterImageOptionsReader(key, opts, bytes.NewReader(data))
		if err := s.pdf.Error(); err != nil {
			return fmt.Errorf("register image %s: %w", key, err)
		}
		s.imgs[key] = true
	}
	s.pdf.ImageOptions(key, box.X, box.Y, box.W, box.H, false, opts, 0, "")
	return s.pdf.Error()
}

func (s *PDFSurface) Rect(box domain.Box, fill, stroke *domain.RGB) {
	style := ""
	if fill != nil {
		s.pdf.SetFillColor(fill.R, fill.G, fill.B)
		style += "F"
	}
	if stroke != nil {
		s.pdf.SetDrawColor(stroke.R, stroke.G, stroke.B)
		s.pdf.SetLineWidth(0.2)
		style += "D"
	}
	if style == "" {
		style = "D"
	}
	s.pdf.Rect(box.X, box.Y, box.W, box.H, style)
}

func (s *PDFSurface) Link(box domain.Box, url string) {
	s.pdf.LinkString(box.X, box.Y, box.W, box.H, url)
}

// Watermark stamps text rotated about the page centre at low opacity.
func (s *PDFSurface) Watermark(text string, opacity, angle float64) {
	cx, cy := layout.PageWidth/2, layout.PageHeight/2
	s.pdf.SetFont(fontFamily, "B", 54)
	s.pdf.SetTextColor(150, 150, 150)
	txt := s.tr(text)
	w := s.pdf.GetStringWidth(txt)

	s.pdf.SetAlpha(opacity, "Normal")
	s.pdf.TransformBegin()
	s.pdf.TransformRotate(angle, cx, cy)
	s.pdf.Text(cx-w/2, cy+6, txt)
	s.pdf.TransformEnd()
	s.pdf.SetAlpha(1, "Normal")
}

func (s *PDFSurface) Footer(text string) {
	s.setStyle(domain.TextStyle{Size: 8, Color: domain.MidGray})
	txt := s.tr(text)
	w := s.pdf.GetStringWidth(txt)
	s.pdf.Text(layout.PageWidth-layout.MarginX-w, layout.PageHeight-10, txt)
}

func (s *PDFSurface) Output(w io.Writer) error {
	if err := s.pdf.Error(); err != nil {
		return err
	}
	return s.pdf.Output(w)
}
