package domain

import "time"

// Box is an axis-aligned placement rectangle in page space (millimetres,
// origin top-left).
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

type PageKind string

const (
	PageCover   PageKind = "cover"
	PageContent PageKind = "content"
)

type CommandKind string

const (
	CmdText  CommandKind = "text"
	CmdImage CommandKind = "image"
	CmdRect  CommandKind = "rect"
	CmdLink  CommandKind = "link"
)

type RGB struct{ R, G, B int }

var (
	Black     = RGB{0, 0, 0}
	DarkGray  = RGB{60, 60, 60}
	MidGray   = RGB{130, 130, 130}
	LightGray = RGB{235, 235, 235}
	LinkBlue  = RGB{25, 90, 180}
)

// TextStyle describes how a text command is set.
type TextStyle struct {
	Size  float64 `json:"size"`
	Bold  bool    `json:"bold,omitempty"`
	Color RGB     `json:"color"`
	Align string  `json:"align,omitempty"` // "" / "L" left, "C" centred within Box.W
}

// DrawCommand is one serialisable drawing instruction. Which fields apply
// depends on Kind:
//
//	text:  Box.X/Box.Y (baseline), Box.W for centred text, Text, Style
//	image: Box, Asset (source URL)
//	rect:  Box, Fill, Stroke
//	link:  Box, URL
type DrawCommand struct {
	Kind   CommandKind `json:"kind"`
	Box    Box         `json:"box"`
	Text   string      `json:"text,omitempty"`
	Style  TextStyle   `json:"style,omitempty"`
	Asset  string      `json:"asset,omitempty"`
	URL    string      `json:"url,omitempty"`
	Fill   *RGB        `json:"fill,omitempty"`
	Stroke *RGB        `json:"stroke,omitempty"`
}

// Page is one finished page. HotelIndex is -1 for the cover.
type Page struct {
	Kind         PageKind      `json:"kind"`
	HotelIndex   int           `json:"hotelIndex"`
	Continuation bool          `json:"continuation,omitempty"`
	Boxes        []Box         `json:"boxes,omitempty"`
	Placeholders int           `json:"placeholders,omitempty"`
	NoImages     bool          `json:"noImages,omitempty"`
	Commands     []DrawCommand `json:"commands"`
}

type Metadata struct {
	ExecutiveName string `json:"executiveName,omitempty"`
	ClientName    string `json:"clientName,omitempty"`
	Destination   string `json:"destination,omitempty"`
	CheckInDate   string `json:"checkInDate,omitempty"`
	CheckOutDate  string `json:"checkOutDate,omitempty"`
}

// Document is built once by the compositor and consumed once by the emitter.
type Document struct {
	ID        string                `json:"id"`
	StartedAt time.Time             `json:"startedAt"`
	Metadata  Metadata              `json:"metadata"`
	Pages     []Page                `json:"pages"`
	Assets    map[string]ImageAsset `json:"assets"`
}

// FailedAssets counts the assets that ended in the Failed state.
func (d *Document) FailedAssets() int {
	n := 0
	for _, a := range d.Assets {
		if a.Status == AssetFailed {
			n++
		}
	}
	return n
}
