package layout

// Placement is one flowed line and the baseline it was set on.
type Placement struct {
	Item string
	Y    float64
}

// FlowResult is the outcome of one FlowBullets call. Overflow is the index
// of the first item that did not fit, or -1 when everything was placed.
// Cursor is where the next line would start.
type FlowResult struct {
	Placements []Placement
	Overflow   int
	Cursor     float64
}

// FlowBullets sets items one line at a time starting at cursorY. Each item
// advances the cursor by lineHeight; when the projected baseline would pass
// pageBottom the flow stops and reports the overflow index, so the caller
// can open a continuation page and resume from there.
func FlowBullets(items []string, cursorY, pageBottom, lineHeight float64) FlowResult {
	res := FlowResult{Overflow: -1, Cursor: cursorY}
	if lineHeight <= 0 {
		lineHeight = 1
	}
	for i, it := range items {
		next := res.Cursor + lineHeight
		if next > pageBottom {
			res.Overflow = i
			return res
		}
		res.Placements = append(res.Placements, Placement{Item: it, Y: next})
		res.Cursor = next
	}
	return res
}
