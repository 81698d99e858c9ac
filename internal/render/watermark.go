package render

import "fmt"

// stamper runs the post-content pass: watermark and page footer on every
// page, at most once per page.
type stamper struct {
	s       Surface
	wm      WatermarkOptions
	stamped map[int]bool
}

func newStamper(s Surface, wm WatermarkOptions) *stamper {
	return &stamper{s: s, wm: wm, stamped: map[int]bool{}}
}

func (st *stamper) stampAll() {
	n := st.s.PageCount()
	for i := 1; i <= n; i++ {
		st.stamp(i, n)
	}
	if n > 0 {
		st.s.SetPage(n)
	}
}

func (st *stamper) stamp(page, total int) {
	if st.stamped[page] {
		return
	}
	st.s.SetPage(page)
	if st.wm.Text != "" {
		st.s.Watermark(st.wm.Text, st.wm.Opacity, st.wm.Angle)
	}
	st.s.Footer(fmt.Sprintf("Page %d of %d", page, total))
	st.stamped[page] = true
}
