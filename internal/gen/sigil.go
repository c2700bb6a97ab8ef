package gen

import (
	"fmt"
	"strings"

	"github.com/liuyve552/esa-ai-generator-sub000/internal/core/model"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/gen/seeded"
)

// Sigil renders a small deterministic vector mark from the seeded stream:
// three orbiting circles and a connecting path on the palette background.
func Sigil(r *seeded.Rand, p model.Palette) string {
	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 64 64">`)
	fmt.Fprintf(&b, `<rect width="64" height="64" rx="8" fill="%s"/>`, p.Background)

	type pt struct{ x, y int }
	pts := make([]pt, 3)
	for i := range pts {
		pts[i] = pt{x: 10 + r.Intn(44), y: 10 + r.Intn(44)}
	}

	fmt.Fprintf(&b, `<path d="M%d %d L%d %d L%d %d Z" fill="none" stroke="%s" stroke-width="1.5"/>`,
		pts[0].x, pts[0].y, pts[1].x, pts[1].y, pts[2].x, pts[2].y, p.Accent)

	colors := [3]string{p.Primary, p.Accent, p.Primary}
	for i, q := range pts {
		fmt.Fprintf(&b, `<circle cx="%d" cy="%d" r="%d" fill="%s"/>`,
			q.x, q.y, 3+r.Intn(5), colors[i])
	}

	b.WriteString(`</svg>`)
	return b.String()
}
