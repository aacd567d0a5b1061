// Package figure renders the small standalone SVG documents attached to
// indicator results. Rendering is string assembly only — no drawing library —
// and must never fail: every function returns a complete SVG document.
package figure

import (
	"fmt"
	"strings"
)

const (
	width  = 400
	height = 400
)

// Placeholder is the figure every indicator carries until its calculation
// has succeeded, and keeps if it never does.
func Placeholder() string {
	var b strings.Builder
	header(&b)
	fmt.Fprintf(&b,
		`<text x="%d" y="%d" text-anchor="middle" font-family="sans-serif" font-size="14">The creation of the Indicator was unsuccessful.</text>`,
		width/2, height/2)
	b.WriteString("</svg>")
	return b.String()
}

// Gauge renders a horizontal 0..1 bar with a marker at value.
// color is the fill of the marker (the indicator's traffic-light color).
func Gauge(title string, value float64, color string) string {
	v := value
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	const barY, barH = 190, 20
	marker := 40 + v*(width-80)

	var b strings.Builder
	header(&b)
	fmt.Fprintf(&b, `<text x="%d" y="40" text-anchor="middle" font-family="sans-serif" font-size="16">%s</text>`, width/2, escape(title))
	fmt.Fprintf(&b, `<rect x="40" y="%d" width="%d" height="%d" fill="#eee" stroke="#999"/>`, barY, width-80, barH)
	fmt.Fprintf(&b, `<rect x="40" y="%d" width="%.1f" height="%d" fill="%s"/>`, barY, v*(width-80), barH, color)
	fmt.Fprintf(&b, `<line x1="%.1f" y1="%d" x2="%.1f" y2="%d" stroke="#333" stroke-width="2"/>`, marker, barY-8, marker, barY+barH+8)
	fmt.Fprintf(&b, `<text x="%d" y="%d" text-anchor="middle" font-family="sans-serif" font-size="13">%.2f</text>`, width/2, barY+barH+32, value)
	b.WriteString("</svg>")
	return b.String()
}

// LineChart renders ys as a polyline scaled to the full canvas.
// Used for time-series indicators; x positions are the sample indices.
func LineChart(title string, ys []float64) string {
	var b strings.Builder
	header(&b)
	fmt.Fprintf(&b, `<text x="%d" y="30" text-anchor="middle" font-family="sans-serif" font-size="16">%s</text>`, width/2, escape(title))
	if len(ys) >= 2 {
		max := ys[0]
		for _, y := range ys {
			if y > max {
				max = y
			}
		}
		if max <= 0 {
			max = 1
		}
		const top, bottom, left, right = 60, 360, 40, 360
		points := make([]string, len(ys))
		for i, y := range ys {
			px := left + float64(i)/float64(len(ys)-1)*(right-left)
			py := bottom - y/max*(bottom-top)
			points[i] = fmt.Sprintf("%.1f,%.1f", px, py)
		}
		fmt.Fprintf(&b, `<polyline fill="none" stroke="#1f77b4" stroke-width="2" points="%s"/>`, strings.Join(points, " "))
		fmt.Fprintf(&b, `<line x1="40" y1="%d" x2="%d" y2="%d" stroke="#333"/>`, bottom, right, bottom)
		fmt.Fprintf(&b, `<line x1="40" y1="%d" x2="40" y2="%d" stroke="#333"/>`, top, bottom)
	}
	b.WriteString("</svg>")
	return b.String()
}

func header(b *strings.Builder) {
	fmt.Fprintf(b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, width, height, width, height)
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string { return escaper.Replace(s) }
