package indicator

import (
	"html/template"
	"log/slog"
	"strings"
)

// htmlTemplate is the self-contained fragment embedded into result documents.
// The traffic light renders three dots with the matching one lit.
var htmlTemplate = template.Must(template.New("indicator").Parse(`<div class="indicator">
  <h2>{{.Name}} ({{.LayerName}})</h2>
  <div class="traffic-light">
    <span class="dot" style="background-color: {{.GreenColor}}"></span>
    <span class="dot" style="background-color: {{.YellowColor}}"></span>
    <span class="dot" style="background-color: {{.RedColor}}"></span>
    <span class="quality">{{.Quality}}</span>
  </div>
  {{.SVG}}
  <p>{{.Description}}</p>
</div>
`))

const dimmed = "#bbbbbb"

// RenderHTML fills Result.HTML from the current result. It is called after
// CreateFigure; on an undefined label the figure is replaced by a short note.
func (b *BaseIndicator) RenderHTML() {
	green, yellow, red := dimmed, dimmed, dimmed
	quality := "Undefined Quality"
	svg := template.HTML("<p>No figure is available for this indicator.</p>")

	switch b.Result.Label {
	case LabelGreen:
		green, quality = LabelGreen.Color(), "Good Quality"
		svg = template.HTML(b.Result.SVG)
	case LabelYellow:
		yellow, quality = LabelYellow.Color(), "Medium Quality"
		svg = template.HTML(b.Result.SVG)
	case LabelRed:
		red, quality = LabelRed.Color(), "Bad Quality"
		svg = template.HTML(b.Result.SVG)
	}

	var sb strings.Builder
	err := htmlTemplate.Execute(&sb, map[string]any{
		"Name":        b.Metadata.Name,
		"LayerName":   b.Layer.LayerName(),
		"GreenColor":  green,
		"YellowColor": yellow,
		"RedColor":    red,
		"Quality":     quality,
		"SVG":         svg,
		"Description": b.Result.Description,
	})
	if err != nil {
		// Template and inputs are fully under our control; treat failure as a bug.
		slog.Error("indicator: render html failed", "indicator", b.Metadata.Name, "err", err)
		return
	}
	b.Result.HTML = sb.String()
}
