package sink

import (
	"bytes"
	"fmt"
	"html/template"
	"sync"

	"github.com/matzehuels/spantower/pkg/waterfall"
)

// HTMLOption configures HTML rendering via [RenderHTML].
type HTMLOption func(*htmlRenderer)

type htmlRenderer struct {
	title     string
	toggleURL string
	jsonURL   string
}

// WithHTMLTitle sets the page title.
func WithHTMLTitle(title string) HTMLOption {
	return func(r *htmlRenderer) { r.title = title }
}

// WithToggleURL makes rows clickable: each row posts to prefix + span id.
// Ignored for display-mode layouts, which are read-only.
func WithToggleURL(prefix string) HTMLOption {
	return func(r *htmlRenderer) { r.toggleURL = prefix }
}

// WithJSONLink adds a link to the JSON rendering of the same view.
func WithJSONLink(url string) HTMLOption {
	return func(r *htmlRenderer) { r.jsonURL = url }
}

type htmlRow struct {
	waterfall.Row
	Color  string
	Indent int
	Panel  *waterfall.Panel
}

type htmlPage struct {
	Title     string
	Layout    waterfall.Layout
	Scale     float64 // converts track percent to CSS percent
	Rows      []htmlRow
	ToggleURL string
	JSONURL   string
	EmptyText string
}

// RenderHTML renders a standalone HTML page of the waterfall.
func RenderHTML(l waterfall.Layout, opts ...HTMLOption) ([]byte, error) {
	r := htmlRenderer{title: "Trace " + l.TraceID}
	for _, opt := range opts {
		opt(&r)
	}

	page := htmlPage{
		Title:     r.title,
		Layout:    l,
		Scale:     100 / trackWidth(l),
		JSONURL:   r.jsonURL,
		EmptyText: waterfall.NoBinaryAnnotations,
	}
	if !l.Display {
		page.ToggleURL = r.toggleURL
	}
	details := panels(l)
	for _, row := range l.Rows {
		hr := htmlRow{Row: row, Color: serviceColor(row.Service), Indent: row.Level * 14}
		if p, ok := details[row.ID]; ok {
			hr.Panel = &p
		}
		page.Rows = append(page.Rows, hr)
	}

	var buf bytes.Buffer
	if err := htmlTemplate().Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}

// CSS lengths are built here rather than in the template since the escaper
// rejects parentheses in style attributes.
var htmlFuncMap = template.FuncMap{
	"pct": func(v, scale float64) template.CSS {
		return template.CSS(fmt.Sprintf("%.3f%%", v*scale))
	},
	"minpx": func(v, scale float64) template.CSS {
		return template.CSS(fmt.Sprintf("max(%.3f%%, 2px)", v*scale))
	},
}

var (
	tmplHTML     *template.Template
	tmplHTMLOnce sync.Once
)

func htmlTemplate() *template.Template {
	tmplHTMLOnce.Do(func() {
		tmplHTML = template.Must(template.New("waterfall").Funcs(htmlFuncMap).Parse(htmlSource))
	})
	return tmplHTML
}

const htmlSource = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body{font-family:ui-monospace,SFMono-Regular,Menlo,monospace;font-size:12px;margin:16px;color:#24292f;background:#fff}
h1{font-size:16px}
.meta{color:#57606a;margin-bottom:12px}
.ruler,.row{display:grid;grid-template-columns:300px 1fr;align-items:center}
.ruler .track{position:relative;height:18px;border-bottom:1px solid #d0d7de}
.ruler span{position:absolute;color:#57606a;font-size:11px;padding-left:3px;border-left:1px solid #d0d7de}
.row{border-bottom:1px solid #f0f2f4;min-height:22px}
.row .service{overflow:hidden;white-space:nowrap;text-overflow:ellipsis}
.row .track{position:relative;height:22px}
.bar{position:absolute;top:4px;height:14px;border-radius:2px}
.bar.client{opacity:.35}
.bar.server{top:6px;height:10px}
.caption{position:absolute;top:4px;white-space:nowrap;padding-left:4px}
.row.expanded .service{font-weight:bold}
form{margin:0}
button.row{all:unset;display:grid;grid-template-columns:300px 1fr;width:100%;cursor:pointer}
button.row:hover{background:#f6f8fa}
.panel{margin:4px 0 12px 300px;padding:8px;background:#f6f8fa;border:1px solid #d0d7de;border-radius:4px}
.panel table{border-collapse:collapse;margin-bottom:8px}
.panel th,.panel td{text-align:left;padding:2px 8px;border-bottom:1px solid #d0d7de}
.panel pre{max-height:300px;overflow:auto}
.empty{color:#57606a}
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="meta">{{.Layout.DurationMillis}}ms &middot; {{len .Rows}} spans{{if .Layout.Display}} &middot; display mode{{end}}{{if .JSONURL}} &middot; <a href="{{.JSONURL}}">json</a>{{end}}</div>
<div class="ruler"><div></div><div class="track">{{range .Layout.Labels}}<span style="left:{{pct .Offset $.Scale}}">{{.Text}}</span>{{end}}</div></div>
{{range .Rows}}
{{if $.ToggleURL}}<form method="post" action="{{$.ToggleURL}}{{.ID}}"><button type="submit" class="row{{if .Expanded}} expanded{{end}}" id="span-{{.ID}}">{{else}}<div class="row{{if .Expanded}} expanded{{end}}" id="span-{{.ID}}">{{end}}
<div class="service" style="padding-left:{{.Indent}}px">{{.Service}}</div>
<div class="track">
{{if .Geometry.HasClient}}<div class="bar client" style="left:{{pct .Geometry.Client.Offset $.Scale}};width:{{minpx .Geometry.Client.Width $.Scale}};background:{{.Color}}"></div>{{end}}
<div class="bar server" style="left:{{pct .Geometry.Server.Offset $.Scale}};width:{{minpx .Geometry.Server.Width $.Scale}};background:{{.Color}}"></div>
<div class="caption" style="left:{{pct .Geometry.Effective.End $.Scale}}">{{.Label}}</div>
</div>
{{if $.ToggleURL}}</button></form>{{else}}</div>{{end}}
{{with .Panel}}<div class="panel" data-span="{{.SpanID}}">
<table><tr><th>Time</th><th>Annotation</th><th>Address</th><th>Service</th></tr>
{{range .Annotations}}<tr><td>{{.Time}}</td><td>{{.Label}}</td><td>{{.Address}}</td><td>{{.Service}}</td></tr>{{end}}
</table>
{{if .Empty}}<div class="empty">{{$.EmptyText}}</div>{{else}}{{range .Tags}}
<strong>{{.Service}}</strong>
<table><tr><th>Key</th><th>Value</th><th>Address</th></tr>
{{range .Tags}}<tr><td>{{.Key}}</td><td>{{.Value}}</td><td>{{.Address}}</td></tr>{{end}}
</table>{{end}}{{end}}
<details><summary>Raw data</summary><pre>{{.JSON}}</pre></details>
</div>{{end}}
{{end}}
</body>
</html>
`
