// Package report renders described objects for the user and hands the result
// to a display surface.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/giantswarm/sf-fields/internal/org"
)

// Title is the top-level heading of every rendered document.
const Title = "Salesforce Object Fields"

// Output formats selectable with --format.
const (
	FormatHTML = "html"
	FormatText = "text"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; margin: 2em; color: #181818; }
h1 { color: #0176d3; }
table { border-collapse: collapse; margin-bottom: 2em; min-width: 40em; }
th, td { border: 1px solid #c9c9c9; padding: 0.3em 0.8em; text-align: left; }
th { background: #f3f3f3; }
td.api { font-family: Menlo, Consolas, monospace; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{- range .Sets}}
<h2>{{.ObjectName}}</h2>
<table>
<tr><th>Field Label</th><th>API Name</th></tr>
{{- range .Fields}}
<tr><td>{{.Label}}</td><td class="api">{{.Name}}</td></tr>
{{- end}}
</table>
{{- end}}
</body>
</html>
`))

// RenderHTML builds the browser document: one heading and one two-column table
// per object, fields in the order given.
func RenderHTML(sets []org.ObjectFieldSet) ([]byte, error) {
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, struct {
		Title string
		Sets  []org.ObjectFieldSet
	}{Title: Title, Sets: sets})
	if err != nil {
		return nil, fmt.Errorf("failed to render HTML: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	objectStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0176d3"))
	headerCell  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	bodyCell    = lipgloss.NewStyle().Padding(0, 1)
)

// RenderText builds the terminal variant of the document.
func RenderText(sets []org.ObjectFieldSet) string {
	var b strings.Builder
	b.WriteString(objectStyle.Render(Title))
	b.WriteString("\n")

	for _, set := range sets {
		rows := make([][]string, 0, len(set.Fields))
		for _, f := range set.Fields {
			rows = append(rows, []string{f.Label, f.Name})
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerCell
				}
				return bodyCell
			}).
			Headers("Field Label", "API Name").
			Rows(rows...)

		b.WriteString("\n")
		b.WriteString(objectStyle.Render(set.ObjectName))
		b.WriteString("\n")
		b.WriteString(t.String())
		b.WriteString("\n")
	}
	return b.String()
}

// Render dispatches on format.
func Render(format string, sets []org.ObjectFieldSet) ([]byte, error) {
	switch format {
	case FormatHTML, "":
		return RenderHTML(sets)
	case FormatText:
		return []byte(RenderText(sets)), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want %s or %s)", format, FormatHTML, FormatText)
	}
}
