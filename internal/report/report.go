// Package report renders a DuplicateReport for people: a plain-text form
// for the terminal, a markdown form with frontmatter for files, and an
// HTML form built from the markdown for the browser.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"strings"
	"time"

	_ "embed"

	"github.com/jgivc/dupetracker/internal/entity"
	"github.com/jgivc/dupetracker/internal/util"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/frontmatter"
)

const (
	reportTitle = "Duplicate File Report"
	bannerWidth = 60
)

//go:embed template.html
var defaultTemplate string

type Renderer struct {
	md  goldmark.Markdown
	tpl *template.Template
}

// NewRenderer builds a renderer around the embedded HTML shell. A non-empty
// templateFileName replaces the shell; the file must define {{.Title}} and
// {{.Body}}.
func NewRenderer(templateFileName string) (*Renderer, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			&frontmatter.Extender{},
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	src := defaultTemplate
	if templateFileName != "" {
		data, err := os.ReadFile(templateFileName)
		if err != nil {
			return nil, fmt.Errorf("cannot read template: %w", err)
		}

		src = string(data)
	}

	tpl, err := template.New("report").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("cannot parse template: %w", err)
	}

	return &Renderer{md: md, tpl: tpl}, nil
}

// Text lays the report out the way the scan tools print it: a summary
// block, then one group per paragraph.
func (r *Renderer) Text(report *entity.DuplicateReport) string {
	banner := strings.Repeat("=", bannerWidth)
	rule := strings.Repeat("-", bannerWidth)

	var b strings.Builder

	fmt.Fprintf(&b, "%s\n %s\n%s\n\n", banner, reportTitle, banner)

	fmt.Fprintf(&b, "%s\n Summary\n%s\n", rule, rule)
	fmt.Fprintf(&b, " Total files scanned: %d\n", report.TotalFiles)
	fmt.Fprintf(&b, " Duplicate groups found: %d\n", report.Stats.Groups)
	fmt.Fprintf(&b, " Total duplicate files: %d\n", report.Stats.Files)
	fmt.Fprintf(&b, " Wasted space: %s\n", util.FormatSize(report.WastedBytes))
	fmt.Fprintf(&b, "%s\n\n", rule)

	if len(report.Groups) == 0 {
		b.WriteString("No duplicate files found!\n")

		return b.String()
	}

	fmt.Fprintf(&b, "%s\n Duplicate Files\n%s\n\n", banner, banner)

	for i, group := range report.Groups {
		fmt.Fprintf(&b, "Group %d (%d copies, %s each):\n", i+1, len(group.Paths), util.FormatSize(group.Size))
		for _, path := range group.Paths {
			fmt.Fprintf(&b, "  → %s\n", path)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// Markdown renders the report as a markdown document with a YAML
// frontmatter block carrying the summary numbers.
func (r *Renderer) Markdown(report *entity.DuplicateReport) []byte {
	var b bytes.Buffer

	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %s\n", reportTitle)
	fmt.Fprintf(&b, "generated: %s\n", report.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "total_files: %d\n", report.TotalFiles)
	fmt.Fprintf(&b, "duplicate_groups: %d\n", report.Stats.Groups)
	fmt.Fprintf(&b, "duplicate_files: %d\n", report.Stats.Files)
	fmt.Fprintf(&b, "wasted_space: %s\n", util.FormatSize(report.WastedBytes))
	b.WriteString("---\n\n")

	fmt.Fprintf(&b, "# %s\n\n", reportTitle)

	fmt.Fprintf(&b, "- Total files scanned: **%d**\n", report.TotalFiles)
	fmt.Fprintf(&b, "- Duplicate groups found: **%d**\n", report.Stats.Groups)
	fmt.Fprintf(&b, "- Total duplicate files: **%d**\n", report.Stats.Files)
	fmt.Fprintf(&b, "- Wasted space: **%s**\n\n", util.FormatSize(report.WastedBytes))

	if len(report.Groups) == 0 {
		b.WriteString("No duplicate files found!\n")

		return b.Bytes()
	}

	for i, group := range report.Groups {
		fmt.Fprintf(&b, "## Group %d\n\n", i+1)
		fmt.Fprintf(&b, "%d copies, %s each, sha256 `%s`\n\n", len(group.Paths), util.FormatSize(group.Size), group.Digest)
		for _, path := range group.Paths {
			fmt.Fprintf(&b, "- `%s`\n", path)
		}
		b.WriteString("\n")
	}

	return b.Bytes()
}

// HTML converts the markdown form of the report and wraps it in the page
// template. The frontmatter block supplies the page title instead of being
// rendered as content.
func (r *Renderer) HTML(report *entity.DuplicateReport) ([]byte, error) {
	source := r.Markdown(report)

	ctx := parser.NewContext()

	var body bytes.Buffer
	if err := r.md.Convert(source, &body, parser.WithContext(ctx)); err != nil {
		return nil, fmt.Errorf("cannot convert markdown: %w", err)
	}

	meta := struct {
		Title string `yaml:"title"`
	}{Title: reportTitle}

	if fm := frontmatter.Get(ctx); fm != nil {
		if err := fm.Decode(&meta); err != nil {
			return nil, fmt.Errorf("cannot decode frontmatter: %w", err)
		}
	}

	var out bytes.Buffer
	err := r.tpl.Execute(&out, struct {
		Title string
		Body  template.HTML
	}{
		Title: meta.Title,
		Body:  template.HTML(body.String()),
	})
	if err != nil {
		return nil, fmt.Errorf("cannot execute template: %w", err)
	}

	return out.Bytes(), nil
}
