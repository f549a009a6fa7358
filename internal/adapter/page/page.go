package page

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"sync"

	_ "embed"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/frontmatter"
)

var (
	//go:embed templates/usage.md
	usageContent []byte

	//go:embed templates/template.html
	shellContent []byte
)

type Frontmatter struct {
	Title string `yaml:"title"`
}

type pageContext struct {
	Title       string
	ContentHTML template.HTML
}

// pageAdapter renders the embedded usage document into the landing page.
// The markdown and its frontmatter are fixed at build time, so the result
// is rendered once and cached.
type pageAdapter struct {
	md   goldmark.Markdown
	once sync.Once
	page string
	err  error
	log  *slog.Logger
}

func NewPageAdapter(log *slog.Logger) *pageAdapter {
	md := goldmark.New(
		goldmark.WithExtensions(
			&frontmatter.Extender{},
		),
		goldmark.WithRendererOptions(
			htmlrenderer.WithHardWraps(),
			htmlrenderer.WithXHTML(),
		),
	)

	return &pageAdapter{
		md:  md,
		log: log.With(slog.String("item", "PageAdapter")),
	}
}

func (a *pageAdapter) Render() (string, error) {
	a.once.Do(func() {
		a.page, a.err = a.render()
		if a.err != nil {
			a.log.Error("Cannot render landing page", slog.Any("error", a.err))
		}
	})

	return a.page, a.err
}

func (a *pageAdapter) render() (string, error) {
	var buf bytes.Buffer

	pc := parser.NewContext()
	if err := a.md.Convert(usageContent, &buf, parser.WithContext(pc)); err != nil {
		return "", fmt.Errorf("cannot convert markdown: %w", err)
	}

	var fm Frontmatter
	if data := frontmatter.Get(pc); data != nil {
		if err := data.Decode(&fm); err != nil {
			return "", fmt.Errorf("cannot decode frontmatter: %w", err)
		}
	}

	tmpl, err := template.New("").Parse(string(shellContent))
	if err != nil {
		return "", fmt.Errorf("cannot parse page template: %w", err)
	}

	var page bytes.Buffer
	if err := tmpl.Execute(&page, &pageContext{
		Title:       fm.Title,
		ContentHTML: template.HTML(buf.String()),
	}); err != nil {
		return "", fmt.Errorf("cannot execute page template: %w", err)
	}

	return page.String(), nil
}
