package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/alnah/go-doccrop/internal/assets"
)

// ErrHTMLConversion indicates HTML conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// highlightStyle is the chroma style for the settings block.
const highlightStyle = "github"

// HTMLRenderer turns report Markdown into a standalone HTML page.
type HTMLRenderer struct {
	md     goldmark.Markdown
	loader assets.AssetLoader
	style  *chroma.Style
}

// NewHTMLRenderer creates a renderer using assets from loader.
func NewHTMLRenderer(loader assets.AssetLoader) *HTMLRenderer {
	if loader == nil {
		loader = assets.NewEmbeddedLoader()
	}
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM, // tables
			highlighting.NewHighlighting(
				highlighting.WithStyle(highlightStyle),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true), // classes styled by the generated stylesheet
				),
			),
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
		),
	)
	return &HTMLRenderer{md: md, loader: loader, style: styles.Get(highlightStyle)}
}

type page struct {
	Title string
	CSS   template.CSS
	Body  template.HTML
}

// ToHTML converts markdown into a complete HTML document titled title.
// Goldmark has no context support, so cancellation is only checked before work starts.
func (r *HTMLRenderer) ToHTML(ctx context.Context, title, markdown string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var body bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}

	css, err := r.stylesheet()
	if err != nil {
		return "", err
	}

	raw, err := r.loader.LoadTemplate(assets.DefaultTemplateName)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}
	tpl, err := template.New("report").Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: parsing template: %v", ErrHTMLConversion, err)
	}

	var out bytes.Buffer
	// #nosec G203 -- body is goldmark output without WithUnsafe; css comes from trusted assets
	data := page{Title: title, CSS: template.CSS(css), Body: template.HTML(body.String())}
	if err := tpl.Execute(&out, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}
	return out.String(), nil
}

// stylesheet joins the report style with chroma's classes for the highlight style.
func (r *HTMLRenderer) stylesheet() (string, error) {
	css, err := r.loader.LoadStyle(assets.DefaultStyleName)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}
	var buf bytes.Buffer
	buf.WriteString(css)
	buf.WriteString("\n")
	if err := chromahtml.New(chromahtml.WithClasses(true)).WriteCSS(&buf, r.style); err != nil {
		return "", fmt.Errorf("%w: highlight css: %v", ErrHTMLConversion, err)
	}
	return buf.String(), nil
}
