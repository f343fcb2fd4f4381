package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	doccrop "github.com/alnah/go-doccrop"
	"github.com/alnah/go-doccrop/internal/dateutil"
	"github.com/alnah/go-doccrop/internal/yamlutil"
)

// DefaultTitle is used when Settings.Title is empty.
const DefaultTitle = "Crop run report"

// Settings records the effective options of a run. It is embedded in the
// report as a YAML block.
type Settings struct {
	Title      string                `yaml:"-"`
	DateFormat string                `yaml:"-"`
	Margins    doccrop.MarginSpec    `yaml:"margins"`
	Output     string                `yaml:"outputDir,omitempty"`
	Suffix     string                `yaml:"suffix"`
	Workers    int                   `yaml:"workers"`
	Editable   string                `yaml:"editable"`
	Timeout    string                `yaml:"timeout"`
	Tiers      doccrop.GatewayStatus `yaml:"converter"`
}

// Build renders summary as a Markdown document.
func Build(summary doccrop.BatchSummary, s Settings, now time.Time) (string, error) {
	title := s.Title
	if title == "" {
		title = DefaultTitle
	}

	generated, err := dateutil.Format(now, s.DateFormat)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", escapeInline(title))
	fmt.Fprintf(&b, "Generated %s in %s.\n\n", escapeInline(generated), summary.Elapsed.Round(time.Millisecond))

	b.WriteString("| Total | Successful | Failed | Cancelled |\n")
	b.WriteString("|------:|-----------:|-------:|:---------:|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %s |\n\n", summary.TotalFiles, summary.Successful, summary.Failed, yesNo(summary.Cancelled))

	if len(summary.Outcomes) > 0 {
		b.WriteString("## Jobs\n\n")
		b.WriteString("| File | Status | Pages | Output | Message |\n")
		b.WriteString("|------|--------|------:|--------|---------|\n")
		for _, o := range summary.Outcomes {
			status, pages, output := "failed", "", ""
			if o.Success {
				status = "ok"
				pages = fmt.Sprint(o.PagesProcessed)
				output = filepath.Base(o.OutputPath)
				if o.CompanionPath != "" {
					output += " + " + filepath.Base(o.CompanionPath)
				}
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				cell(filepath.Base(o.InputPath)), status, pages, cell(output), cell(o.ErrorMessage))
		}
		b.WriteString("\n")
	}

	if len(summary.FailedFiles) > 0 {
		b.WriteString("## Failed files\n\n")
		for _, f := range summary.FailedFiles {
			fmt.Fprintf(&b, "- `%s`\n", strings.ReplaceAll(f, "`", "'"))
		}
		b.WriteString("\n")
	}

	settings, err := yamlutil.Encode(s)
	if err != nil {
		return "", fmt.Errorf("encoding settings: %w", err)
	}
	b.WriteString("## Settings\n\n```yaml\n")
	b.Write(settings)
	b.WriteString("```\n")

	return b.String(), nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// cell makes s safe inside a GFM table cell.
func cell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return escapeInline(strings.ReplaceAll(s, "|", `\|`))
}

var inlineEscaper = strings.NewReplacer("*", `\*`, "_", `\_`, "`", "\\`", "<", "&lt;", ">", "&gt;", "[", `\[`)

func escapeInline(s string) string {
	return inlineEscaper.Replace(s)
}
