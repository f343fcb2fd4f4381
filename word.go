package doccrop

import (
	"context"
	"fmt"
	"strings"
)

// Word SaveAs2 file formats.
const (
	wdFormatDocumentDefault = 16
	wdFormatPDF             = 17
)

// wordAutomation converts through Microsoft Word's COM interface, driven by
// PowerShell. Every call starts and quits its own Word instance.
type wordAutomation struct {
	runner     CommandRunner
	powershell string
}

func (w *wordAutomation) Name() string { return "word" }

func (w *wordAutomation) Probe(ctx context.Context) error {
	script := `$ErrorActionPreference = 'Stop'
$w = New-Object -ComObject Word.Application
$w.Quit()`
	return w.run(ctx, script)
}

func (w *wordAutomation) Convert(ctx context.Context, input, output string, target Format) error {
	format := wdFormatDocumentDefault
	if target == FormatPDF {
		format = wdFormatPDF
	}
	return w.run(ctx, wordConvertScript(input, output, format))
}

func (w *wordAutomation) run(ctx context.Context, script string) error {
	stdout, stderr, err := w.runner.Run(ctx, w.powershell, "-NoProfile", "-NonInteractive", "-Command", script)
	if err != nil {
		if d := diagnostic(stdout, stderr); d != "" {
			return fmt.Errorf("%w: %s", err, d)
		}
		return err
	}
	return nil
}

func wordConvertScript(input, output string, format int) string {
	return fmt.Sprintf(`$ErrorActionPreference = 'Stop'
$w = New-Object -ComObject Word.Application
$w.Visible = $false
$w.DisplayAlerts = 0
try {
  $d = $w.Documents.Open(%s, $false, $true)
  try { $d.SaveAs2(%s, %d) } finally { $d.Close(0) }
} finally {
  $w.Quit()
}`, psQuote(input), psQuote(output), format)
}

// psQuote returns s as a single-quoted PowerShell literal.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// unsupportedNative is used where no native word processor can be automated.
type unsupportedNative struct {
	reason string
}

func (u unsupportedNative) Name() string { return "none" }

func (u unsupportedNative) Probe(context.Context) error {
	return fmt.Errorf("native automation unavailable: %s", u.reason)
}

func (u unsupportedNative) Convert(context.Context, string, string, Format) error {
	return u.Probe(context.Background())
}
