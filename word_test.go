package doccrop

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPsQuote(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want string }{
		{`C:\docs\a.docx`, `'C:\docs\a.docx'`},
		{`C:\it's here\b.doc`, `'C:\it''s here\b.doc'`},
		{"", "''"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, psQuote(tt.in))
	}
}

func TestWordAutomation_Convert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		target Format
		want   string
	}{
		{FormatPDF, `SaveAs2('C:\out\a.pdf', 17)`},
		{FormatEditable, `SaveAs2('C:\out\a.pdf', 16)`},
	}

	for _, tt := range tests {
		t.Run(tt.target.String(), func(t *testing.T) {
			t.Parallel()

			runner := &fakeRunner{}
			w := &wordAutomation{runner: runner, powershell: "powershell.exe"}
			require.NoError(t, w.Convert(context.Background(), `C:\in\a.doc`, `C:\out\a.pdf`, tt.target))

			calls := runner.Calls()
			require.Len(t, calls, 1)
			assert.Equal(t, "powershell.exe", calls[0].name)
			assert.Equal(t, []string{"-NoProfile", "-NonInteractive", "-Command"}, calls[0].args[:3])
			script := calls[0].args[3]
			assert.Contains(t, script, `Documents.Open('C:\in\a.doc', $false, $true)`)
			assert.Contains(t, script, tt.want)
			assert.Contains(t, script, "$w.Quit()")
		})
	}
}

func TestWordAutomation_ErrorIncludesOutput(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{fn: func(context.Context, string, []string) (string, string, error) {
		return "", "Retrieving the COM class factory failed", errors.New("exit status 1")
	}}
	w := &wordAutomation{runner: runner, powershell: "powershell.exe"}

	err := w.Probe(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit status 1")
	assert.Contains(t, err.Error(), "COM class factory")
}

func TestUnsupportedNative(t *testing.T) {
	t.Parallel()

	n := unsupportedNative{reason: "requires Windows"}
	assert.Equal(t, "none", n.Name())
	assert.ErrorContains(t, n.Probe(context.Background()), "requires Windows")
	assert.Error(t, n.Convert(context.Background(), "a", "b", FormatPDF))
}
