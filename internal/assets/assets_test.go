package assets

// Notes:
// - Symlink escape is tested only where os.Symlink works (skipped on failure,
//   e.g. Windows without developer mode).
// - ErrAssetRead (permission errors) is not tested: running as root reads anything.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// TestValidateAssetName - Name safety
// ---------------------------------------------------------------------------

func TestValidateAssetName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		ok   bool
	}{
		{"simple", "report", true},
		{"hyphen", "dark-report", true},
		{"empty", "", false},
		{"slash", "a/b", false},
		{"backslash", `a\b`, false},
		{"dot", "report.css", false},
		{"traversal", "..", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateAssetName(tt.in)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidAssetName)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestEmbeddedLoader - Built-in assets
// ---------------------------------------------------------------------------

func TestEmbeddedLoader(t *testing.T) {
	t.Parallel()

	l := NewEmbeddedLoader()

	css, err := l.LoadStyle(DefaultStyleName)
	require.NoError(t, err)
	assert.Contains(t, css, "table")

	tpl, err := l.LoadTemplate(DefaultTemplateName)
	require.NoError(t, err)
	assert.Contains(t, tpl, "{{.Body}}")
	assert.Contains(t, tpl, "{{.CSS}}")

	_, err = l.LoadStyle("missing")
	assert.ErrorIs(t, err, ErrStyleNotFound)
	_, err = l.LoadTemplate("missing")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
	_, err = l.LoadStyle("../x")
	assert.ErrorIs(t, err, ErrInvalidAssetName)
}

// ---------------------------------------------------------------------------
// TestFilesystemLoader - Directory overrides
// ---------------------------------------------------------------------------

func writeAsset(t *testing.T, base, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(base, dir), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(base, dir, name), []byte(content), 0o600))
}

func TestNewFilesystemLoader_Invalid(t *testing.T) {
	t.Parallel()

	_, err := NewFilesystemLoader("")
	assert.ErrorIs(t, err, ErrInvalidBasePath)

	_, err = NewFilesystemLoader(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, ErrInvalidBasePath)

	file := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	_, err = NewFilesystemLoader(file)
	assert.ErrorIs(t, err, ErrInvalidBasePath)
}

func TestFilesystemLoader_Load(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	writeAsset(t, base, "styles", "report.css", "body{color:red}")

	l, err := NewFilesystemLoader(base)
	require.NoError(t, err)

	css, err := l.LoadStyle("report")
	require.NoError(t, err)
	assert.Equal(t, "body{color:red}", css)

	_, err = l.LoadTemplate("report")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestFilesystemLoader_SymlinkEscape(t *testing.T) {
	t.Parallel()

	outside := t.TempDir()
	writeAsset(t, outside, ".", "secret.css", "x")

	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "styles"), 0o750))
	if err := os.Symlink(filepath.Join(outside, "secret.css"), filepath.Join(base, "styles", "evil.css")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	l, err := NewFilesystemLoader(base)
	require.NoError(t, err)

	_, err = l.LoadStyle("evil")
	assert.ErrorIs(t, err, ErrPathTraversal)
}

// ---------------------------------------------------------------------------
// TestResolver - Custom first, embedded fallback
// ---------------------------------------------------------------------------

func TestResolver(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	writeAsset(t, base, "styles", "report.css", "custom")

	r, err := NewResolver(base)
	require.NoError(t, err)
	assert.True(t, r.HasCustomLoader())

	css, err := r.LoadStyle("report")
	require.NoError(t, err)
	assert.Equal(t, "custom", css)

	tpl, err := r.LoadTemplate("report")
	require.NoError(t, err, "falls back to embedded template")
	assert.Contains(t, tpl, "{{.Body}}")

	_, err = r.LoadStyle("bad.name")
	assert.ErrorIs(t, err, ErrInvalidAssetName, "validation errors do not fall back")
}

func TestResolver_EmbeddedOnly(t *testing.T) {
	t.Parallel()

	r, err := NewResolver("")
	require.NoError(t, err)
	assert.False(t, r.HasCustomLoader())

	_, err = r.LoadStyle(DefaultStyleName)
	assert.NoError(t, err)

	_, err = NewResolver(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, ErrInvalidBasePath)
}
