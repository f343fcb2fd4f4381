package main

// Notes:
// - Scripts are checked for content markers only; running them in a real
//   shell is out of scope.

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestGenerateCompletion - Script generation per shell
// ---------------------------------------------------------------------------

func TestGenerateCompletion_SupportedShells(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		shell        Shell
		wantContains []string
	}{
		{
			name:  "bash",
			shell: ShellBash,
			wantContains: []string{
				"_doccrop()", "complete -o filenames -F _doccrop doccrop", "compgen",
				"crop measure preview doctor", "--margin|-m)", "--editable) COMPREPLY=($(compgen -W \"pdf margins\"",
			},
		},
		{
			name:  "zsh",
			shell: ShellZsh,
			wantContains: []string{
				"#compdef doccrop", "_arguments", "_describe", "'crop:Crop margins",
				"{-m,--margin}", "--editable", "(pdf margins)", `_files -g "*.pdf *.docx *.doc"`,
			},
		},
		{
			name:  "fish",
			shell: ShellFish,
			wantContains: []string{
				"complete -c doccrop -f", "__fish_use_subcommand", "__fish_seen_subcommand_from crop",
				"-l margin -s m", "-l editable -x -a 'pdf margins'", "-a 'bash zsh fish powershell'",
			},
		},
		{
			name:  "powershell",
			shell: ShellPowerShell,
			wantContains: []string{
				"Register-ArgumentCompleter -Native -CommandName doccrop", "'crop' = @(",
				"'--margin'", "'-m'", "'--require-native'", "'completion' = @('bash', 'zsh', 'fish', 'powershell')",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			if err := GenerateCompletion(&buf, tt.shell); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			out := buf.String()
			for _, want := range tt.wantContains {
				if !strings.Contains(out, want) {
					t.Errorf("%s script missing %q", tt.shell, want)
				}
			}
		})
	}
}

func TestGenerateCompletion_UnsupportedShell(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := GenerateCompletion(&buf, Shell("tcsh"))
	if !errors.Is(err, ErrUnsupportedShell) {
		t.Errorf("error = %v, want ErrUnsupportedShell", err)
	}
	if buf.Len() != 0 {
		t.Error("nothing should be written for an unsupported shell")
	}
	if exitCodeFor(err) != ExitUsage {
		t.Errorf("exit code = %d, want %d", exitCodeFor(err), ExitUsage)
	}
}

// ---------------------------------------------------------------------------
// TestGetCommands - Registry mirrors the real flag sets
// ---------------------------------------------------------------------------

func TestGetCommands(t *testing.T) {
	t.Parallel()

	byName := map[string]commandDef{}
	for _, c := range getCommands() {
		byName[c.Name] = c
	}
	for _, name := range []string{"crop", "measure", "preview", "doctor", "completion", "version", "help"} {
		if _, ok := byName[name]; !ok {
			t.Errorf("missing command %q", name)
		}
	}

	flagOf := func(cmd, long string) (flagDef, bool) {
		for _, f := range byName[cmd].Flags {
			if f.Long == long {
				return f, true
			}
		}
		return flagDef{}, false
	}

	tests := []struct {
		cmd, flag string
		typ       flagType
	}{
		{"crop", "margin", flagFloat},
		{"crop", "workers", flagInt},
		{"crop", "editable", flagEnum},
		{"crop", "output", flagDir},
		{"crop", "report", flagFile},
		{"crop", "require-native", flagBool},
		{"measure", "json", flagBool},
		{"preview", "page", flagInt},
		{"preview", "pdftoppm", flagString},
	}
	for _, tt := range tests {
		f, ok := flagOf(tt.cmd, tt.flag)
		if !ok {
			t.Errorf("%s: missing --%s", tt.cmd, tt.flag)
			continue
		}
		if f.Type != tt.typ {
			t.Errorf("%s --%s: type = %d, want %d", tt.cmd, tt.flag, f.Type, tt.typ)
		}
	}

	if _, ok := flagOf("measure", "workers"); ok {
		t.Error("measure should not offer --workers")
	}
	if !byName["crop"].TakesFiles || byName["doctor"].TakesFiles {
		t.Error("only document commands take file arguments")
	}
}

func TestRunCompletion(t *testing.T) {
	t.Parallel()

	env := newTestEnv(nil)
	if err := runCompletion(nil, env.Environment); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(env.stdout.String(), "Usage: doccrop completion <shell>") {
		t.Errorf("stdout = %q", env.stdout)
	}

	env = newTestEnv(nil)
	if err := runCompletion([]string{"fish"}, env.Environment); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(env.stdout.String(), "# fish completion for doccrop") {
		t.Errorf("stdout = %q", env.stdout)
	}
}
