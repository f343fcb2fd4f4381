package main

import (
	"io"
	"os"
	"time"

	doccrop "github.com/alnah/go-doccrop"
	"github.com/alnah/go-doccrop/internal/report"
)

// Environment holds injectable dependencies for testability.
// Includes I/O, time, environment lookup, and external tool execution.
type Environment struct {
	Now     func() time.Time
	Stdout  io.Writer
	Stderr  io.Writer
	Getenv  func(string) string
	Environ func() []string

	// Runner executes soffice, pdftoppm and PowerShell. Nil uses the
	// library default.
	Runner doccrop.CommandRunner
	// LookPath resolves tool names on PATH. Nil uses exec.LookPath.
	LookPath func(string) (string, error)
	// SofficeSearchPaths replaces the well-known LibreOffice install
	// locations when non-nil.
	SofficeSearchPaths []string
	// Report renders run reports.
	Report *report.Writer
}

// DefaultEnv returns the production environment. Values from a .env file
// fill in variables the process environment does not set.
func DefaultEnv(dotenv map[string]string) *Environment {
	return &Environment{
		Now:     time.Now,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Getenv:  layeredGetenv(os.LookupEnv, dotenv),
		Environ: layeredEnviron(os.Environ, dotenv),
		Report:  report.NewWriter(),
	}
}

// layeredGetenv looks a variable up in the process first, then in dotenv.
func layeredGetenv(lookup func(string) (string, bool), dotenv map[string]string) func(string) string {
	return func(key string) string {
		if v, ok := lookup(key); ok {
			return v
		}
		return dotenv[key]
	}
}

// layeredEnviron returns the process environment plus dotenv entries.
func layeredEnviron(environ func() []string, dotenv map[string]string) func() []string {
	return func() []string {
		out := environ()
		for k, v := range dotenv {
			out = append(out, k+"="+v)
		}
		return out
	}
}

func (e *Environment) gatewayOptions() []doccrop.GatewayOption {
	var opts []doccrop.GatewayOption
	if e.Runner != nil {
		opts = append(opts, doccrop.WithRunner(e.Runner))
	}
	if e.LookPath != nil {
		opts = append(opts, doccrop.WithLookPath(e.LookPath))
	}
	if e.SofficeSearchPaths != nil {
		opts = append(opts, doccrop.WithSearchPaths(e.SofficeSearchPaths))
	}
	return opts
}

func (e *Environment) rasterizerOptions() []doccrop.RasterizerOption {
	var opts []doccrop.RasterizerOption
	if e.Runner != nil {
		opts = append(opts, doccrop.WithRasterizerRunner(e.Runner))
	}
	if e.LookPath != nil {
		opts = append(opts, doccrop.WithRasterizerLookPath(e.LookPath))
	}
	return opts
}
