// Package report renders a run summary as Markdown, HTML or PDF.
//
// The Markdown form is the source of truth. HTML is produced from it with
// goldmark (GFM tables, chroma highlighting for the settings block) wrapped in
// the embedded report template; PDF is printed from that HTML by headless
// Chrome through go-rod.
package report
