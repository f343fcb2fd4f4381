// Package assets provides the stylesheet and HTML template used to render
// run reports. Built-in assets are embedded; a directory with the same
// layout (styles/<name>.css, templates/<name>.html) can override them.
package assets
