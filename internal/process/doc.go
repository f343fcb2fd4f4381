// Package process starts external tools in their own process group so that a
// timed-out conversion can be torn down together with its children.
package process
