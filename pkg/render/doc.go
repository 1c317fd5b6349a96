// Package render provides the default ports.Renderer: a Markdown outline of
// the visible tree with the messages of every feedback collector.
package render
