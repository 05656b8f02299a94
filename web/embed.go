// Package web provides embedded static assets for the candy counter UI.
// Templates load TailwindCSS and HTMX from CDN; this tree carries the
// site-specific extras served at /static/.
package web

import "embed"

// StaticFS embeds the web/static/ directory tree.
//
//go:embed all:static
var StaticFS embed.FS
