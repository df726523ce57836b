// Package web holds the HTML templates compiled into the binary.
package web

import "embed"

// Templates contains every page template under templates/.
//
//go:embed templates/*.html
var Templates embed.FS
