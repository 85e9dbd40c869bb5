// Package templates holds the server-rendered HTML views, embedded so the
// binary serves them regardless of working directory.
package templates

import "embed"

//go:embed *.html
var FS embed.FS
