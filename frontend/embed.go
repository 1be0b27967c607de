package frontend

import "embed"

//go:embed dist
var StaticFiles embed.FS
