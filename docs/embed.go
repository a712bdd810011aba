package docs

import "embed"

// FS contains the Markdown guides bundled with the qbank binary.
//
//go:embed guide
var FS embed.FS
