package assets

import "embed"

// AssetsFS holds the stylesheet and images served under /assets/.
// Run "go run ./cmd/do gen" to build css/output.css.
//
//go:embed css img
var AssetsFS embed.FS
