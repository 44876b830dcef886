package bundle

import (
	"embed"
	"io/fs"
)

// DefaultAssetName is the asset loaded when no explicit bundle file is set.
const DefaultAssetName = "index.bundle.js"

//go:embed assets
var embedded embed.FS

// DefaultAssets returns the assets shipped with the host.
func DefaultAssets() fs.FS {
	sub, err := fs.Sub(embedded, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}
