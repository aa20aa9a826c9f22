// Package adminweb embeds the single static admin.html asset served at
// GET /_openherd/admin. It is treated as an opaque external collaborator
// surface (spec.md §1 Non-goals): a minimal functional page, not styled.
package adminweb

import (
	"embed"
	"io/fs"
)

//go:embed admin.html
var files embed.FS

// FS returns the embedded admin asset filesystem, rooted so that
// admin.html is served at "/".
func FS() fs.FS {
	return &renamedFS{inner: files}
}

// renamedFS serves admin.html for the names ".", "/" and "index.html",
// so the admin route can open the asset as "/".
type renamedFS struct {
	inner embed.FS
}

func (r *renamedFS) Open(name string) (fs.File, error) {
	if name == "." || name == "/" || name == "index.html" {
		name = "admin.html"
	}
	return r.inner.Open(name)
}
