// Package ui serves the embedded single-page dashboard: a quick
// analysis form over the JSON API plus links to the swagger docs.
package ui

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/*
var content embed.FS

// Handler serves the embedded UI assets under /.
func Handler() http.Handler {
	sub, err := fs.Sub(content, "static")
	if err != nil {
		// only reachable with a broken build
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
