package main

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed public/user
var userFS embed.FS

//go:embed public/admin
var adminFS embed.FS

// GetUserFS returns the student frontend bundle.
func GetUserFS() http.FileSystem {
	sub, err := fs.Sub(userFS, "public/user")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// GetAdminFS returns the admin frontend bundle.
func GetAdminFS() http.FileSystem {
	sub, err := fs.Sub(adminFS, "public/admin")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
