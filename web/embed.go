// Package web embeds the page templates and the static assets the server
// renders and serves.
package web

import "embed"

// TemplatesFS holds the page and fragment templates.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds app.js and style.css.
//
//go:embed static/*
var StaticFS embed.FS
