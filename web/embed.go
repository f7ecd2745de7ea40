// Package web holds the dashboard templates and static assets.
package web

import "embed"

// TemplatesFS holds the page and the htmx partials.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

//go:embed static/*
var StaticFS embed.FS
