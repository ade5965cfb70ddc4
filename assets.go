// Package rentdesk provides embedded assets for production builds.
package rentdesk

import "embed"

// In dev mode templates are read from disk so edits show up without a rebuild.
// Production builds serve them from this filesystem.

//go:embed all:frontend/templates
var TemplateFS embed.FS
