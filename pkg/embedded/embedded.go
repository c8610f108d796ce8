// Package embedded provides embedded static assets for the application.
package embedded

import (
	"embed"
)

// IndexPath is the dashboard page inside Files.
const IndexPath = "web/index.html"

// Files contains the dashboard page served at "/". The page renders the
// holdings tables and the grouped PnL chart from /api/dashboard and keeps
// them current over /api/ws.
//
//go:embed web
var Files embed.FS
