// Package web embeds the browser chat page served by the relay.
package web

import "embed"

//go:embed index.html app.js
var FS embed.FS
