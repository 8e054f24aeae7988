// Package docs holds the Markdown reference bundled with the glance binary.
package docs

import "embed"

// FS contains the query language reference.
//
//go:embed reference
var FS embed.FS

// QueryLanguage is the path of the language reference inside FS.
const QueryLanguage = "reference/query-language.md"
