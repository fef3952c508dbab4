// Package mimetable is the static extension-to-content-type table the
// resolver consults. It is treated as external, static data: nothing in
// this package reads the filesystem or network, and the table itself is
// never mutated after init.
package mimetable

// types maps a lower-cased file extension (without the leading dot) to
// the Content-Type value served for it. An extension absent from this
// table is refused outright rather than served as octet-stream.
var types = map[string]string{
	"html": "text/html",
	"css":  "text/css",
	"txt":  "text/plain",
	"js":   "text/javascript",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"swf":  "application/x-shockwave-flash",
}

// Lookup returns the content type registered for ext (without the
// leading dot) and whether it was found.
func Lookup(ext string) (string, bool) {
	ct, ok := types[ext]
	return ct, ok
}

// HTML is the content type used for directory-index responses, exposed so
// the resolver doesn't need to re-derive it from the extension table.
const HTML = "text/html"
