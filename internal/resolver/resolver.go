// Package resolver maps a request URI onto a file under the document
// root, enforcing containment (no escaping the root via "..") and the
// directory-index convention, and classifies the result's MIME type from
// the static table in internal/mimetable.
package resolver

import (
	"os"
	"path"
	"strings"

	"github.com/avbelov/staticd/internal/mimetable"
	"github.com/avbelov/staticd/internal/protocol"
)

// File is the outcome of a successful resolve: an on-disk path under the
// document root, its byte length, and the content type to serve it with.
// It exists only within the worker frame that produced it.
type File struct {
	AbsPath string
	Length  int64
	MIME    string
}

// Resolver resolves request paths against a fixed document root.
type Resolver struct {
	root string
}

// New returns a Resolver rooted at root. root must already be an absolute,
// existing directory; callers validate that at startup (internal/config).
func New(root string) *Resolver {
	return &Resolver{root: strings.TrimRight(root, "/")}
}

// Resolve maps a URI-decoded request path onto a file under the root.
// A path naming a directory (or ending in "/") is served via its
// index.html; a file whose extension is not in the MIME table is
// Forbidden rather than NotFound.
func (r *Resolver) Resolve(uriPath string) (*File, error) {
	trimmed := strings.TrimPrefix(uriPath, "/")
	wantsDir := strings.HasSuffix(uriPath, "/")

	clean := path.Clean("/" + trimmed)
	if clean == "/" {
		clean = ""
	} else {
		clean = strings.TrimPrefix(clean, "/")
	}

	// path.Clean collapses ".." against the leading "/" we supplied, so any
	// attempt to climb above the root is neutralised there. Guard again
	// explicitly: a cleaned path must never start with "..".
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return nil, protocol.NewError(protocol.KindNotFound, nil)
	}

	candidate := r.root
	if clean != "" {
		candidate = r.root + "/" + clean
	}

	info, err := os.Stat(candidate)
	if err != nil {
		return nil, protocol.NewError(protocol.KindNotFound, err)
	}

	if info.IsDir() || wantsDir {
		indexPath := candidate + "/index.html"
		indexInfo, err := os.Stat(indexPath)
		if err != nil {
			return nil, protocol.NewError(protocol.KindNotFound, err)
		}
		return &File{AbsPath: indexPath, Length: indexInfo.Size(), MIME: mimetable.HTML}, nil
	}

	ext := extensionOf(uriPath)
	mime, ok := mimetable.Lookup(ext)
	if !ok {
		return nil, protocol.NewError(protocol.KindForbidden, nil)
	}

	return &File{AbsPath: candidate, Length: info.Size(), MIME: mime}, nil
}

// extensionOf returns the substring after the last '.' in the URI path,
// lower-cased. A path with no '.' has no extension.
func extensionOf(uriPath string) string {
	i := strings.LastIndexByte(uriPath, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(uriPath[i+1:])
}
