// Package handler implements the GET and HEAD method handlers on top of
// the resolver and response writer.
package handler

import (
	"os"

	"github.com/avbelov/staticd/internal/protocol"
	"github.com/avbelov/staticd/internal/resolver"
	"github.com/avbelov/staticd/internal/response"
)

// Handle runs the resolver for req and builds the response.Outcome for
// it, dispatching on method. req.Method is assumed already validated as
// GET or HEAD by the worker.
func Handle(r *resolver.Resolver, req *protocol.Request) response.Outcome {
	file, err := r.Resolve(req.Path)
	if err != nil {
		return outcomeForError(err)
	}

	switch protocol.Method(req.Method) {
	case protocol.MethodHead:
		return response.Ok(file.Length, file.MIME, nil)
	default: // GET, the only other method the worker lets through
		body, err := os.ReadFile(file.AbsPath)
		if err != nil {
			return response.Fail(protocol.KindInternalServerError)
		}
		// Length comes from the bytes actually read, not the earlier Stat,
		// so Content-Length always matches the payload even if the file
		// changed in between.
		return response.Ok(int64(len(body)), file.MIME, body)
	}
}

func outcomeForError(err error) response.Outcome {
	if perr, ok := err.(*protocol.Error); ok {
		return response.Fail(perr.Kind)
	}
	return response.Fail(protocol.KindInternalServerError)
}
