package protocol

import (
	"net/url"
	"strings"
)

// Method enumerates the two methods this server will dispatch. Any other
// token parses fine at the protocol layer — method validation is the
// worker's job, not the parser's.
type Method string

const (
	MethodGet  Method = "GET"
	MethodHead Method = "HEAD"
)

// supportedProtocols is the closed set of protocol tokens this server
// accepts on the request line.
var supportedProtocols = map[string]bool{
	"HTTP/1.0": true,
	"HTTP/1.1": true,
}

// Request is the parsed tuple this server cares about. It is never
// persisted past a single worker frame.
type Request struct {
	Method   string
	Path     string
	Protocol string
}

// Parse splits raw on CRLF, discards blank lines, and interprets the
// first remaining line as the request line. It does not look at any
// header beyond that first line.
func Parse(raw string) (*Request, error) {
	var firstLine string
	found := false
	for _, line := range strings.Split(raw, "\r\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		firstLine = line
		found = true
		break
	}
	if !found {
		return nil, NewError(KindBadRequest, nil)
	}

	tokens := strings.Fields(firstLine)
	if len(tokens) != 3 {
		return nil, NewError(KindBadRequest, nil)
	}
	method, target, proto := tokens[0], tokens[1], tokens[2]

	if !supportedProtocols[proto] {
		return nil, NewError(KindHTTPVersionNotSupported, nil)
	}

	path, err := decodeTarget(target)
	if err != nil {
		return nil, NewError(KindBadRequest, err)
	}

	return &Request{Method: method, Path: path, Protocol: proto}, nil
}

// decodeTarget extracts the path component of a request-target, discards
// any query string, and resolves percent-escapes.
func decodeTarget(target string) (string, error) {
	if i := strings.IndexByte(target, '?'); i >= 0 {
		target = target[:i]
	}
	path, err := url.PathUnescape(target)
	if err != nil {
		return "", err
	}
	return path, nil
}
