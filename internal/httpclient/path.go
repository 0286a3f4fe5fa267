package httpclient

import (
	"net/url"
	"strings"
)

// PathSegment percent-encodes an identifier for use as one path segment.
// URIs such as "http://ex.org/r#1" keep their ':', '/' and '#' out of the
// path structure.
func PathSegment(id string) string {
	return strings.ReplaceAll(url.PathEscape(id), ":", "%3A")
}
