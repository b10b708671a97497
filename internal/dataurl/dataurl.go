// Package dataurl builds and parses data: URIs for inline image
// embedding.
package dataurl

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// Encode wraps payload in a base64 data URI with the given MIME type.
func Encode(payload []byte, mime string) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(payload)
}

// Decode parses a data URI and returns the payload bytes and MIME
// type. Both base64 and percent-encoded bodies are supported.
func Decode(uri string) ([]byte, string, error) {
	if !strings.HasPrefix(uri, "data:") {
		return nil, "", fmt.Errorf("not a data URI")
	}

	head, body, ok := strings.Cut(uri[len("data:"):], ",")
	if !ok {
		return nil, "", fmt.Errorf("data URI missing comma separator")
	}

	mime := head
	isBase64 := false
	if i := strings.Index(head, ";"); i >= 0 {
		mime = head[:i]
		isBase64 = strings.Contains(head[i:], ";base64")
	}
	if mime == "" {
		mime = "text/plain"
	}

	if isBase64 {
		payload, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			// Some producers strip padding.
			payload, err = base64.RawStdEncoding.DecodeString(body)
			if err != nil {
				return nil, "", fmt.Errorf("decode base64 body: %w", err)
			}
		}
		return payload, mime, nil
	}

	decoded, err := url.PathUnescape(body)
	if err != nil {
		return nil, "", fmt.Errorf("unescape body: %w", err)
	}
	return []byte(decoded), mime, nil
}
