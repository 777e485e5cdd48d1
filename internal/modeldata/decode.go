package modeldata

import (
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
)

// acceptEncoding is advertised on catalog requests. Setting it disables the
// transport's transparent gzip handling, so decodeBody must cover every
// listed encoding.
const acceptEncoding = "br, gzip, deflate"

// decodeBody decompresses body according to Content-Encoding, reading at
// most limit decoded bytes. Unknown encodings are an error.
func decodeBody(body io.Reader, contentEncoding string, limit int64) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(strings.Split(contentEncoding, ",")[0]))

	var reader io.Reader
	switch encoding {
	case "", "identity":
		reader = body
	case "gzip":
		gz, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("opening gzip body: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "deflate":
		fl := flate.NewReader(body)
		defer fl.Close()
		reader = fl
	case "br":
		reader = brotli.NewReader(body)
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", contentEncoding)
	}

	raw, err := io.ReadAll(io.LimitReader(reader, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if int64(len(raw)) > limit {
		return nil, fmt.Errorf("response body too large (exceeds %d bytes)", limit)
	}
	return raw, nil
}
