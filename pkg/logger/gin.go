package logger

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"time"

	"ShopFulfillment/pkg/correlation"

	"github.com/gin-gonic/gin"
)

const maxBody = 8 * 1024 // 8KB

func limit(b []byte) []byte {
	if len(b) > maxBody {
		return b[:maxBody]
	}
	return b
}

type responseBodyWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (r *responseBodyWriter) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// CorrelationMiddleware reuses the caller's X-Correlation-ID or mints one,
// and echoes it on the response.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, id := correlation.Ensure(c.Request.Context(), c.GetHeader(correlation.Header))
		c.Request = c.Request.WithContext(ctx)
		c.Header(correlation.Header, id)

		c.Next()
	}
}

// BodyLogger logs every request with its (truncated) request and response bodies.
// Paths listed in skipBodies are logged without bodies.
func BodyLogger(skipBodies ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipBodies))
	for _, p := range skipBodies {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		_, noBodies := skip[c.Request.URL.Path]

		var requestBody []byte
		if c.Request.Body != nil && !noBodies {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		responseBuffer := &bytes.Buffer{}
		writer := &responseBodyWriter{
			body:           responseBuffer,
			ResponseWriter: c.Writer,
		}
		c.Writer = writer

		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", scrubQuery(c.Request.URL.RawQuery),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if !noBodies {
			attrs = append(attrs,
				maybeJSON("request_body", limit(requestBody)),
				maybeJSON("response_body", limit(responseBuffer.Bytes())),
			)
		}

		slog.InfoContext(c.Request.Context(), "HTTP Request", attrs...)
	}
}

func maybeJSON(key string, b []byte) slog.Attr {
	bb := bytes.TrimSpace(b)

	if len(bb) == 0 {
		return slog.Any(key, nil)
	}

	var doc any
	if err := decodeJSON(bb, &doc); err == nil {
		return slog.Any(key, scrubValue(doc))
	}

	// not JSON or truncated: keep as string so the log line stays valid
	return slog.String(key, secretField.ReplaceAllString(string(bb), `"$1":"`+redacted+`"`))
}

// secretField matches string-valued secret fields in text that failed to parse.
var secretField = regexp.MustCompile(`(?i)"(token|download_token|admin_key|authorization)"\s*:\s*"(?:[^"\\]|\\.)*"?`)

func decodeJSON(b []byte, into *any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(into); err != nil {
		return err
	}
	if dec.More() {
		return io.ErrUnexpectedEOF
	}
	return nil
}

// scrubValue replaces secret fields at any depth of a decoded JSON document.
func scrubValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if isSecretKey(k) {
				t[k] = redacted
				continue
			}
			t[k] = scrubValue(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = scrubValue(val)
		}
		return t
	default:
		return v
	}
}

func scrubQuery(raw string) string {
	if raw == "" {
		return raw
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return redacted
	}
	dirty := false
	for k := range values {
		if isSecretKey(k) {
			values[k] = []string{redacted}
			dirty = true
		}
	}
	if !dirty {
		return raw
	}
	return values.Encode()
}
