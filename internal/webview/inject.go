package webview

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

//go:embed surface.js
var surfaceScript string

// ScriptConfig is exposed to the page script as window.__taqyonConfig.
type ScriptConfig struct {
	Inspect bool `json:"inspect"`
}

// Snippet returns the script tags injected into every HTML document.
func Snippet(cfg ScriptConfig) []byte {
	data, _ := json.Marshal(cfg)

	var b bytes.Buffer
	b.WriteString("<script>window.__taqyonConfig=")
	b.Write(data)
	b.WriteString(";</script><script>")
	b.WriteString(surfaceScript)
	b.WriteString("</script>")
	return b.Bytes()
}

// Inject places snippet at the end of <head>, falling back to the start of
// <body> and finally to the end of the document.
func Inject(doc, snippet []byte) []byte {
	lower := bytes.ToLower(doc)

	at := bytes.Index(lower, []byte("</head>"))
	if at < 0 {
		if body := bytes.Index(lower, []byte("<body")); body >= 0 {
			if end := bytes.IndexByte(lower[body:], '>'); end >= 0 {
				at = body + end + 1
			}
		}
	}
	if at < 0 {
		at = len(doc)
	}

	out := make([]byte, 0, len(doc)+len(snippet))
	out = append(out, doc[:at]...)
	out = append(out, snippet...)
	out = append(out, doc[at:]...)
	return out
}

// InjectMiddleware adds the surface script to HTML responses. It has the
// shape of an assetserver.Middleware.
func InjectMiddleware(cfg ScriptConfig) func(http.Handler) http.Handler {
	snippet := Snippet(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}
			// Compressed bodies cannot be rewritten.
			r.Header.Del("Accept-Encoding")

			iw := &injectWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(iw, r)
			iw.finish(snippet)
		})
	}
}

type injectWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	decided     bool
	html        bool
	buf         bytes.Buffer
}

func (w *injectWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = code
}

func (w *injectWriter) Write(p []byte) (int, error) {
	if !w.decided {
		w.decide(p)
	}
	if w.html {
		return w.buf.Write(p)
	}
	return w.ResponseWriter.Write(p)
}

func (w *injectWriter) decide(first []byte) {
	w.decided = true

	ct := w.Header().Get("Content-Type")
	if ct == "" && first != nil {
		ct = http.DetectContentType(first)
	}
	w.html = strings.HasPrefix(strings.ToLower(ct), "text/html") &&
		w.Header().Get("Content-Encoding") == ""

	if !w.html {
		w.ResponseWriter.WriteHeader(w.status)
	}
}

func (w *injectWriter) finish(snippet []byte) {
	if !w.decided {
		// Nothing was written; pass the status through.
		w.decided = true
		w.ResponseWriter.WriteHeader(w.status)
		return
	}
	if !w.html {
		return
	}

	body := Inject(w.buf.Bytes(), snippet)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.ResponseWriter.WriteHeader(w.status)
	_, _ = w.ResponseWriter.Write(body)
}

// Flush supports streaming responses that are not rewritten.
func (w *injectWriter) Flush() {
	if w.decided && !w.html {
		if f, ok := w.ResponseWriter.(http.Flusher); ok {
			f.Flush()
		}
	}
}
