package annotation

import (
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/lewtec/demarcador/internal/catalog"
)

// GetHTTPHandler serves a read-only view of the project: the progress report
// at / and the project images under /image/.
func (p *Project) GetHTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/image/", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/image/")
		if name == "" || strings.Contains(name, "/") || !catalog.IsImage(name) {
			http.NotFoundHandler().ServeHTTP(w, r)
			return
		}
		f, err := p.FS.Open(name)
		if errors.Is(err, os.ErrNotExist) {
			http.NotFoundHandler().ServeHTTP(w, r)
			return
		}
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			log.Printf("error: http: while serving image %s: %s", name, err)
			return
		}
		defer f.Close()
		if contentType := mime.TypeByExtension(path.Ext(name)); contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		io.Copy(w, f)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFoundHandler().ServeHTTP(w, r)
			return
		}
		images, err := p.Images()
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			log.Printf("error: http: %s", err)
			return
		}
		store, err := p.LoadStore(images)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			log.Printf("error: http: while loading annotations: %s", err)
			return
		}
		report := BuildReport(p.Config, store, images)
		if err := ExecTemplate(w, TemplateContent{Title: "Report", Content: report.Markdown()}); err != nil {
			log.Printf("error: http: while rendering report: %s", err)
		}
	})

	var handler http.Handler = mux
	handler = HTTPLogger(handler)
	return handler
}

func HTTPLogger(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		initialTime := time.Now()
		method := r.Method
		path := r.URL.String()
		wr := NewStatusCodeRecorderResponseWriter(w)
		handler.ServeHTTP(wr, r)
		finalTime := time.Now()
		statusCode := wr.Status
		log.Printf("http: time:%dms %d %s %s", finalTime.Sub(initialTime)/time.Millisecond, statusCode, method, path)
	})
}

type StatusCodeRecorderResponseWriter struct {
	http.ResponseWriter
	Status int
}

func (r *StatusCodeRecorderResponseWriter) WriteHeader(status int) {
	r.Status = status
	r.ResponseWriter.WriteHeader(status)
}

func NewStatusCodeRecorderResponseWriter(w http.ResponseWriter) *StatusCodeRecorderResponseWriter {
	return &StatusCodeRecorderResponseWriter{ResponseWriter: w, Status: 200}
}
