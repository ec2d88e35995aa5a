package server

import (
	_ "embed"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"shapeview/internal/session"
	"shapeview/internal/shapefile"
	"shapeview/internal/viewmap"
)

const sessionCookie = "shapeview_session"

//go:embed index.tmpl
var indexTmplSrc string

var indexTmpl = template.Must(template.New("index").Parse(indexTmplSrc))

func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) *session.Session {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		if sess := s.store.Lookup(c.Value); sess != nil {
			return sess
		}
	}
	sess := s.store.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

type indexData struct {
	HasTable       bool
	Columns        []string
	Selected       string
	MapSrc         string
	FeatureSummary string
	LoadMessage    string
	GeometryInfo   string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)

	data := indexData{
		HasTable:       sess.HasTable(),
		Columns:        sess.NumericColumns(),
		Selected:       sess.EffectiveAttribute(),
		FeatureSummary: sess.FeatureSummary(),
		LoadMessage:    sess.LoadMessage(),
		GeometryInfo:   sess.GeometryInfo(),
	}
	if data.HasTable && data.Selected != "" {
		data.MapSrc = "/map?attr=" + url.QueryEscape(data.Selected)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, data); err != nil {
		s.log.ErrorContext(r.Context(), "index template", "err", err)
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		sess.SetLoadResult(shapefile.Result{Message: "error loading shapefile: " + err.Error()})
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = r.MultipartForm.File["files"]
	}

	files, cleanup, err := s.spoolUploads(headers)
	defer cleanup()
	if err != nil {
		sess.SetLoadResult(shapefile.Result{Message: "error loading shapefile: " + err.Error()})
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	sess.SetLoadResult(s.loader.Load(r.Context(), files))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// spoolUploads writes each upload to a temp file so the loader gets the
// (name, temporary-storage-path) pairs it expects.
func (s *Server) spoolUploads(headers []*multipart.FileHeader) ([]shapefile.UploadFile, func(), error) {
	var files []shapefile.UploadFile
	cleanup := func() {
		for _, f := range files {
			_ = os.Remove(f.Path)
		}
	}
	for _, fh := range headers {
		src, err := fh.Open()
		if err != nil {
			return files, cleanup, err
		}
		tmp, err := os.CreateTemp(s.cfg.ScratchDir, "upload-*")
		if err != nil {
			src.Close()
			return files, cleanup, err
		}
		_, err = io.Copy(tmp, src)
		src.Close()
		closeErr := tmp.Close()
		if err == nil {
			err = closeErr
		}
		files = append(files, shapefile.UploadFile{
			Name: filepath.Base(fh.Filename),
			Path: tmp.Name(),
		})
		if err != nil {
			return files, cleanup, err
		}
	}
	return files, cleanup, nil
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	sess.Select(r.URL.Query().Get("attr"))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleMap always answers with markup: the rendered map on success, an
// error document otherwise. Render failures never disturb the table.
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)

	attr := r.URL.Query().Get("attr")
	if attr == "" {
		attr = sess.EffectiveAttribute()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	html, err := sess.RenderMap(attr)
	if err != nil {
		s.log.WarnContext(r.Context(), "map render failed", "attr", attr, "err", err)
		_, _ = io.WriteString(w, viewmap.ErrorDocument(err.Error()))
		return
	}
	_, _ = io.WriteString(w, html)
}
