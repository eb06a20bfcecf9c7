// Package documents serves resume uploads and export downloads.
package documents

import (
	"io"
	"mime"
	"net/http"
	"strconv"

	"careerhub-backend/controllers/authentication"
	"careerhub-backend/controllers/respond"
	"careerhub-backend/errors"
	docmodels "careerhub-backend/models/documents"
	"careerhub-backend/services/export"
	"careerhub-backend/services/importer"
)

type Handler struct {
	exports *export.Service
	imports *importer.Service
}

func NewHandler(exports *export.Service, imports *importer.Service) *Handler {
	return &Handler{exports: exports, imports: imports}
}

func (h *Handler) Mount(mux *http.ServeMux, protect func(http.HandlerFunc) http.Handler) {
	mux.Handle("POST /api/v1/resumes/import", protect(h.Import))
	mux.Handle("POST /api/v1/exports", protect(h.StartExport))
	mux.Handle("GET /api/v1/exports/{id}", protect(h.GetExport))
	mux.Handle("GET /api/v1/exports/{id}/download", protect(h.Download))
}

// Import accepts a multipart upload in the "file" field and creates a draft
// resume from its text.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, importer.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(importer.MaxUploadBytes); err != nil {
		respond.Error(w, r, errors.WithHint(errors.Invalidf("invalid upload: %v", err),
			"send multipart/form-data with the resume in the \"file\" field"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, r, errors.Invalidf("file field is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, importer.MaxUploadBytes+1))
	if err != nil {
		respond.Error(w, r, errors.Wrap(err, "read upload"))
		return
	}
	res, err := h.imports.Upload(r.Context(), authentication.UserID(r.Context()),
		header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, res)
}

type exportRequest struct {
	export.Request
	Async bool `json:"async"`
}

// ExportStatus is an export row with the link to fetch its file.
type ExportStatus struct {
	*docmodels.Export
	DownloadURL string `json:"download_url,omitempty"`
}

// StartExport records an export and processes or queues it.
func (h *Handler) StartExport(w http.ResponseWriter, r *http.Request) {
	var in exportRequest
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, err)
		return
	}
	exp, err := h.exports.Start(r.Context(), authentication.UserID(r.Context()), in.Request, in.Async)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	status := http.StatusCreated
	if exp.Status != docmodels.ExportCompleted {
		status = http.StatusAccepted
	}
	respond.JSON(w, status, ExportStatus{Export: exp, DownloadURL: h.exports.DownloadURL(r.Context(), exp)})
}

func (h *Handler) GetExport(w http.ResponseWriter, r *http.Request) {
	exp, err := h.exports.Get(r.Context(), authentication.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, ExportStatus{Export: exp, DownloadURL: h.exports.DownloadURL(r.Context(), exp)})
}

// Download streams the file of a completed export.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	exp, data, err := h.exports.Open(r.Context(), authentication.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	w.Header().Set("Content-Type", docmodels.ContentType(exp.Format))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": exp.Filename}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
