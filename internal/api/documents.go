package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cocreview/app"
	"cocreview/domain/coc"
	"cocreview/domain/core"
	apperrors "cocreview/internal/errors"
	"cocreview/internal/grid"
	"cocreview/models"
	"cocreview/ports"
)

const uploadField = "file"

func documentID(r *http.Request) (core.DocumentID, error) {
	return core.ParseDocumentID(chi.URLParam(r, "id"))
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, apperrors.InvalidInput(fmt.Sprintf("%s must be a non-negative integer", key))
	}
	return n, nil
}

func (h *Handler) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	docs, err := h.docs.List(r.Context(), UserFrom(r.Context()), ports.DocumentFilter{
		Status: models.DocumentStatus(r.URL.Query().Get("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// handleUpload accepts one or more PDFs in the "file" multipart field.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes*4+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.writeError(w, r, apperrors.InvalidInput("invalid multipart upload: "+err.Error()))
		return
	}
	headers := r.MultipartForm.File[uploadField]
	if len(headers) == 0 {
		h.writeError(w, r, apperrors.InvalidInput(`missing "file" part`))
		return
	}

	uploads := make([]app.Upload, 0, len(headers))
	for _, fh := range headers {
		body, err := readPart(fh)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		uploads = append(uploads, app.Upload{Filename: fh.Filename, Body: body})
	}

	user := UserFrom(r.Context())
	if len(uploads) == 1 {
		doc, err := h.docs.Upload(r.Context(), user, uploads[0].Filename, uploads[0].Body)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, doc)
		return
	}
	docs, err := h.docs.UploadMany(r.Context(), user, uploads)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, docs)
}

func readPart(fh *multipart.FileHeader) (io.Reader, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, apperrors.InvalidInput("unreadable upload " + fh.Filename)
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, apperrors.InvalidInput("unreadable upload " + fh.Filename)
	}
	return bytes.NewReader(b), nil
}

func (h *Handler) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := documentID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	doc, err := h.docs.Get(r.Context(), UserFrom(r.Context()), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleSaveDocument overwrites the document. An empty body saves the
// stored review state.
func (h *Handler) handleSaveDocument(w http.ResponseWriter, r *http.Request) {
	id, err := documentID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var data *coc.DocumentData
	if r.ContentLength != 0 {
		data = &coc.DocumentData{}
		if err := decodeJSON(r, data); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	doc, err := h.docs.Save(r.Context(), UserFrom(r.Context()), id, data)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := documentID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.docs.Delete(r.Context(), UserFrom(r.Context()), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	id, err := documentID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	doc, rc, err := h.docs.OpenPDF(r.Context(), UserFrom(r.Context()), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", doc.Filename))
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("streaming PDF of %s: %v", id, err)
	}
}

type gridResponse struct {
	grid.Grid
	FieldRows []coc.FieldRow `json:"fieldRows"`
}

func (h *Handler) handleGrid(w http.ResponseWriter, r *http.Request) {
	id, err := documentID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	doc, err := h.docs.Get(r.Context(), UserFrom(r.Context()), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sections := doc.Data.CategorizedSections
	writeJSON(w, http.StatusOK, gridResponse{
		Grid:      grid.SampleGrid(sections.CollectedSampleDataInfo),
		FieldRows: grid.FieldRows(sections),
	})
}

func (h *Handler) handleTable(w http.ResponseWriter, r *http.Request) {
	id, err := documentID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	doc, err := h.docs.Get(r.Context(), UserFrom(r.Context()), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, grid.SampleTable(doc.Data.CategorizedSections.CollectedSampleDataInfo))
}

func (h *Handler) handleUpdateField(w http.ResponseWriter, r *http.Request) {
	id, err := documentID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req app.FieldEdit
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	doc, err := h.docs.UpdateField(r.Context(), UserFrom(r.Context()), id, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

type addFieldResponse struct {
	Document      *models.Document `json:"document"`
	OriginalIndex int              `json:"originalIndex"`
}

func (h *Handler) handleAddField(w http.ResponseWriter, r *http.Request) {
	id, err := documentID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req app.NewField
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	doc, idx, err := h.docs.AddField(r.Context(), UserFrom(r.Context()), id, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, addFieldResponse{Document: doc, OriginalIndex: idx})
}

type removeFieldRequest struct {
	SectionType   string `json:"sectionType"`
	OriginalIndex *int   `json:"originalIndex"`
}

func (h *Handler) handleRemoveField(w http.ResponseWriter, r *http.Request) {
	id, err := documentID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req removeFieldRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.OriginalIndex == nil {
		h.writeError(w, r, apperrors.InvalidInput("originalIndex is required"))
		return
	}
	doc, err := h.docs.RemoveField(r.Context(), UserFrom(r.Context()), id, req.SectionType, *req.OriginalIndex)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

type cellRequest struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

func (h *Handler) handleUpdateSampleCell(w http.ResponseWriter, r *http.Request) {
	id, err := documentID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req cellRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	doc, err := h.docs.UpdateSampleCell(r.Context(), UserFrom(r.Context()), id, app.CellEdit{
		RowID:  chi.URLParam(r, "rowID"),
		Column: req.Column,
		Value:  req.Value,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleReextract(w http.ResponseWriter, r *http.Request) {
	id, err := documentID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	doc, err := h.docs.Reextract(r.Context(), UserFrom(r.Context()), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	id, err := documentID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	contentType, filename, err := h.docs.Export(r.Context(), UserFrom(r.Context()), id, r.URL.Query().Get("format"), &buf)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	id, err := documentID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	threshold := 0.0
	if v := r.URL.Query().Get("threshold"); v != "" {
		threshold, err = strconv.ParseFloat(v, 64)
		if err != nil || threshold < 0 || threshold > 1 {
			h.writeError(w, r, apperrors.InvalidInput("threshold must be between 0 and 1"))
			return
		}
	}
	sum, err := h.docs.Summary(r.Context(), UserFrom(r.Context()), id, threshold)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
