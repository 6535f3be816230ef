package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"cocreview/domain/coc"
	"cocreview/domain/core"
	"cocreview/internal"
	"cocreview/internal/batch"
	apperrors "cocreview/internal/errors"
	"cocreview/internal/grid"
	"cocreview/internal/stats"
	"cocreview/models"
	"cocreview/ports"
)

const pdfMagic = "%PDF-"

// DocumentService handles upload, extraction and review of COC documents.
// Every call is scoped to the lab of the acting user.
type DocumentService struct {
	docs      ports.DocumentRepository
	blobs     ports.BlobStore
	extractor ports.Extractor
	exporter  ports.Exporter
	runner    *batch.Runner
	logger    *internal.Logger

	maxUploadBytes int64
}

// DocumentServiceConfig carries the service's dependencies.
type DocumentServiceConfig struct {
	Documents      ports.DocumentRepository
	Blobs          ports.BlobStore
	Extractor      ports.Extractor
	Exporter       ports.Exporter
	MaxConcurrent  int
	MaxUploadBytes int64
	Logger         *internal.Logger
}

// NewDocumentService creates a document service
func NewDocumentService(cfg DocumentServiceConfig) *DocumentService {
	logger := cfg.Logger
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DocumentService{
		docs:           cfg.Documents,
		blobs:          cfg.Blobs,
		extractor:      cfg.Extractor,
		exporter:       cfg.Exporter,
		runner:         batch.NewRunner(cfg.Extractor, cfg.MaxConcurrent, logger),
		logger:         logger,
		maxUploadBytes: cfg.MaxUploadBytes,
	}
}

// Upload is one file of a multi-file upload.
type Upload struct {
	Filename string
	Body     io.Reader
}

// FieldEdit addresses one entity of a categorized section. OriginalIndex
// is required; a nil index is rejected rather than read as entity 0.
type FieldEdit struct {
	SectionType   string `json:"sectionType"`
	OriginalIndex *int   `json:"originalIndex"`
	Value         string `json:"value"`
}

// NewField is a manually entered entity.
type NewField struct {
	SectionType string `json:"sectionType"`
	Type        string `json:"type"`
	Value       string `json:"value"`
}

// CellEdit addresses one cell of the sample grid.
type CellEdit struct {
	RowID  string `json:"rowId"`
	Column string `json:"column"`
	Value  string `json:"value"`
}

func documentKey(labID core.LabID, id core.DocumentID) string {
	return labID.String() + "/" + id.String() + ".pdf"
}

// Upload stores a PDF and runs extraction on it. An extraction failure is
// recorded on the document, which is returned without an error so the
// reviewer can retry with Reextract.
func (s *DocumentService) Upload(ctx context.Context, user *models.User, filename string, body io.Reader) (*models.Document, error) {
	doc, pdf, err := s.store(ctx, user, filename, body)
	if err != nil {
		return nil, err
	}
	s.extract(ctx, doc, pdf)
	return doc, nil
}

// UploadMany validates every file before anything is stored, so a bad file
// in the batch leaves no documents behind. The stored documents are then
// extracted concurrently. If storage fails part way, the documents already
// stored are marked failed and returned with the error.
func (s *DocumentService) UploadMany(ctx context.Context, user *models.User, uploads []Upload) ([]*models.Document, error) {
	if user == nil {
		return nil, core.ErrForbidden
	}
	files := make([]upload, 0, len(uploads))
	for _, u := range uploads {
		f, err := s.readUpload(u.Filename, u.Body)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}

	docs := make([]*models.Document, 0, len(files))
	for _, f := range files {
		doc, err := s.persist(ctx, user, f)
		if err != nil {
			for _, d := range docs {
				s.fail(ctx, d, fmt.Errorf("batch upload aborted: %w", err))
			}
			return docs, err
		}
		docs = append(docs, doc)
	}

	jobs := make([]batch.Job, 0, len(docs))
	for i, doc := range docs {
		s.markExtracting(ctx, doc)
		jobs = append(jobs, batch.Job{Key: doc.ID.String(), Filename: doc.Filename, PDF: files[i].pdf})
	}
	results, err := s.runner.Run(ctx, jobs)
	for i, res := range results {
		if res.Err != nil {
			s.fail(ctx, docs[i], res.Err)
			continue
		}
		s.finish(ctx, docs[i], res.Entities, res.Source)
	}
	return docs, err
}

// upload is a validated file waiting to be stored.
type upload struct {
	filename string
	pdf      []byte
}

func (s *DocumentService) store(ctx context.Context, user *models.User, filename string, body io.Reader) (*models.Document, []byte, error) {
	if user == nil {
		return nil, nil, core.ErrForbidden
	}
	f, err := s.readUpload(filename, body)
	if err != nil {
		return nil, nil, err
	}
	doc, err := s.persist(ctx, user, f)
	if err != nil {
		return nil, nil, err
	}
	return doc, f.pdf, nil
}

// readUpload reads one file and checks its name, size and PDF header.
func (s *DocumentService) readUpload(filename string, body io.Reader) (upload, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return upload{}, apperrors.InvalidInput("filename is required")
	}

	r := body
	if s.maxUploadBytes > 0 {
		r = io.LimitReader(body, s.maxUploadBytes+1)
	}
	pdf, err := io.ReadAll(r)
	if err != nil {
		return upload{}, apperrors.Wrap(err, "failed to read upload")
	}
	if s.maxUploadBytes > 0 && int64(len(pdf)) > s.maxUploadBytes {
		return upload{}, apperrors.InvalidInput(fmt.Sprintf("%s exceeds the %d byte upload limit", filename, s.maxUploadBytes))
	}
	if !bytes.HasPrefix(pdf, []byte(pdfMagic)) {
		return upload{}, apperrors.InvalidInput(fmt.Sprintf("%s is not a PDF", filename))
	}
	return upload{filename: filename, pdf: pdf}, nil
}

// persist saves the PDF and creates its document record.
func (s *DocumentService) persist(ctx context.Context, user *models.User, f upload) (*models.Document, error) {
	now := core.Now()
	doc := &models.Document{
		ID:         core.NewDocumentID(),
		LabID:      user.LabID,
		UploadedBy: user.ID,
		Filename:   f.filename,
		Status:     models.DocumentUploaded,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	doc.StoragePath = documentKey(doc.LabID, doc.ID)
	doc.SetReview(coc.NewDocument(nil))

	if _, err := s.blobs.Save(ctx, doc.StoragePath, bytes.NewReader(f.pdf)); err != nil {
		return nil, apperrors.Wrap(err, "failed to store PDF")
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		_ = s.blobs.Delete(ctx, doc.StoragePath)
		return nil, apperrors.Wrap(err, "failed to create document")
	}
	s.logger.Info("stored %s as document %s (%d bytes)", f.filename, doc.ID, len(f.pdf))
	return doc, nil
}

func (s *DocumentService) extract(ctx context.Context, doc *models.Document, pdf []byte) {
	s.markExtracting(ctx, doc)
	res, err := s.extractor.Extract(ctx, doc.Filename, pdf)
	if err != nil {
		s.fail(ctx, doc, err)
		return
	}
	s.finish(ctx, doc, res.Entities, res.Source)
}

func (s *DocumentService) markExtracting(ctx context.Context, doc *models.Document) {
	doc.Status = models.DocumentExtracting
	doc.ErrorMessage = ""
	if err := s.docs.UpdateStatus(ctx, doc.LabID, doc.ID, doc.Status, ""); err != nil {
		s.logger.Warn("failed to mark document %s extracting: %v", doc.ID, err)
	}
}

func (s *DocumentService) fail(ctx context.Context, doc *models.Document, cause error) {
	s.logger.Error("extraction failed for document %s: %v", doc.ID, cause)
	doc.Status = models.DocumentFailed
	doc.ErrorMessage = cause.Error()
	doc.UpdatedAt = core.Now()
	if err := s.docs.UpdateStatus(context.WithoutCancel(ctx), doc.LabID, doc.ID, doc.Status, doc.ErrorMessage); err != nil {
		s.logger.Error("failed to mark document %s failed: %v", doc.ID, err)
	}
}

func (s *DocumentService) finish(ctx context.Context, doc *models.Document, entities []coc.Entity, source string) {
	review := coc.NewDocument(entities)
	doc.SetReview(review)
	doc.Status = models.DocumentExtracted
	doc.ErrorMessage = ""
	doc.UpdatedAt = core.Now()
	if err := s.docs.Save(ctx, doc); err != nil {
		s.fail(ctx, doc, apperrors.Wrap(err, "failed to save extraction"))
		return
	}
	s.logger.Info("document %s extracted via %s: %d entities, %d sample rows",
		doc.ID, source, doc.EntityCount, doc.SampleCount)
}

// Get loads a document. The derived rows are rebuilt from the stored
// sections on every load.
func (s *DocumentService) Get(ctx context.Context, user *models.User, id core.DocumentID) (*models.Document, error) {
	if user == nil {
		return nil, core.ErrForbidden
	}
	doc, err := s.docs.Get(ctx, user.LabID, id)
	if err != nil {
		return nil, err
	}
	doc.SetReview(doc.Review())
	return doc, nil
}

// List returns the lab's documents, newest first, without their data.
func (s *DocumentService) List(ctx context.Context, user *models.User, filter ports.DocumentFilter) ([]*models.Document, error) {
	if user == nil {
		return nil, core.ErrForbidden
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown status %q", filter.Status))
	}
	return s.docs.List(ctx, user.LabID, filter)
}

// edit loads a document, applies fn to its review state and persists the
// whole document when fn succeeds.
func (s *DocumentService) edit(ctx context.Context, user *models.User, id core.DocumentID, fn func(*coc.Document) error) (*models.Document, error) {
	doc, err := s.Get(ctx, user, id)
	if err != nil {
		return nil, err
	}
	review := doc.Review()
	if err := fn(review); err != nil {
		return nil, err
	}
	doc.SetReview(review)
	doc.UpdatedAt = core.Now()
	if err := s.docs.Save(ctx, doc); err != nil {
		return nil, apperrors.Wrap(err, "failed to save document")
	}
	return doc, nil
}

func checkSection(section string) error {
	if (&coc.Sections{}).Get(section) == nil {
		return fmt.Errorf("%w: %q", core.ErrUnknownSection, section)
	}
	return nil
}

// UpdateField changes the value of one entity.
func (s *DocumentService) UpdateField(ctx context.Context, user *models.User, id core.DocumentID, e FieldEdit) (*models.Document, error) {
	if err := checkSection(e.SectionType); err != nil {
		return nil, err
	}
	if e.OriginalIndex == nil {
		return nil, core.NewValidationError("originalIndex", "is required")
	}
	return s.edit(ctx, user, id, func(review *coc.Document) error {
		row := coc.FieldRow{SectionType: e.SectionType, OriginalIndex: *e.OriginalIndex}
		return grid.NewEditor(review).ChangeField(row, e.Value)
	})
}

// RemoveField deletes one entity.
func (s *DocumentService) RemoveField(ctx context.Context, user *models.User, id core.DocumentID, sectionType string, originalIndex int) (*models.Document, error) {
	if err := checkSection(sectionType); err != nil {
		return nil, err
	}
	return s.edit(ctx, user, id, func(review *coc.Document) error {
		row := coc.FieldRow{SectionType: sectionType, OriginalIndex: originalIndex}
		return grid.NewEditor(review).RemoveField(row)
	})
}

// AddField appends a manually entered entity and returns its index.
func (s *DocumentService) AddField(ctx context.Context, user *models.User, id core.DocumentID, f NewField) (*models.Document, int, error) {
	if err := checkSection(f.SectionType); err != nil {
		return nil, coc.NoBackingEntity, err
	}
	if strings.TrimSpace(f.Type) == "" {
		return nil, coc.NoBackingEntity, core.NewValidationError("type", "is required")
	}
	idx := coc.NoBackingEntity
	doc, err := s.edit(ctx, user, id, func(review *coc.Document) error {
		i, ok := review.AddField(f.SectionType, f.Type, f.Value)
		if !ok {
			return core.ErrUnknownSection
		}
		idx = i
		return nil
	})
	if err != nil {
		return nil, coc.NoBackingEntity, err
	}
	return doc, idx, nil
}

var sampleColumns = map[string]bool{
	coc.ColumnCustomerSampleID: true,
	coc.ColumnMatrix:           true,
	coc.ColumnGrab:             true,
	coc.ColumnStartDate:        true,
	coc.ColumnStartTime:        true,
	coc.ColumnMethod:           true,
	coc.ColumnContainers:       true,
}

// UpdateSampleCell edits one sample grid cell. Cells backed by an entity
// are written through the grid editor; empty cells create a new entity.
func (s *DocumentService) UpdateSampleCell(ctx context.Context, user *models.User, id core.DocumentID, e CellEdit) (*models.Document, error) {
	if !sampleColumns[e.Column] {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownColumn, e.Column)
	}
	return s.edit(ctx, user, id, func(review *coc.Document) error {
		row, ok := review.SampleRow(e.RowID)
		if !ok {
			return fmt.Errorf("%w: %q", core.ErrUnknownRow, e.RowID)
		}
		if _, _, backed := row.CellSource(e.Column, e.Value); backed {
			return grid.NewEditor(review).ChangeSampleCell(row, e.Column, e.Value)
		}
		if !row.CellEditable(e.Column) {
			return fmt.Errorf("%w: set the matrix of sample %s before its grab", core.ErrNoBackingEntity, row.SampleNumber)
		}
		if !review.UpdateSampleCell(e.RowID, e.Column, e.Value) {
			return core.ErrNoBackingEntity
		}
		return nil
	})
}

// Save overwrites the whole document and marks it reviewed. When data is
// nil the stored review state is saved as is.
func (s *DocumentService) Save(ctx context.Context, user *models.User, id core.DocumentID, data *coc.DocumentData) (*models.Document, error) {
	doc, err := s.Get(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if data != nil {
		doc.SetReview(coc.LoadDocument(*data))
	}
	doc.Status = models.DocumentReviewed
	doc.ErrorMessage = ""
	doc.UpdatedAt = core.Now()
	if err := s.docs.Save(ctx, doc); err != nil {
		return nil, apperrors.Wrap(err, "failed to save document")
	}
	s.logger.Info("document %s reviewed by %s", doc.ID, user.Username)
	return doc, nil
}

// Reextract runs extraction again on the stored PDF, replacing any review
// edits.
func (s *DocumentService) Reextract(ctx context.Context, user *models.User, id core.DocumentID) (*models.Document, error) {
	doc, err := s.Get(ctx, user, id)
	if err != nil {
		return nil, err
	}
	pdf, err := s.readPDF(ctx, doc)
	if err != nil {
		return nil, err
	}
	s.extract(ctx, doc, pdf)
	return doc, nil
}

func (s *DocumentService) readPDF(ctx context.Context, doc *models.Document) ([]byte, error) {
	rc, err := s.blobs.Open(ctx, doc.StoragePath)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open PDF")
	}
	defer rc.Close()
	pdf, err := io.ReadAll(rc)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read PDF")
	}
	return pdf, nil
}

// OpenPDF returns the stored PDF of a document.
func (s *DocumentService) OpenPDF(ctx context.Context, user *models.User, id core.DocumentID) (*models.Document, io.ReadCloser, error) {
	if user == nil {
		return nil, nil, core.ErrForbidden
	}
	doc, err := s.docs.Get(ctx, user.LabID, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Open(ctx, doc.StoragePath)
	if err != nil {
		return nil, nil, err
	}
	return doc, rc, nil
}

// Delete removes a document and its PDF.
func (s *DocumentService) Delete(ctx context.Context, user *models.User, id core.DocumentID) error {
	if user == nil {
		return core.ErrForbidden
	}
	doc, err := s.docs.Get(ctx, user.LabID, id)
	if err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, user.LabID, id); err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, doc.StoragePath); err != nil {
		s.logger.Warn("document %s deleted but its PDF was not: %v", id, err)
	}
	return nil
}

// Export writes the document in the requested format and returns the
// content type and a suggested filename.
func (s *DocumentService) Export(ctx context.Context, user *models.User, id core.DocumentID, format string, w io.Writer) (contentType, filename string, err error) {
	f, err := s.exporter.ParseFormat(format)
	if err != nil {
		return "", "", apperrors.InvalidInput(err.Error())
	}
	doc, err := s.Get(ctx, user, id)
	if err != nil {
		return "", "", err
	}
	if err := s.exporter.Export(w, f, doc.Review()); err != nil {
		return "", "", apperrors.Wrap(err, "failed to export document")
	}
	base := strings.TrimSuffix(doc.Filename, ".pdf")
	return s.exporter.ContentType(f), base + "." + f, nil
}

// Summary reports extraction confidence for a document.
func (s *DocumentService) Summary(ctx context.Context, user *models.User, id core.DocumentID, threshold float64) (*stats.Summary, error) {
	doc, err := s.Get(ctx, user, id)
	if err != nil {
		return nil, err
	}
	sum, err := stats.Summarize(doc.Data.CategorizedSections, threshold)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to summarize document")
	}
	return &sum, nil
}
