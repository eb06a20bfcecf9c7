package export

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"careerhub-backend/errors"
	"careerhub-backend/logger"
	"careerhub-backend/models/documents"
	"careerhub-backend/services/events"
	"careerhub-backend/services/storage"
	"careerhub-backend/store"
)

// DownloadTTL is how long a presigned download link stays valid.
const DownloadTTL = 15 * time.Minute

// Request asks for one document in one format.
type Request struct {
	Kind   string `json:"kind"`
	ID     uint   `json:"id"`
	Format string `json:"format"`
}

func (r Request) Validate() error {
	switch r.Kind {
	case documents.KindResume, documents.KindCoverLetter:
	default:
		return errors.Invalidf("kind must be %q or %q", documents.KindResume, documents.KindCoverLetter)
	}
	if r.ID == 0 {
		return errors.Invalidf("id is required")
	}
	if !documents.IsKnownFormat(r.Format) {
		return errors.WithHint(errors.Invalidf("unknown export format %q", r.Format), "formats: txt, html, pdf, docx")
	}
	return nil
}

// Job is the message the export worker consumes.
type Job struct {
	ExportID string `json:"export_id"`
}

// File is a rendered document.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Service renders documents, stores the results and tracks export rows.
type Service struct {
	db           *gorm.DB
	resumes      *store.Table[documents.Resume, *documents.Resume]
	coverLetters *store.Table[documents.CoverLetter, *documents.CoverLetter]
	objects      storage.ObjectStore
	broker       events.Broker
	logger       *zap.SugaredLogger
	now          func() time.Time
}

func NewService(db *gorm.DB, objects storage.ObjectStore, broker events.Broker) *Service {
	return &Service{
		db:           db,
		resumes:      store.NewTable[documents.Resume](db, store.Spec{}),
		coverLetters: store.NewTable[documents.CoverLetter](db, store.Spec{}),
		objects:      objects,
		broker:       broker,
		logger:       logger.ComponentLogger("export"),
		now:          time.Now,
	}
}

// Load flattens the owner's resume or cover letter into a Document.
func (s *Service) Load(ctx context.Context, owner uint, kind string, id uint) (Document, error) {
	switch kind {
	case documents.KindResume:
		r, err := s.resumes.Get(ctx, owner, id)
		if err != nil {
			return Document{}, errors.Wrap(err, "load resume")
		}
		return FromResume(r), nil
	case documents.KindCoverLetter:
		c, err := s.coverLetters.Get(ctx, owner, id)
		if err != nil {
			return Document{}, errors.Wrap(err, "load cover letter")
		}
		return FromCoverLetter(c), nil
	default:
		return Document{}, errors.Invalidf("unknown document kind %q", kind)
	}
}

// Render produces the file for req without recording an export.
func (s *Service) Render(ctx context.Context, owner uint, req Request) (File, error) {
	if err := req.Validate(); err != nil {
		return File{}, err
	}
	doc, err := s.Load(ctx, owner, req.Kind, req.ID)
	if err != nil {
		return File{}, err
	}
	data, err := Render(doc, req.Format)
	if err != nil {
		return File{}, err
	}
	return File{
		Filename:    Filename(doc.Title, req.Format),
		ContentType: documents.ContentType(req.Format),
		Data:        data,
	}, nil
}

// Start records a pending export. With async set and a broker that reaches
// a worker the job is queued; otherwise it is processed before returning.
func (s *Service) Start(ctx context.Context, owner uint, req Request, async bool) (*documents.Export, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	// Fail fast on a missing source rather than in the worker.
	if _, err := s.Load(ctx, owner, req.Kind, req.ID); err != nil {
		return nil, err
	}

	exp := &documents.Export{
		UserID:   owner,
		Kind:     req.Kind,
		SourceID: req.ID,
		Format:   req.Format,
		Status:   documents.ExportPending,
	}
	if err := s.db.WithContext(ctx).Create(exp).Error; err != nil {
		return nil, errors.Wrap(err, "create export")
	}

	if async && s.broker.Queues() {
		if err := s.broker.Enqueue(ctx, events.ExportQueue, Job{ExportID: exp.ID}); err != nil {
			s.fail(ctx, exp, err)
			return nil, err
		}
		s.logger.Infow("export queued", logger.FieldExportID, exp.ID, logger.FieldUserID, owner)
		return exp, nil
	}
	done, err := s.Process(ctx, exp.ID)
	if err != nil {
		s.fail(ctx, exp, err)
		return exp, err
	}
	return done, nil
}

// Get returns one of the owner's exports.
func (s *Service) Get(ctx context.Context, owner uint, id string) (*documents.Export, error) {
	var exp documents.Export
	err := s.db.WithContext(ctx).Where("user_id = ?", owner).First(&exp, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFoundf("export %s", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get export %s", id)
	}
	return &exp, nil
}

func (s *Service) setStatus(ctx context.Context, exp *documents.Export, status string, updates map[string]interface{}) error {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = status
	if err := s.db.WithContext(ctx).Model(exp).Updates(updates).Error; err != nil {
		return errors.Wrapf(err, "mark export %s %s", exp.ID, status)
	}
	exp.Status = status
	return nil
}

// ObjectKey is where the rendered file of an export is stored.
func ObjectKey(exp *documents.Export) string {
	return fmt.Sprintf("exports/%d/%s.%s", exp.UserID, exp.ID, exp.Format)
}

// Process renders a pending export and uploads the result. A failed attempt
// leaves the row processing so the caller can retry; Fail records the final
// outcome.
func (s *Service) Process(ctx context.Context, id string) (*documents.Export, error) {
	var exp documents.Export
	if err := s.db.WithContext(ctx).First(&exp, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFoundf("export %s", id)
		}
		return nil, errors.Wrapf(err, "load export %s", id)
	}
	if exp.Status == documents.ExportCompleted {
		return &exp, nil
	}
	if err := s.setStatus(ctx, &exp, documents.ExportProcessing, nil); err != nil {
		return nil, err
	}

	file, err := s.Render(ctx, exp.UserID, Request{Kind: exp.Kind, ID: exp.SourceID, Format: exp.Format})
	if err == nil {
		err = s.objects.Put(ctx, ObjectKey(&exp), file.ContentType, file.Data)
	}
	if err != nil {
		return &exp, errors.Wrapf(err, "process export %s", exp.ID)
	}

	now := s.now().UTC()
	err = s.setStatus(ctx, &exp, documents.ExportCompleted, map[string]interface{}{
		"object_key":   ObjectKey(&exp),
		"filename":     file.Filename,
		"size_bytes":   int64(len(file.Data)),
		"error":        "",
		"completed_at": now,
	})
	if err != nil {
		return nil, err
	}
	exp.ObjectKey = ObjectKey(&exp)
	exp.Filename = file.Filename
	exp.SizeBytes = int64(len(file.Data))
	exp.Error = ""
	exp.CompletedAt = &now

	s.publish(ctx, events.ExportCompleted, &exp)
	s.logger.Infow("export completed", logger.FieldExportID, exp.ID, "format", exp.Format, "size_bytes", exp.SizeBytes)
	return &exp, nil
}

// Fail marks an export failed after its last attempt and publishes
// export.failed.
func (s *Service) Fail(ctx context.Context, id string, cause error) error {
	var exp documents.Export
	if err := s.db.WithContext(ctx).First(&exp, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFoundf("export %s", id)
		}
		return errors.Wrapf(err, "load export %s", id)
	}
	if exp.Status == documents.ExportCompleted {
		return nil
	}
	s.fail(ctx, &exp, cause)
	return nil
}

func (s *Service) fail(ctx context.Context, exp *documents.Export, cause error) {
	if err := s.setStatus(ctx, exp, documents.ExportFailed, map[string]interface{}{"error": cause.Error()}); err != nil {
		s.logger.Errorw("mark export failed", logger.FieldExportID, exp.ID, logger.FieldError, err)
	}
	exp.Error = cause.Error()
	s.publish(ctx, events.ExportFailed, exp)
	s.logger.Warnw("export failed", logger.FieldExportID, exp.ID, logger.FieldError, cause)
}

func (s *Service) publish(ctx context.Context, typ string, exp *documents.Export) {
	ev := events.Event{Type: typ, UserID: exp.UserID, Data: exp, Timestamp: s.now().UTC()}
	if err := s.broker.Publish(ctx, ev); err != nil {
		s.logger.Warnw("publish export event", "type", typ, logger.FieldError, err)
	}
}

// Open returns the stored file of a completed export.
func (s *Service) Open(ctx context.Context, owner uint, id string) (*documents.Export, []byte, error) {
	exp, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, nil, err
	}
	if exp.Status != documents.ExportCompleted {
		return exp, nil, errors.WithHint(errors.Wrapf(errors.ErrConflict, "export %s is %s", id, exp.Status),
			"poll the export until its status is completed")
	}
	data, err := s.objects.Get(ctx, exp.ObjectKey)
	if err != nil {
		return exp, nil, err
	}
	return exp, data, nil
}

// DownloadURL returns a presigned link when the store supports one, and the
// API download route otherwise.
func (s *Service) DownloadURL(ctx context.Context, exp *documents.Export) string {
	if exp.Status != documents.ExportCompleted {
		return ""
	}
	u, err := s.objects.URL(ctx, exp.ObjectKey, DownloadTTL)
	if err != nil {
		s.logger.Warnw("presign export", logger.FieldExportID, exp.ID, logger.FieldError, err)
	}
	if u != "" {
		return u
	}
	return "/api/v1/exports/" + exp.ID + "/download"
}
