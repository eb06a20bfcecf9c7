package importer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"careerhub-backend/errors"
	"careerhub-backend/models/documents"
	"careerhub-backend/services/storage"
	"careerhub-backend/store"
)

// Result is what an import hands back to the client.
type Result struct {
	ObjectKey string            `json:"object_key"`
	MIME      string            `json:"mime"`
	Text      string            `json:"text"`
	Resume    *documents.Resume `json:"resume,omitempty"`
}

type Service struct {
	objects storage.ObjectStore
	resumes *store.Table[documents.Resume, *documents.Resume]
}

func NewService(db *gorm.DB, objects storage.ObjectStore) *Service {
	return &Service{objects: objects, resumes: store.NewTable[documents.Resume](db, store.Spec{})}
}

// UploadPrefix is the key prefix of every object owner uploaded.
func UploadPrefix(owner uint) string {
	return fmt.Sprintf("uploads/%d/", owner)
}

// Upload stores a resume file, extracts its text and saves it as a draft
// resume titled after the file.
func (s *Service) Upload(ctx context.Context, owner uint, filename, declared string, data []byte) (*Result, error) {
	mt := Detect(filename, declared)
	if !Supported(mt) {
		return nil, errors.WithHint(errors.Invalidf("unsupported file %q", filename), "upload a .txt, .pdf or .docx file")
	}
	if len(data) > MaxUploadBytes {
		return nil, errors.Invalidf("file is larger than %d MB", MaxUploadBytes>>20)
	}
	text, err := ExtractText(mt, data)
	if err != nil {
		return nil, err
	}

	key := UploadPrefix(owner) + uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	if err := s.objects.Put(ctx, key, mt, data); err != nil {
		return nil, errors.Wrap(err, "store upload")
	}

	title := strings.TrimSpace(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	if title == "" || title == "." {
		title = "Imported resume"
	}
	resume := &documents.Resume{Title: title, SourceText: text}
	if err := s.resumes.Create(ctx, owner, resume); err != nil {
		return nil, err
	}
	return &Result{ObjectKey: key, MIME: mt, Text: text, Resume: resume}, nil
}

// FromObject extracts text from a file owner uploaded earlier.
func (s *Service) FromObject(ctx context.Context, owner uint, key, mimeType string) (*Result, error) {
	if !strings.HasPrefix(key, UploadPrefix(owner)) || strings.Contains(key, "..") {
		return nil, errors.Wrapf(errors.ErrForbidden, "object %q does not belong to the caller", key)
	}
	if mimeType == "" {
		mimeType = Detect(key, "")
	}
	data, err := s.objects.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	text, err := ExtractText(mimeType, data)
	if err != nil {
		return nil, err
	}
	return &Result{ObjectKey: key, MIME: mimeType, Text: text}, nil
}
