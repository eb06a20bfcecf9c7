package documents

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	KindResume      = "resume"
	KindCoverLetter = "cover_letter"

	FormatText = "txt"
	FormatHTML = "html"
	FormatPDF  = "pdf"
	FormatDOCX = "docx"

	ExportPending    = "pending"
	ExportProcessing = "processing"
	ExportCompleted  = "completed"
	ExportFailed     = "failed"
)

// Export tracks one rendering of a resume or cover letter into a file.
type Export struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      uint       `gorm:"index;not null" json:"user_id"`
	Kind        string     `gorm:"not null" json:"kind"`
	SourceID    uint       `gorm:"not null" json:"source_id"`
	Format      string     `gorm:"not null" json:"format"`
	Status      string     `gorm:"not null;default:pending" json:"status"`
	ObjectKey   string     `json:"object_key,omitempty"`
	Filename    string     `json:"filename,omitempty"`
	SizeBytes   int64      `json:"size_bytes"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (Export) TableName() string { return "document_exports" }

func (e *Export) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// ContentType returns the MIME type of a rendered format.
func ContentType(format string) string {
	switch format {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// IsKnownFormat reports whether format can be rendered.
func IsKnownFormat(format string) bool {
	switch format {
	case FormatText, FormatHTML, FormatPDF, FormatDOCX:
		return true
	}
	return false
}
