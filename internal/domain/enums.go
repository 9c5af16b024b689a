package domain

// FileType represents the allowed source document types.
type FileType string

const (
	FileTypePDF FileType = "pdf"
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
)

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
	"image/jpeg":      FileTypeJPG,
	"image/png":       FileTypePNG,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
}

// DocumentStatus represents the lifecycle of an uploaded document.
type DocumentStatus string

const (
	DocumentStatusUploaded  DocumentStatus = "uploaded"
	DocumentStatusProcessed DocumentStatus = "processed"
)

// CanTransitionTo reports whether a document in status s may move to next.
// Re-entering the current status is allowed so that marking a processed
// document as processed again is a no-op.
func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	switch s {
	case DocumentStatusUploaded:
		return next == DocumentStatusUploaded || next == DocumentStatusProcessed
	case DocumentStatusProcessed:
		return next == DocumentStatusProcessed
	default:
		return false
	}
}

// ResavePolicy decides what saving line items for an already processed document does.
type ResavePolicy string

const (
	// ResaveReplace swaps the stored line items for the new set in the same transaction.
	ResaveReplace ResavePolicy = "replace"
	// ResaveReject refuses the save with ErrDocumentAlreadyProcessed.
	ResaveReject ResavePolicy = "reject"
)

// ValidResavePolicies is the set of accepted re-save policies.
var ValidResavePolicies = map[ResavePolicy]bool{
	ResaveReplace: true,
	ResaveReject:  true,
}

// ExportFormat selects the encoding of a line item export.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatXLSX ExportFormat = "xlsx"
)
