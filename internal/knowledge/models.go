package knowledge

import "time"

// DocumentStatus tracks ingestion progress.
type DocumentStatus string

const (
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// Document is an uploaded knowledge-base source. Content keeps the full text
// for reference; retrieval works off the embedded chunks.
type Document struct {
	ID          string         `json:"id"`
	WorkspaceID string         `json:"workspace_id"`
	Title       string         `json:"title"`
	Category    string         `json:"category"`
	FileType    string         `json:"file_type"`
	Content     string         `json:"-"`
	Status      DocumentStatus `json:"status"`
	CreatedBy   string         `json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Chunk is one embedded slice of a document.
type Chunk struct {
	ID         string
	DocumentID string
	Content    string
	Embedding  []float64
}

// Match is a retrieval hit ordered by similarity.
type Match struct {
	DocumentID string  `json:"document_id"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}
