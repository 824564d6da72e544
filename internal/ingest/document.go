// Package ingest loads knowledge artifacts, extracts their metadata and
// splits them into chunks ready for embedding.
package ingest

// Metadata keys used across loader, processor and vector store payloads.
const (
	MetaSource       = "source"
	MetaSourceURL    = "source_url"
	MetaEmailSubject = "email_subject"
	MetaEmailDate    = "email_date"
	MetaCaseType     = "case_type"
	MetaTags         = "tags"
	MetaDocumentType = "document_type"
)

// Document is a unit of ingested text with flat string metadata.
// Chunks produced by splitting are Documents too; they carry a copy of the
// parent's metadata, which is immutable once the chunk is persisted.
type Document struct {
	Content  string
	Metadata map[string]string
}

// CloneMetadata returns a copy of the document's metadata map.
func (d Document) CloneMetadata() map[string]string {
	out := make(map[string]string, len(d.Metadata))
	for k, v := range d.Metadata {
		out[k] = v
	}
	return out
}

// Source returns the document's origin path or URL, or "" if unset.
func (d Document) Source() string {
	return d.Metadata[MetaSource]
}
