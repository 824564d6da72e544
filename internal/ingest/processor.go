package ingest

import (
	"math/rand"
	"strings"
)

// Kind selects the metadata-extraction step applied before splitting.
type Kind int

const (
	// Knowledge documents are scraped pages and PDFs; they may start with
	// a "<!-- Source URL: ... -->" marker line.
	Knowledge Kind = iota

	// EmailChain documents are exported past cases with a leading
	// "Key: value" header block terminated by a "---" line.
	EmailChain
)

// Processor normalizes document metadata and splits documents into chunks.
type Processor struct {
	kind     Kind
	splitter *Splitter
}

// NewProcessor creates a processor for the given document kind using the
// default chunk size and overlap.
func NewProcessor(kind Kind) *Processor {
	return &Processor{kind: kind, splitter: NewSplitter(0, 0)}
}

// NewProcessorWithSplitter creates a processor with an explicit splitter.
func NewProcessorWithSplitter(kind Kind, splitter *Splitter) *Processor {
	return &Processor{kind: kind, splitter: splitter}
}

// Process extracts metadata from each document, splits the normalized
// content into overlapping chunks, and returns all chunks in randomized
// order. The shuffle avoids retrieval result ordering being biased by
// file-system traversal order when similarity scores tie. A malformed
// header never fails the batch; it just extracts fewer fields.
func (p *Processor) Process(docs []Document) []Document {
	if len(docs) == 0 {
		return nil
	}

	var chunks []Document
	for _, doc := range docs {
		normalized := p.extractMetadata(doc)
		for _, text := range p.splitter.Split(normalized.Content) {
			chunks = append(chunks, Document{
				Content:  text,
				Metadata: normalized.CloneMetadata(),
			})
		}
	}

	rand.Shuffle(len(chunks), func(i, j int) {
		chunks[i], chunks[j] = chunks[j], chunks[i]
	})

	return chunks
}

func (p *Processor) extractMetadata(doc Document) Document {
	switch p.kind {
	case EmailChain:
		return ExtractEmailChainMetadata(doc)
	default:
		return ExtractKnowledgeMetadata(doc)
	}
}

const sourceURLMarker = "<!-- Source URL:"

// ExtractKnowledgeMetadata pulls the source URL out of a leading
// "<!-- Source URL: ... -->" marker line and strips it from the content.
// Documents without the marker pass through unchanged, with source_url left
// absent unless the loader already set a source.
func ExtractKnowledgeMetadata(doc Document) Document {
	metadata := doc.CloneMetadata()
	content := doc.Content

	if strings.HasPrefix(content, sourceURLMarker) {
		lines := strings.Split(content, "\n")
		first := lines[0]
		start := strings.Index(first, "Source URL:") + len("Source URL:")
		end := strings.Index(first, "-->")
		if end > start {
			metadata[MetaSourceURL] = strings.TrimSpace(first[start:end])
			if len(lines) > 2 {
				content = strings.Join(lines[2:], "\n")
			} else {
				content = ""
			}
		}
	}

	return Document{Content: content, Metadata: metadata}
}

// ExtractEmailChainMetadata scans the leading lines of an exported email
// chain for Subject/Date/Case Type/Tags fields, up to a "---" separator,
// and strips the header block from the content. The document_type tag is
// always set so past-case search results are identifiable.
func ExtractEmailChainMetadata(doc Document) Document {
	metadata := doc.CloneMetadata()
	content := doc.Content
	lines := strings.Split(content, "\n")

	contentStart := 0
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "Subject:"):
			metadata[MetaEmailSubject] = strings.TrimSpace(strings.TrimPrefix(line, "Subject:"))
		case strings.HasPrefix(line, "Date:"):
			metadata[MetaEmailDate] = strings.TrimSpace(strings.TrimPrefix(line, "Date:"))
		case strings.HasPrefix(line, "Case Type:"):
			metadata[MetaCaseType] = strings.TrimSpace(strings.TrimPrefix(line, "Case Type:"))
		case strings.HasPrefix(line, "Tags:"):
			metadata[MetaTags] = strings.TrimSpace(strings.TrimPrefix(line, "Tags:"))
		case strings.HasPrefix(line, "---") && i > 0:
			contentStart = i + 1
		}
		if contentStart > 0 {
			break
		}
	}

	if contentStart > 0 {
		content = strings.Join(lines[contentStart:], "\n")
	}

	metadata[MetaDocumentType] = "email_chain"
	return Document{Content: content, Metadata: metadata}
}
