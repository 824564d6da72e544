package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Loader reads knowledge artifacts and past-case exports from disk.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader. A nil logger selects slog.Default().
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// LoadKnowledge walks dir for markdown and PDF files. PDFs are reduced to
// extracted text; a sidecar "<name>.json" next to a PDF is merged into its
// metadata. Every document gets its path recorded as source.
func (l *Loader) LoadKnowledge(dir string) ([]Document, error) {
	var docs []Document

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".md":
			doc, err := loadTextFile(path)
			if err != nil {
				l.logger.Warn("skipping unreadable file", "path", path, "error", err)
				return nil
			}
			docs = append(docs, doc)
		case ".pdf":
			doc, err := l.loadPDF(path)
			if err != nil {
				l.logger.Warn("skipping unreadable PDF", "path", path, "error", err)
				return nil
			}
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk knowledge base %s: %w", dir, err)
	}

	if len(docs) == 0 {
		l.logger.Warn("no documents found in knowledge base", "dir", dir)
	}
	return docs, nil
}

// LoadEmailChains walks dir for exported email chain markdown files.
// A missing directory is not an error; it yields an empty slice.
func (l *Loader) LoadEmailChains(dir string) ([]Document, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		l.logger.Warn("email chains directory not found", "dir", dir)
		return nil, nil
	}

	var docs []Document
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.ToLower(filepath.Ext(path)) != ".md" {
			return nil
		}
		doc, err := loadTextFile(path)
		if err != nil {
			l.logger.Warn("skipping unreadable file", "path", path, "error", err)
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk email chains %s: %w", dir, err)
	}
	return docs, nil
}

func loadTextFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	return Document{
		Content:  string(data),
		Metadata: map[string]string{MetaSource: path},
	}, nil
}

func (l *Loader) loadPDF(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}

	text, err := ExtractPDFText(data)
	if err != nil {
		return Document{}, err
	}

	metadata := map[string]string{MetaSource: path}
	for k, v := range l.loadPDFSidecar(path) {
		metadata[k] = v
	}

	return Document{Content: text, Metadata: metadata}, nil
}

// loadPDFSidecar reads "<name>.json" next to a PDF, if present. Only scalar
// string values survive the merge; the metadata model is flat.
func (l *Loader) loadPDFSidecar(pdfPath string) map[string]string {
	jsonPath := strings.TrimSuffix(pdfPath, filepath.Ext(pdfPath)) + ".json"
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		l.logger.Warn("could not parse PDF sidecar metadata", "path", jsonPath, "error", err)
		return nil
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// ExtractPDFText extracts plain text from PDF bytes, pages concatenated with
// newlines.
func ExtractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	text, err := io.ReadAll(textReader)
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return string(text), nil
}
