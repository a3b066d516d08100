package ingest

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// TextUnit is a normalized piece of document text with provenance.
// One per page for page-structured formats, one per flat text file.
type TextUnit struct {
	Content    string
	Source     string
	Page       int // 0 for flat text documents
	TotalPages int
}

// ErrorKind classifies ingestion failures.
type ErrorKind string

const (
	DecodeFailure     ErrorKind = "decode_failure"
	UnsupportedFormat ErrorKind = "unsupported_format"
	ExtractionFailure ErrorKind = "extraction_failure"
)

// Error is a per-document ingestion failure. It never aborts ingestion of
// other documents.
type Error struct {
	Kind   ErrorKind
	Source string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ingest %s: %s: %v", e.Source, e.Kind, e.Err)
	}
	return fmt.Sprintf("ingest %s: %s", e.Source, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Ingestor converts raw document bytes into TextUnits.
type Ingestor struct {
	logger *log.Logger
	pdf    *pdfExtractor
}

func New(logger *log.Logger) *Ingestor {
	if logger == nil {
		logger = log.New(log.Writer(), "[INGEST] ", log.LstdFlags)
	}
	return &Ingestor{logger: logger, pdf: newPDFExtractor(execRunner{})}
}

// Ingest converts one document into text units. Unsupported extensions yield
// zero units and a typed error the caller may treat as a warning.
func (in *Ingestor) Ingest(name string, data []byte) ([]TextUnit, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return in.ingestPDF(name, data)
	case ".txt", ".csv", ".md":
		return in.ingestText(name, data)
	default:
		in.logger.Printf("skipping %s: unsupported file type", name)
		return nil, &Error{Kind: UnsupportedFormat, Source: name}
	}
}

func (in *Ingestor) ingestText(name string, data []byte) ([]TextUnit, error) {
	if !utf8.Valid(data) {
		return nil, &Error{Kind: DecodeFailure, Source: name, Err: fmt.Errorf("invalid UTF-8")}
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		in.logger.Printf("skipping %s: empty document", name)
		return nil, nil
	}
	return []TextUnit{{Content: content, Source: name}}, nil
}

func (in *Ingestor) ingestPDF(name string, data []byte) ([]TextUnit, error) {
	pages, err := in.pdf.Pages(data)
	if err != nil {
		return nil, &Error{Kind: ExtractionFailure, Source: name, Err: err}
	}
	total := len(pages)
	units := make([]TextUnit, 0, total)
	for i, page := range pages {
		if strings.TrimSpace(page) == "" {
			in.logger.Printf("empty text on page %d of %s", i+1, name)
			continue
		}
		units = append(units, TextUnit{
			Content:    page,
			Source:     name,
			Page:       i + 1,
			TotalPages: total,
		})
	}
	in.logger.Printf("processed %s: %d of %d pages had text", name, len(units), total)
	return units, nil
}
