package ingest

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
)

type fakeRunner struct {
	output []byte
	err    error
	called bool
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.called = true
	if name != "pdftotext" {
		return nil, errors.New("unexpected command " + name)
	}
	return f.output, f.err
}

func newTestIngestor(runner commandRunner) *Ingestor {
	logger := log.New(io.Discard, "", 0)
	return &Ingestor{logger: logger, pdf: newPDFExtractor(runner)}
}

func TestIngestTextFile(t *testing.T) {
	t.Parallel()
	in := newTestIngestor(&fakeRunner{})
	units, err := in.Ingest("notes.txt", []byte("  hello world  \n"))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("Ingest() got %d units, want 1", len(units))
	}
	u := units[0]
	if u.Content != "hello world" || u.Source != "notes.txt" || u.Page != 0 {
		t.Fatalf("Ingest() unit = %+v", u)
	}
}

func TestIngestMarkdownAndCSV(t *testing.T) {
	t.Parallel()
	in := newTestIngestor(&fakeRunner{})
	for _, name := range []string{"readme.md", "data.csv"} {
		units, err := in.Ingest(name, []byte("content"))
		if err != nil || len(units) != 1 {
			t.Fatalf("Ingest(%s) units=%d err=%v", name, len(units), err)
		}
	}
}

func TestIngestInvalidUTF8(t *testing.T) {
	t.Parallel()
	in := newTestIngestor(&fakeRunner{})
	_, err := in.Ingest("bad.txt", []byte{0xff, 0xfe, 0xfd})
	var ingErr *Error
	if !errors.As(err, &ingErr) || ingErr.Kind != DecodeFailure {
		t.Fatalf("Ingest() error = %v, want DecodeFailure", err)
	}
	if ingErr.Source != "bad.txt" {
		t.Fatalf("error source = %q", ingErr.Source)
	}
}

func TestIngestEmptyTextFile(t *testing.T) {
	t.Parallel()
	in := newTestIngestor(&fakeRunner{})
	units, err := in.Ingest("empty.txt", []byte("   \n  "))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if len(units) != 0 {
		t.Fatalf("Ingest() got %d units for an empty file", len(units))
	}
}

func TestIngestUnsupportedFormat(t *testing.T) {
	t.Parallel()
	in := newTestIngestor(&fakeRunner{})
	_, err := in.Ingest("image.png", []byte{1, 2, 3})
	var ingErr *Error
	if !errors.As(err, &ingErr) || ingErr.Kind != UnsupportedFormat {
		t.Fatalf("Ingest() error = %v, want UnsupportedFormat", err)
	}
}

func TestIngestPDFPerPageUnits(t *testing.T) {
	t.Parallel()
	runner := &fakeRunner{output: []byte("page one text\fpage two text\f")}
	in := newTestIngestor(runner)
	units, err := in.Ingest("doc.pdf", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if !runner.called {
		t.Fatalf("pdftotext was never invoked")
	}
	if len(units) != 2 {
		t.Fatalf("Ingest() got %d units, want 2", len(units))
	}
	for i, u := range units {
		if u.Page != i+1 || u.TotalPages != 2 || u.Source != "doc.pdf" {
			t.Fatalf("unit %d metadata = %+v", i, u)
		}
	}
}

func TestIngestPDFSkipsBlankPages(t *testing.T) {
	t.Parallel()
	runner := &fakeRunner{output: []byte("real content\f   \fmore content\f")}
	in := newTestIngestor(runner)
	units, err := in.Ingest("doc.pdf", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("Ingest() got %d units, want 2 (blank page dropped)", len(units))
	}
	if units[0].Page != 1 || units[1].Page != 3 {
		t.Fatalf("page numbers = %d, %d; original numbering must survive", units[0].Page, units[1].Page)
	}
	if units[0].TotalPages != 3 {
		t.Fatalf("TotalPages = %d, want 3", units[0].TotalPages)
	}
}

func TestIngestPDFExtractionFailure(t *testing.T) {
	t.Parallel()
	runner := &fakeRunner{err: errors.New("exit status 1")}
	in := newTestIngestor(runner)
	_, err := in.Ingest("doc.pdf", []byte("%PDF-1.4"))
	var ingErr *Error
	if !errors.As(err, &ingErr) || ingErr.Kind != ExtractionFailure {
		t.Fatalf("Ingest() error = %v, want ExtractionFailure", err)
	}
}
