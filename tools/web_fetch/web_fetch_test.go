package web_fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func servePage(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func articleHTML(paragraph string) string {
	return `<!DOCTYPE html><html><head><title>Test Article</title></head><body>
<nav>Home | About | Contact</nav>
<article><h1>Test Article</h1>
<p>` + paragraph + `</p>
<p>` + paragraph + `</p>
</article>
<footer>Copyright</footer>
</body></html>`
}

func TestReadableTextExtractsArticle(t *testing.T) {
	t.Parallel()
	srv := servePage(t, articleHTML(strings.Repeat("Meaningful article text goes here. ", 10)))

	f := NewFetcher(5*time.Second, 10000)
	text, err := f.ReadableText(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("ReadableText() error = %v", err)
	}
	if !strings.Contains(text, "Meaningful article text") {
		t.Fatalf("ReadableText() = %q, article body missing", text)
	}
}

func TestReadableTextTruncates(t *testing.T) {
	t.Parallel()
	srv := servePage(t, articleHTML(strings.Repeat("Long article content. ", 200)))

	f := NewFetcher(5*time.Second, 100)
	text, err := f.ReadableText(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("ReadableText() error = %v", err)
	}
	if n := len([]rune(text)); n > 101 { // limit plus ellipsis
		t.Fatalf("ReadableText() returned %d runes, want <= 101", n)
	}
	if !strings.HasSuffix(text, "…") {
		t.Fatalf("truncated text lacks ellipsis: %q", text)
	}
}

func TestReadableTextNon200(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, 1000)
	if _, err := f.ReadableText(context.Background(), srv.URL); err == nil {
		t.Fatalf("ReadableText() error = nil, want non-nil on 404")
	}
}
