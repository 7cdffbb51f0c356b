// Package content renders the Markdown marketing pages.
package content

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

//go:embed pages/*.md
var builtin embed.FS

// ErrPageNotFound is returned for slugs with no Markdown file.
var ErrPageNotFound = errors.New("page not found")

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Page is a rendered Markdown page.
type Page struct {
	Slug  string
	Title string
	HTML  template.HTML
}

// Library renders and caches pages from a directory of <slug>.md files.
type Library struct {
	files fs.FS
	md    goldmark.Markdown

	mu    sync.RWMutex
	cache map[string]Page
}

// NewLibrary reads pages from files. Raw HTML in the Markdown is not passed through.
func NewLibrary(files fs.FS) *Library {
	return &Library{
		files: files,
		md:    goldmark.New(goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps())),
		cache: map[string]Page{},
	}
}

// Open returns a Library over dir, or over the built-in pages when dir does not exist.
func Open(dir string) *Library {
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return NewLibrary(os.DirFS(dir))
	}
	slog.Info("content_event", "event", "builtin_pages", "dir", dir)
	sub, _ := fs.Sub(builtin, "pages")
	return NewLibrary(sub)
}

// Render returns the page for slug.
// PRE: none; slugs outside [a-z0-9-] are rejected as not found
// POST: the title is the first level-one heading, or the slug
func (l *Library) Render(slug string) (Page, error) {
	if !slugPattern.MatchString(slug) {
		return Page{}, ErrPageNotFound
	}
	l.mu.RLock()
	p, ok := l.cache[slug]
	l.mu.RUnlock()
	if ok {
		return p, nil
	}

	src, err := fs.ReadFile(l.files, slug+".md")
	if errors.Is(err, fs.ErrNotExist) {
		return Page{}, ErrPageNotFound
	}
	if err != nil {
		return Page{}, fmt.Errorf("read page %s: %w", slug, err)
	}
	var buf bytes.Buffer
	if err := l.md.Convert(src, &buf); err != nil {
		return Page{}, fmt.Errorf("render page %s: %w", slug, err)
	}
	p = Page{Slug: slug, Title: titleOf(src, slug), HTML: template.HTML(buf.String())}

	l.mu.Lock()
	l.cache[slug] = p
	l.mu.Unlock()
	return p, nil
}

func titleOf(src []byte, fallback string) string {
	for _, line := range strings.Split(string(src), "\n") {
		if title, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return strings.TrimSpace(title)
		}
	}
	return fallback
}
