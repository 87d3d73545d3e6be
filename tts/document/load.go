package document

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/taylorskalyo/goreader/epub"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// DefaultMaxLength caps the flat text of loaded documents.
const DefaultMaxLength = 10000

var (
	lineBreaks = regexp.MustCompile(`(\r\n|\r|\n)+`)
	spaces     = regexp.MustCompile(`\s+`)
)

// Normalize splits text into paragraphs on runs of line breaks, dropping blank
// lines, and applies NFC normalization.
func Normalize(s string) []string {
	s = norm.NFC.String(s)
	var out []string
	for _, line := range lineBreaks.Split(s, -1) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// Truncate cuts paragraphs so their combined length is at most limit runes.
// A non-positive limit disables truncation.
func Truncate(paragraphs []string, limit int) []string {
	if limit <= 0 {
		return paragraphs
	}
	out := make([]string, 0, len(paragraphs))
	remaining := limit
	for _, p := range paragraphs {
		if remaining == 0 {
			break
		}
		r := []rune(p)
		if len(r) > remaining {
			r = r[:remaining]
		}
		out = append(out, string(r))
		remaining -= len(r)
	}
	return out
}

// FromText builds a document from pasted or typed text.
func FromText(s string, limit int) *Document {
	return New(Truncate(Normalize(s), limit))
}

// Format extracts paragraphs from one kind of file.
type Format interface {
	Name() string
	Extensions() []string
	Extract(path string) ([]string, error)
}

var registry []Format

// Register adds a format to the loader registry.
func Register(f Format) {
	registry = append(registry, f)
}

func init() {
	Register(markdownFormat{})
	Register(epubFormat{})
}

// Load reads the file at path with the format matching its extension, or as
// plain text otherwise.
func Load(path string, limit int) (*Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range registry {
		for _, e := range f.Extensions() {
			if e != ext {
				continue
			}
			paragraphs, err := f.Extract(path)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", f.Name(), err)
			}
			return New(Truncate(paragraphs, limit)), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromText(string(data), limit), nil
}

// FromReader reads plain text from r.
func FromReader(r io.Reader, limit int) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return FromText(string(data), limit), nil
}

// FromClipboard reads plain text from the system clipboard.
func FromClipboard(limit int) (*Document, error) {
	s, err := clipboard.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("unable to read clipboard: %w", err)
	}
	return FromText(s, limit), nil
}

type markdownFormat struct{}

func (markdownFormat) Name() string         { return "Markdown" }
func (markdownFormat) Extensions() []string { return []string{".md", ".markdown"} }

func (markdownFormat) Extract(path string) ([]string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return MarkdownParagraphs(src), nil
}

// MarkdownParagraphs returns the prose of headings, paragraphs and list items
// with markup removed. Code blocks are skipped.
func MarkdownParagraphs(src []byte) []string {
	root := goldmark.New().Parser().Parse(text.NewReader(src))

	var out []string
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindFencedCodeBlock, ast.KindCodeBlock, ast.KindHTMLBlock:
			return ast.WalkSkipChildren, nil
		case ast.KindHeading, ast.KindParagraph, ast.KindTextBlock:
			var b bytes.Buffer
			inlineText(&b, n, src)
			out = append(out, Normalize(b.String())...)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return out
}

func inlineText(b *bytes.Buffer, n ast.Node, src []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(v.Value)
		case *ast.AutoLink:
			b.Write(v.Label(src))
		case *ast.RawHTML:
		default:
			inlineText(b, c, src)
		}
	}
}

type epubFormat struct{}

func (epubFormat) Name() string         { return "EPUB" }
func (epubFormat) Extensions() []string { return []string{".epub"} }

func (epubFormat) Extract(path string) ([]string, error) {
	rc, err := epub.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open epub: %w", err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return nil, fmt.Errorf("no rootfiles found in epub")
	}

	var out []string
	for _, ref := range rc.Rootfiles[0].Spine.Itemrefs {
		if ref.Item == nil {
			continue
		}
		r, err := ref.Item.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			continue
		}
		out = append(out, HTMLParagraphs(data)...)
	}
	return out, nil
}

var htmlBlocks = map[string]bool{
	"p": true, "div": true, "li": true, "blockquote": true, "br": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// HTMLParagraphs extracts the visible text of an HTML chapter, one paragraph
// per block element.
func HTMLParagraphs(data []byte) []string {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style" || n.Data == "head") {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(spaces.ReplaceAllString(n.Data, " "))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && htmlBlocks[n.Data] {
			b.WriteByte('\n')
		}
	}
	walk(root)

	paragraphs := Normalize(b.String())
	for i, p := range paragraphs {
		paragraphs[i] = strings.TrimSpace(spaces.ReplaceAllString(p, " "))
	}
	return paragraphs
}
