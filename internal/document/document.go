// Package document loads resumes and job descriptions from local files or
// S3-compatible object storage and extracts their plain text.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/textnorm"
)

type Format string

const (
	FormatText Format = "TEXT"
	FormatPDF  Format = "PDF"
	FormatDOCX Format = "DOCX"
	FormatHTML Format = "HTML"
)

const s3Scheme = "s3://"

// ErrUnsupportedFormat is returned for files whose extension is not recognised.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Parsed is the result of loading one document. Failures are reported in
// Error with Success set to false.
type Parsed struct {
	Text     string `json:"text,omitempty"`
	Filename string `json:"filename"`
	Format   Format `json:"format,omitempty"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// ObjectGetter is the part of the S3 client the loader needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type Loader struct {
	objects ObjectGetter
	logger  *zap.Logger
}

// NewLoader creates a loader. A nil objects getter disables s3:// URIs.
func NewLoader(objects ObjectGetter, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{objects: objects, logger: logger}
}

// Load reads uri, a local path or an s3://bucket/key reference, and extracts its text.
func (l *Loader) Load(ctx context.Context, uri string) Parsed {
	name := filenameOf(uri)

	data, err := l.read(ctx, uri)
	if err != nil {
		l.logger.Warn("document read failed", zap.String("uri", uri), zap.Error(err))
		return Parsed{Filename: name, Error: err.Error()}
	}

	text, format, err := Extract(name, data)
	if err != nil {
		l.logger.Warn("document parse failed", zap.String("uri", uri), zap.Error(err))
		return Parsed{Filename: name, Error: err.Error()}
	}

	l.logger.Debug("document parsed",
		zap.String("filename", name),
		zap.String("format", string(format)),
		zap.Int("length", len(text)),
	)

	return Parsed{Text: text, Filename: name, Format: format, Success: true}
}

func (l *Loader) read(ctx context.Context, uri string) ([]byte, error) {
	if !strings.HasPrefix(uri, s3Scheme) {
		data, err := os.ReadFile(uri)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("file not found: %s", uri)
			}
			return nil, fmt.Errorf("read %s: %w", uri, err)
		}
		return data, nil
	}

	if l.objects == nil {
		return nil, fmt.Errorf("object storage is not configured for %s", uri)
	}

	bucket, key, ok := strings.Cut(strings.TrimPrefix(uri, s3Scheme), "/")
	if !ok || bucket == "" || key == "" {
		return nil, fmt.Errorf("invalid object uri %q", uri)
	}

	out, err := l.objects.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, out.Body); err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return buf.Bytes(), nil
}

// Extract returns the plain text of data, choosing the parser by the
// extension of name.
func Extract(name string, data []byte) (string, Format, error) {
	ext := strings.ToLower(filepath.Ext(name))

	switch ext {
	case ".txt", ".md", "":
		return strings.TrimSpace(string(data)), FormatText, nil
	case ".pdf":
		text, err := pdfText(data)
		return text, FormatPDF, err
	case ".docx":
		text, err := docxText(data)
		return text, FormatDOCX, err
	case ".html", ".htm":
		text, err := textnorm.StripHTML(string(data))
		if err != nil {
			return "", FormatHTML, fmt.Errorf("failed to parse html: %w", err)
		}
		return strings.TrimSpace(text), FormatHTML, nil
	case ".doc":
		return "", "", fmt.Errorf("%w: legacy .doc files are not supported, convert to .docx", ErrUnsupportedFormat)
	default:
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read pdf page %d: %w", i, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String()), nil
}

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>|<w:br\s*/>|<w:cr\s*/>`)
	docxTab          = regexp.MustCompile(`<w:tab\s*/>`)
	xmlTag           = regexp.MustCompile(`<[^>]+>`)
)

func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return docxXMLToText(doc.Editable().GetContent()), nil
}

// docxXMLToText flattens WordprocessingML into text with one line per paragraph.
func docxXMLToText(content string) string {
	content = docxParagraphEnd.ReplaceAllString(content, "\n")
	content = docxTab.ReplaceAllString(content, "\t")
	content = xmlTag.ReplaceAllString(content, "")
	return strings.TrimSpace(html.UnescapeString(content))
}

func filenameOf(uri string) string {
	if strings.HasPrefix(uri, s3Scheme) {
		return path.Base(strings.TrimPrefix(uri, s3Scheme))
	}
	return filepath.Base(uri)
}
