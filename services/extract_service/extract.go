package extract_service

import (
    "bytes"
    "errors"
    "fmt"
    "log/slog"
    "path/filepath"
    "strings"
    "unicode/utf8"

    "code.sajari.com/docconv/v2"
    "github.com/ledongthuc/pdf"
)

const (
    pdfMimeType  = "application/pdf"
    wordMimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ErrEmptyContent is returned when a strategy produced no non-whitespace
// text. Callers treat it as a terminal upload failure, not retryable.
var ErrEmptyContent = errors.New("no text content extracted from document")

type DocumentExtractor struct {
    logger *slog.Logger
}

func NewDocumentExtractor(logger *slog.Logger) *DocumentExtractor {
    return &DocumentExtractor{
        logger: logger,
    }
}

// Extract produces plain text from raw file bytes. Strategy dispatch checks
// the declared MIME type first, then the filename extension; anything that is
// neither PDF nor Word falls through to a lossy plain-text decode.
func (e *DocumentExtractor) Extract(data []byte, filename, mimeType string) (string, error) {
    var text string
    var err error

    switch {
    case isPDF(filename, mimeType):
        text, err = e.ExtractTextFromPDF(data)
    case isWord(filename, mimeType):
        text, err = e.ExtractTextFromWord(data)
    default:
        text = decodePlainText(data)
    }

    if err != nil {
        return "", err
    }

    if strings.TrimSpace(text) == "" {
        e.logger.Error("Extraction produced no usable text",
            slog.String("filename", filename),
            slog.String("content_type", mimeType))
        return "", ErrEmptyContent
    }

    return text, nil
}

func isPDF(filename, mimeType string) bool {
    return mimeType == pdfMimeType || strings.EqualFold(filepath.Ext(filename), ".pdf")
}

func isWord(filename, mimeType string) bool {
    return mimeType == wordMimeType || strings.EqualFold(filepath.Ext(filename), ".docx")
}

// ExtractTextFromPDF walks pages in order from 1 to NumPage inclusive. Text
// fragments within a page are joined with a single space and each page ends
// with a newline; page order is significant and preserved exactly.
func (e *DocumentExtractor) ExtractTextFromPDF(data []byte) (string, error) {
    reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
    if err != nil {
        e.logger.Error("Failed to create PDF reader",
            slog.String("error", err.Error()),
            slog.Int("data_size", len(data)))
        return "", fmt.Errorf("failed to create PDF reader: %v", err)
    }

    totalPage := reader.NumPage()
    e.logger.Debug("Starting PDF text extraction",
        slog.Int("total_pages", totalPage))

    var fullText strings.Builder
    for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
        page := reader.Page(pageIndex)
        if page.V.IsNull() {
            e.logger.Warn("Null page encountered",
                slog.Int("page_number", pageIndex))
            continue
        }

        content := page.Content()
        fragments := make([]string, 0, len(content.Text))
        for _, txt := range content.Text {
            fragments = append(fragments, txt.S)
        }
        pageText := joinFragments(fragments)

        e.logger.Debug("Extracted text from page",
            slog.Int("page_number", pageIndex),
            slog.Int("text_length", len(pageText)))

        fullText.WriteString(pageText)
        fullText.WriteByte('\n')
    }

    e.logger.Info("Extracted text from PDF",
        slog.Int("total_pages", totalPage),
        slog.Int("total_text_length", fullText.Len()))

    return fullText.String(), nil
}

// ExtractTextFromWord extracts raw text only; formatting and structure are
// not preserved.
func (e *DocumentExtractor) ExtractTextFromWord(data []byte) (string, error) {
    e.logger.Debug("Starting Word document text extraction",
        slog.Int("data_size", len(data)))

    result, err := docconv.Convert(bytes.NewReader(data), wordMimeType, false)
    if err != nil {
        e.logger.Error("Failed to convert Word document",
            slog.String("error", err.Error()),
            slog.Int("data_size", len(data)))
        return "", fmt.Errorf("failed to convert Word document: %v", err)
    }

    return result.Body, nil
}

// joinFragments joins the text fragments of one page with single spaces.
func joinFragments(fragments []string) string {
    return strings.Join(fragments, " ")
}

// decodePlainText decodes bytes as UTF-8 text, replacing invalid sequences.
// The decode is best-effort and never fails for encoding reasons.
func decodePlainText(data []byte) string {
    if utf8.Valid(data) {
        return string(data)
    }
    return strings.ToValidUTF8(string(data), string(utf8.RuneError))
}
