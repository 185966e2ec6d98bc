package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
)

type docType int

const (
	typeUnsupported docType = iota
	typePDF
	typeTextLike // docx, odt, rtf, plain text
)

func getDocType(docPath string) docType {
	switch strings.ToLower(filepath.Ext(docPath)) {
	case ".pdf":
		return typePDF
	case ".docx", ".odt", ".rtf", ".txt", ".md":
		return typeTextLike
	default:
		return typeUnsupported
	}
}

func extractText(path string, contentType docType) ([]rawPage, error) {
	switch contentType {
	case typePDF:
		return extractPDF(path)
	case typeTextLike:
		return extractTextLike(path)
	default:
		return nil, fmt.Errorf("unsupported content type: %d", contentType)
	}
}

func extractPDF(path string) ([]rawPage, error) {
	f, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	var pages []rawPage
	numPages := f.NumPage()
	logger.Debug("extractPDF", "pages", numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := protectExtract(page)
		if err != nil {
			// skip the page, keep the rest of the document
			logger.Error("Error parsing page content", "page", i, "error", err)
			continue
		}

		pages = append(pages, rawPage{Number: i, Content: content})
	}
	return pages, nil
}

// extractTextLike handles docx, odt, rtf and plain text. These formats
// carry no page boundaries, so everything lands on page 1.
func extractTextLike(path string) ([]rawPage, error) {
	text, err := cat.File(path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}
	return []rawPage{{Number: 1, Content: text}}, nil
}

// protectExtract guards pdf text extraction with a timeout; malformed
// pages can make the parser hang.
func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(time.Second * 10):
		return "", errors.New("page extraction timed out")
	}
}
