// Package ingestion reads a corpus directory into documents and chunks.
package ingestion

import (
	"path/filepath"
	"strings"
)

// DocumentFormat enumerates supported document payload formats.
type DocumentFormat string

const (
	// FormatUnknown represents an unsupported or undetected format.
	FormatUnknown DocumentFormat = ""
	// FormatText represents plain text files.
	FormatText DocumentFormat = "text"
	// FormatMarkdown represents Markdown documents.
	FormatMarkdown DocumentFormat = "markdown"
	// FormatPDF represents PDF documents.
	FormatPDF DocumentFormat = "pdf"
	// FormatDOCX represents Word documents.
	FormatDOCX DocumentFormat = "docx"
	// FormatHTML represents HTML pages.
	FormatHTML DocumentFormat = "html"
	// FormatXLSX represents Excel workbooks.
	FormatXLSX DocumentFormat = "xlsx"
	// FormatCSV represents comma separated values documents.
	FormatCSV DocumentFormat = "csv"
)

// DetectFormat infers a document format from the provided path's extension.
func DetectFormat(path string) DocumentFormat {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".txt", ".text":
		return FormatText
	case ".md", ".markdown":
		return FormatMarkdown
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	case ".html", ".htm":
		return FormatHTML
	case ".xlsx":
		return FormatXLSX
	case ".csv":
		return FormatCSV
	default:
		return FormatUnknown
	}
}
