package ingestion

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"html"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// DocumentPayload is the raw content of one corpus file.
type DocumentPayload struct {
	Path string
	Data []byte
}

// ParsedDocument is the plain text extracted from a payload.
type ParsedDocument struct {
	Title string
	Text  string
}

type DocumentParser interface {
	Parse(ctx context.Context, payload DocumentPayload) (*ParsedDocument, error)
}

func defaultParsers() map[DocumentFormat]DocumentParser {
	return map[DocumentFormat]DocumentParser{
		FormatText:     textParser{},
		FormatMarkdown: markdownParser{},
		FormatPDF:      pdfParser{},
		FormatDOCX:     docxParser{},
		FormatHTML:     htmlParser{},
		FormatXLSX:     xlsxParser{},
		FormatCSV:      csvParser{},
	}
}

type textParser struct{}

func (textParser) Parse(_ context.Context, payload DocumentPayload) (*ParsedDocument, error) {
	content := normalizePlainText(string(payload.Data))
	return &ParsedDocument{Title: baseTitle(payload.Path), Text: content}, nil
}

type markdownParser struct{}

func (markdownParser) Parse(_ context.Context, payload DocumentPayload) (*ParsedDocument, error) {
	content := string(payload.Data)
	return &ParsedDocument{
		Title: ExtractTitle(content, baseTitle(payload.Path)),
		Text:  markdownToText(payload.Data),
	}, nil
}

type pdfParser struct{}

func (pdfParser) Parse(_ context.Context, payload DocumentPayload) (*ParsedDocument, error) {
	reader := bytes.NewReader(payload.Data)
	doc, err := pdf.NewReader(reader, int64(len(payload.Data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	plain, err := doc.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	buf := &bytes.Buffer{}
	if _, err := io.Copy(buf, plain); err != nil {
		return nil, fmt.Errorf("read pdf text: %w", err)
	}

	content := normalizePlainText(buf.String())
	title := firstNonEmptyLine(content)
	if title == "" {
		title = baseTitle(payload.Path)
	}

	return &ParsedDocument{Title: title, Text: content}, nil
}

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>`)
	docxLineBreak    = regexp.MustCompile(`<w:(br|cr)\s*/>`)
	docxTab          = regexp.MustCompile(`<w:tab\s*/>`)
	xmlTag           = regexp.MustCompile(`<[^>]+>`)
)

type docxParser struct{}

func (docxParser) Parse(_ context.Context, payload DocumentPayload) (*ParsedDocument, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(payload.Data), int64(len(payload.Data)))
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	defer r.Close()

	return &ParsedDocument{
		Title: baseTitle(payload.Path),
		Text:  docxXMLToText(r.Editable().GetContent()),
	}, nil
}

// docxXMLToText flattens WordprocessingML body XML into paragraphs.
func docxXMLToText(content string) string {
	content = docxParagraphEnd.ReplaceAllString(content, "\n\n")
	content = docxLineBreak.ReplaceAllString(content, "\n")
	content = docxTab.ReplaceAllString(content, "\t")
	content = xmlTag.ReplaceAllString(content, "")
	return collapseBlankLines(normalizePlainText(html.UnescapeString(content)))
}

type htmlParser struct{}

func (htmlParser) Parse(_ context.Context, payload DocumentPayload) (*ParsedDocument, error) {
	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(string(payload.Data))
	if err != nil {
		return nil, fmt.Errorf("convert html: %w", err)
	}

	return &ParsedDocument{
		Title: ExtractTitle(markdown, baseTitle(payload.Path)),
		Text:  markdownToText([]byte(markdown)),
	}, nil
}

type xlsxParser struct{}

func (xlsxParser) Parse(_ context.Context, payload DocumentPayload) (*ParsedDocument, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload.Data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		sb.WriteString("Sheet: " + sheet + "\n\n")
		headers := rows[0]
		for idx, row := range rows[1:] {
			sb.WriteString(formatRow(headers, row, idx))
			sb.WriteString("\n\n")
		}
	}

	return &ParsedDocument{Title: baseTitle(payload.Path), Text: strings.TrimSpace(sb.String())}, nil
}

type csvParser struct{}

func (csvParser) Parse(_ context.Context, payload DocumentPayload) (*ParsedDocument, error) {
	reader := csv.NewReader(bytes.NewReader(payload.Data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	title := baseTitle(payload.Path)
	if len(records) == 0 {
		return &ParsedDocument{Title: title}, nil
	}

	headers := records[0]
	paragraphs := make([]string, 0, len(records)-1)
	for idx, row := range records[1:] {
		paragraphs = append(paragraphs, formatRow(headers, row, idx))
	}

	return &ParsedDocument{Title: title, Text: strings.Join(paragraphs, "\n\n")}, nil
}

// markdownToText walks the goldmark AST and keeps only the readable text,
// one paragraph per block.
func markdownToText(src []byte) string {
	doc := goldmark.New(goldmark.WithExtensions(extension.GFM)).Parser().Parse(text.NewReader(src))

	var sb strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				sb.Write(node.Segment.Value(src))
				if node.SoftLineBreak() || node.HardLineBreak() {
					sb.WriteByte('\n')
				}
			}
			return ast.WalkContinue, nil
		case *ast.String:
			if entering {
				sb.Write(node.Value)
			}
			return ast.WalkContinue, nil
		case *ast.AutoLink:
			if entering {
				sb.Write(node.Label(src))
			}
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					sb.Write(seg.Value(src))
				}
			}
		}

		if !entering && n.Type() == ast.TypeBlock && n.Kind() != ast.KindDocument {
			sb.WriteString("\n\n")
		}
		return ast.WalkContinue, nil
	})

	return collapseBlankLines(normalizePlainText(sb.String()))
}

func formatRow(headers, row []string, idx int) string {
	builder := &strings.Builder{}
	builder.WriteString(fmt.Sprintf("Row %d", idx+1))

	for i, value := range row {
		header := ""
		if i < len(headers) {
			header = strings.TrimSpace(headers[i])
		}
		if header == "" {
			header = fmt.Sprintf("Column %d", i+1)
		}
		builder.WriteString("\n")
		builder.WriteString(header)
		builder.WriteString(": ")
		builder.WriteString(strings.TrimSpace(value))
	}

	return builder.String()
}

func baseTitle(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func normalizePlainText(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

var blankRun = regexp.MustCompile(`\n{3,}`)

func collapseBlankLines(content string) string {
	return strings.TrimSpace(blankRun.ReplaceAllString(content, "\n\n"))
}

func firstNonEmptyLine(content string) string {
	lines := strings.Split(content, "\n")
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
