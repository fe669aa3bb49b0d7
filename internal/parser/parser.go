package parser

import (
	"archive/zip"
	"errors"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
)

var (
	// ErrUnreadable is returned when a document cannot be read or converted to text.
	ErrUnreadable = errors.New("document cannot be read")
	// ErrUnsupportedFormat is returned for file extensions without an extractor.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

var (
	docxParagraphRe = regexp.MustCompile(`(?s)<w:p[ >].*?</w:p>`)
	docxTextRe      = regexp.MustCompile(`(?s)<w:t(?:\s[^>]*)?>(.*?)</w:t>`)
	pptxParagraphRe = regexp.MustCompile(`(?s)<a:p>.*?</a:p>`)
	pptxTextRe      = regexp.MustCompile(`(?s)<a:t>(.*?)</a:t>`)
	slideNameRe     = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
	blankLinesRe    = regexp.MustCompile(`\n{3,}`)
)

// ExtractText converts the file at filePath to plain text. The extractor is
// picked from the file extension. Errors wrap ErrUnreadable or
// ErrUnsupportedFormat.
func ExtractText(filePath string) (string, error) {
	stat, err := os.Stat(filePath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if stat.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrUnreadable, filePath)
	}

	var text string
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf":
		text, err = parsePDF(filePath)
	case ".docx":
		text, err = parseDOCX(filePath)
	case ".pptx":
		text, err = parsePPTX(filePath)
	case ".xlsx", ".xlsm":
		text, err = parseSpreadsheet(filePath)
	case ".md", ".markdown":
		text, err = parseMarkdown(filePath)
	case ".txt":
		text, err = parseText(filePath)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnreadable, filePath, err)
	}

	text = normalizeText(text)
	log.Debug().Str("file", filePath).Int("chars", len(text)).Msg("Extracted text")
	return text, nil
}

func parsePDF(filePath string) (text string, err error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", err
	}

	// the pdf package panics on some malformed object graphs
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return "", err
	}

	fonts := make(map[string]*pdf.Font)
	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := page.Font(name)
				fonts[name] = &font
			}
		}
		pageText, err := page.GetPlainText(fonts)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, pageText)
	}
	return strings.Join(pages, "\n\n"), nil
}

func parseDOCX(filePath string) (string, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return "", err
	}
	defer r.Close()

	return extractParagraphs(r.Editable().GetContent(), docxParagraphRe, docxTextRe), nil
}

func parsePPTX(filePath string) (string, error) {
	f, err := zip.OpenReader(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	type slide struct {
		num  int
		text string
	}
	var slides []slide
	for _, file := range f.File {
		m := slideNameRe.FindStringSubmatch(file.Name)
		if m == nil {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", err
		}
		num, _ := strconv.Atoi(m[1])
		slides = append(slides, slide{num: num, text: extractParagraphs(string(data), pptxParagraphRe, pptxTextRe)})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	parts := make([]string, 0, len(slides))
	for _, s := range slides {
		if strings.TrimSpace(s.text) != "" {
			parts = append(parts, s.text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

func parseText(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// extractParagraphs pulls the text runs out of office xml, one line per
// paragraph.
func extractParagraphs(xmlContent string, paragraphRe, textRe *regexp.Regexp) string {
	var text strings.Builder
	for _, paragraph := range paragraphRe.FindAllString(xmlContent, -1) {
		var line strings.Builder
		for _, m := range textRe.FindAllStringSubmatch(paragraph, -1) {
			line.WriteString(html.UnescapeString(m[1]))
		}
		if strings.TrimSpace(line.String()) == "" {
			continue
		}
		text.WriteString(line.String())
		text.WriteString("\n")
	}
	return text.String()
}

func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	text = strings.Join(lines, "\n")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
