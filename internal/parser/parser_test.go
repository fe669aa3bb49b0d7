package parser

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"agentic-rag/internal/testutil"
)

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, body := range files {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

func TestExtractTextPDF(t *testing.T) {
	path := testutil.WritePDF(t, filepath.Join(t.TempDir(), "report.pdf"),
		[]string{"Quarterly revenue grew by ten percent.", "Costs (mostly cloud) stayed flat."},
		[]string{"The second page covers hiring."},
	)

	text, err := ExtractText(path)
	require.NoError(t, err)

	assert.Contains(t, text, "Quarterly revenue grew by ten percent.")
	assert.Contains(t, text, "Costs (mostly cloud) stayed flat.")
	assert.Contains(t, text, "The second page covers hiring.")
	assert.Less(t,
		strings.Index(text, "Quarterly"),
		strings.Index(text, "second page"),
		"pages keep their order")
}

func TestExtractTextPlain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("first line   \r\nsecond line\r\n\r\n\r\n\r\nthird\n"), 0o600))

	text, err := ExtractText(path)
	require.NoError(t, err)
	assert.Equal(t, "first line\nsecond line\n\nthird", text)
}

func TestExtractTextMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "README.md")
	src := "# Title\n\nSome *bold* text with `code`.\n\n- item one\n- item two\n"
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))

	text, err := ExtractText(path)
	require.NoError(t, err)

	assert.Contains(t, text, "Title")
	assert.Contains(t, text, "Some bold text with code.")
	assert.Contains(t, text, "item one")
	assert.Contains(t, text, "item two")
	assert.NotContains(t, text, "#")
	assert.NotContains(t, text, "*")
}

func TestExtractTextDOCX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memo.docx")
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>Hello </w:t></w:r><w:r><w:t xml:space="preserve">world &amp; friends.</w:t></w:r></w:p>
<w:p><w:r><w:t></w:t></w:r></w:p>
<w:p><w:r><w:t>Second paragraph.</w:t></w:r></w:p>
</w:body></w:document>`
	writeZip(t, path, map[string]string{
		"word/document.xml":            doc,
		"word/_rels/document.xml.rels": `<?xml version="1.0"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
	})

	text, err := ExtractText(path)
	require.NoError(t, err)
	assert.Equal(t, "Hello world & friends.\nSecond paragraph.", text)
}

func TestExtractTextPPTX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.pptx")
	slide := func(s string) string {
		return `<p:sld xmlns:a="a" xmlns:p="p"><p:txBody><a:p><a:r><a:t>` + s + `</a:t></a:r></a:p></p:txBody></p:sld>`
	}
	writeZip(t, path, map[string]string{
		"ppt/slides/slide10.xml": slide("Tenth slide"),
		"ppt/slides/slide2.xml":  slide("Second slide"),
		"ppt/slides/slide1.xml":  slide("First slide"),
	})

	text, err := ExtractText(path)
	require.NoError(t, err)
	assert.Equal(t, "First slide\n\nSecond slide\n\nTenth slide", text)
}

func TestExtractTextSpreadsheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "item"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "cost"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "servers"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", 1200))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	text, err := ExtractText(path)
	require.NoError(t, err)
	assert.Equal(t, "Sheet: Sheet1\nitem\tcost\nservers\t1200", text)
}

func TestExtractTextErrors(t *testing.T) {
	dir := t.TempDir()

	unsupported := filepath.Join(dir, "image.png")
	require.NoError(t, os.WriteFile(unsupported, []byte{0x89, 'P', 'N', 'G'}, 0o600))

	corrupt := filepath.Join(dir, "broken.pdf")
	require.NoError(t, os.WriteFile(corrupt, []byte("not a pdf at all"), 0o600))

	tests := []struct {
		name string
		path string
		want error
	}{
		{"missing file", filepath.Join(dir, "missing.pdf"), ErrUnreadable},
		{"directory", dir, ErrUnreadable},
		{"corrupt pdf", corrupt, ErrUnreadable},
		{"unsupported extension", unsupported, ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := ExtractText(tt.path)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, text)
		})
	}
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "a\n\nb", normalizeText("  a \t\r\n\n\n\n\nb  \n"))
	assert.Equal(t, "", normalizeText(" \n\t\n"))
}
