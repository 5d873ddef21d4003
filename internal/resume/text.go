package resume

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/charmap"
)

// MinTextLength is the shortest extracted text accepted for an upload.
const MinTextLength = 10

var (
	// ErrUnsupportedFormat rejects files whose extension has no extractor.
	ErrUnsupportedFormat = errors.New("unsupported file type, allowed: .txt, .md, .pdf, .doc, .docx")
	// ErrEmptyExtraction rejects files that yield too little text.
	ErrEmptyExtraction = errors.New("could not extract meaningful text from the file")
)

// ExtractText dispatches on the file extension and returns the document text.
// It fails with ErrUnsupportedFormat or ErrEmptyExtraction before anything
// is written to the graph.
func ExtractText(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var (
		text string
		err  error
	)
	switch ext {
	case ".txt", ".md":
		text = decodePlain(data)
	case ".pdf":
		text, err = pdfText(data)
	case ".doc", ".docx":
		text, err = docxText(data)
	default:
		return "", fmt.Errorf("%w (got %q)", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", filename, err)
	}

	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < MinTextLength {
		return "", ErrEmptyExtraction
	}
	return text, nil
}

// decodePlain reads UTF-8, falling back to Latin-1 which accepts any byte.
func decodePlain(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "")
	}
	return string(out)
}

func pdfText(data []byte) (text string, err error) {
	// The PDF reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		s, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("pdf page %d: %w", i, err)
		}
		b.WriteString(s)
		b.WriteString("\n")
	}
	return b.String(), nil
}

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// docxText returns body paragraphs joined by newlines, then the text of
// every table cell, each on its own line.
func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", errors.New("open docx: word/document.xml missing")
	}
	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("open docx body: %w", err)
	}
	defer rc.Close()

	paras, cells, err := walkDocx(rc)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(strings.Join(paras, "\n"))
	for _, c := range cells {
		b.WriteString("\n")
		b.WriteString(c)
	}
	return b.String(), nil
}

func walkDocx(r io.Reader) (paras, cells []string, err error) {
	dec := xml.NewDecoder(r)
	var (
		para      strings.Builder
		cellParas []string
		tblDepth  int
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("parse docx: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "tbl":
				tblDepth++
			case "p":
				para.Reset()
			case "t":
				var s string
				if err := dec.DecodeElement(&s, &t); err != nil {
					return nil, nil, fmt.Errorf("parse docx text: %w", err)
				}
				para.WriteString(s)
			case "tab":
				para.WriteString("\t")
			case "br", "cr":
				para.WriteString("\n")
			}
		case xml.EndElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "p":
				if tblDepth == 0 {
					paras = append(paras, para.String())
				} else {
					cellParas = append(cellParas, para.String())
				}
			case "tc":
				if tblDepth == 1 {
					cells = append(cells, strings.Join(cellParas, "\n"))
					cellParas = nil
				}
			case "tbl":
				tblDepth--
			}
		}
	}
	return paras, cells, nil
}
