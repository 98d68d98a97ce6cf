package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
)

// extractDocx pulls the text runs out of word/document.xml.
func extractDocx(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx archive: %w", err)
	}

	doc := findArchiveFile(archive, "word/document.xml")
	if doc == nil {
		return "", fmt.Errorf("docx archive has no word/document.xml")
	}

	text, err := readOOXMLText(doc)
	if err != nil {
		return "", fmt.Errorf("parse word/document.xml: %w", err)
	}
	return text, nil
}

// extractPptx pulls the text runs out of every slide, in slide order.
func extractPptx(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pptx archive: %w", err)
	}

	var slides []*zip.File
	for _, f := range archive.File {
		if strings.HasPrefix(f.Name, "ppt/slides/") && path.Ext(f.Name) == ".xml" {
			slides = append(slides, f)
		}
	}
	if len(slides) == 0 {
		return "", fmt.Errorf("pptx archive has no slides")
	}
	// Presentation order: slide10.xml comes after slide2.xml, so a plain
	// name sort would reorder any deck with ten or more slides.
	sort.Slice(slides, func(i, j int) bool {
		ni, nj := slideNumber(slides[i].Name), slideNumber(slides[j].Name)
		if ni != nj {
			return ni < nj
		}
		return slides[i].Name < slides[j].Name
	})

	var parts []string
	for _, slide := range slides {
		text, err := readOOXMLText(slide)
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", slide.Name, err)
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n"), nil
}

// slideNumber parses the index out of a slide archive name like
// "ppt/slides/slide12.xml". Names without a number sort first.
func slideNumber(name string) int {
	base := strings.TrimSuffix(path.Base(name), ".xml")
	digits := strings.TrimLeftFunc(base, func(r rune) bool { return r < '0' || r > '9' })
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

func findArchiveFile(archive *zip.Reader, name string) *zip.File {
	for _, f := range archive.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// readOOXMLText walks the XML token stream collecting character data
// inside <t> elements (w:t in docx, a:t in pptx). Each closing <p>
// element ends a paragraph.
func readOOXMLText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)

	var (
		sb       strings.Builder
		inText   bool
		hasChars bool
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if hasChars {
					sb.WriteByte('\n')
					hasChars = false
				}
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
				hasChars = true
			}
		}
	}

	return strings.TrimSpace(sb.String()), nil
}
