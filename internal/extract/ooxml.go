package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

const maxPartSize = 20 << 20

func openZip(data []byte) (*zip.Reader, error) {
	if len(data) == 0 {
		return nil, errors.New("empty archive")
	}
	return zip.NewReader(bytes.NewReader(data), int64(len(data)))
}

func ooxmlTypeFromZip(data []byte) string {
	zr, err := openZip(data)
	if err != nil {
		return ""
	}
	for _, f := range zr.File {
		switch zipName(f) {
		case "word/document.xml":
			return MimeDOCX
		case "ppt/presentation.xml":
			return MimePPTX
		}
	}
	return ""
}

func zipName(f *zip.File) string {
	return strings.ReplaceAll(f.Name, "\\", "/")
}

func extractDOCX(data []byte) (string, error) {
	zr, err := openZip(data)
	if err != nil {
		return "", fmt.Errorf("docx: %w", err)
	}
	for _, f := range zr.File {
		if zipName(f) == "word/document.xml" {
			return partText(f)
		}
	}
	return "", errors.New("docx: word/document.xml not found")
}

// extractPPTX reads slides in slide-number order, one blank line between slides.
func extractPPTX(data []byte) (string, error) {
	zr, err := openZip(data)
	if err != nil {
		return "", fmt.Errorf("pptx: %w", err)
	}
	type slide struct {
		n int
		f *zip.File
	}
	var slides []slide
	for _, f := range zr.File {
		if n, ok := slideNumber(zipName(f)); ok {
			slides = append(slides, slide{n, f})
		}
	}
	if len(slides) == 0 {
		return "", errors.New("pptx: no slides found")
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })

	parts := make([]string, 0, len(slides))
	for _, s := range slides {
		text, err := partText(s.f)
		if err != nil {
			return "", fmt.Errorf("pptx slide %d: %w", s.n, err)
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

func slideNumber(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, "ppt/slides/slide")
	if !ok {
		return 0, false
	}
	num, ok := strings.CutSuffix(rest, ".xml")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(num)
	return n, err == nil
}

func partText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return xmlText(io.LimitReader(rc, maxPartSize))
}

// xmlText collects the character data of <w:t> and <a:t> runs, breaking
// lines at paragraph ends and <br>.
func xmlText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		buf    strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				buf.WriteByte('\t')
			case "br":
				buf.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				buf.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				buf.Write(t)
			}
		}
	}
	return strings.TrimSpace(buf.String()), nil
}
