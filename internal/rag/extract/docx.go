package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/akolanti/docqa/internal/domain/docModel"
)

// docxExtractor reads word/document.xml directly. Legacy .doc files are
// routed here too and fail as corrupt since they are not zip containers.
type docxExtractor struct{}

func (docxExtractor) Formats() []docModel.Format {
	return []docModel.Format{docModel.FormatDOCX, docModel.FormatDOC}
}

func (docxExtractor) Extract(ctx context.Context, path string) (Result, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return Result{}, fmt.Errorf("not a word document: %w", err)
	}
	defer zr.Close()

	var body io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			body, err = f.Open()
			if err != nil {
				return Result{}, fmt.Errorf("opening document body: %w", err)
			}
			break
		}
	}
	if body == nil {
		return Result{}, errors.New("word/document.xml missing")
	}
	defer body.Close()

	doc, err := parseDocumentXML(body)
	if err != nil {
		return Result{}, err
	}
	return doc.render(), nil
}

type docxContent struct {
	paragraphs []string
	tables     [][][]string
}

func parseDocumentXML(r io.Reader) (docxContent, error) {
	var (
		out       docxContent
		dec       = xml.NewDecoder(r)
		depth     int
		inText    bool
		para      strings.Builder
		cellParas []string
		row       []string
		rows      [][]string
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out, fmt.Errorf("parsing document body: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				depth++
				if depth == 1 {
					rows = nil
				}
			case "tr":
				if depth == 1 {
					row = nil
				}
			case "tc":
				if depth == 1 {
					cellParas = nil
				}
			case "p":
				para.Reset()
			case "t":
				inText = true
			case "tab":
				para.WriteString("\t")
			case "br", "cr":
				para.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if depth == 0 {
					if p := strings.TrimSpace(para.String()); p != "" {
						out.paragraphs = append(out.paragraphs, p)
					}
				} else {
					cellParas = append(cellParas, para.String())
				}
			case "tc":
				if depth == 1 {
					row = append(row, strings.TrimSpace(strings.Join(cellParas, "\n")))
				}
			case "tr":
				if depth == 1 {
					rows = append(rows, row)
				}
			case "tbl":
				if depth == 1 {
					out.tables = append(out.tables, rows)
				}
				if depth > 0 {
					depth--
				}
			}
		}
	}
	return out, nil
}

func (d docxContent) render() Result {
	var text strings.Builder
	words := 0
	for _, p := range d.paragraphs {
		text.WriteString(p)
		text.WriteString("\n\n")
		words += len(strings.Fields(p))
	}

	cells := 0
	for _, table := range d.tables {
		var t strings.Builder
		t.WriteString("\n[Table]\n")
		for _, row := range table {
			t.WriteString(strings.Join(row, " | "))
			t.WriteString("\n")
			cells += len(row)
		}
		text.WriteString(t.String())
		text.WriteString("\n")
		words += len(strings.Fields(t.String()))
	}

	return Result{
		Text: strings.TrimSpace(text.String()),
		Metadata: Metadata{
			WordCount:      words,
			ParagraphCount: len(d.paragraphs),
			TableCount:     len(d.tables),
			CellCount:      cells,
		},
	}
}
