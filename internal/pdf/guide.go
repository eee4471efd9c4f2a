package pdf

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// EndpointDoc is one row of the API guide.
type EndpointDoc struct {
	Method  string
	Path    string
	Summary string
	Tag     string
}

// RenderAPIGuide renders the endpoint catalog as a PDF, grouped by tag in
// input order.
func RenderAPIGuide(title, version string, endpoints []EndpointDoc) ([]byte, error) {
	doc := newGuideDoc(title)
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.SetFont("Helvetica", "B", 18)
	doc.SetTextColor(33, 37, 41)
	doc.CellFormat(contentWidth, 10, tr(title), "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	doc.SetTextColor(90, 90, 90)
	doc.CellFormat(contentWidth, lineHeight, tr("Versió "+version), "", 1, "L", false, 0, "")
	doc.Ln(4)

	currentTag := ""
	for _, endpoint := range endpoints {
		if endpoint.Tag != currentTag {
			currentTag = endpoint.Tag
			sectionTitle(doc, tr, currentTag)
		}
		doc.SetFont("Courier", "B", 9)
		doc.SetTextColor(52, 120, 246)
		doc.CellFormat(22, lineHeight, endpoint.Method, "", 0, "L", false, 0, "")
		doc.SetTextColor(33, 37, 41)
		doc.CellFormat(contentWidth-22, lineHeight, endpoint.Path, "", 1, "L", false, 0, "")
		if endpoint.Summary != "" {
			doc.SetFont("Helvetica", "", 9)
			doc.SetTextColor(90, 90, 90)
			doc.SetX(pageMargin + 22)
			doc.MultiCell(contentWidth-22, 5, tr(endpoint.Summary), "", "L", false)
		}
		doc.Ln(2)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render api guide: %w", err)
	}
	return buf.Bytes(), nil
}

func newGuideDoc(title string) *fpdf.Fpdf {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle(title, false)
	doc.SetAuthor("bitsxLaMarato", false)
	doc.SetAutoPageBreak(true, pageMargin)
	doc.AliasNbPages("")
	doc.SetFooterFunc(func() {
		doc.SetY(-12)
		doc.SetFont("Helvetica", "I", 8)
		doc.SetTextColor(128, 128, 128)
		doc.CellFormat(0, 8, fmt.Sprintf("%d/{nb}", doc.PageNo()), "", 0, "C", false, 0, "")
	})
	doc.AddPage()
	return doc
}
