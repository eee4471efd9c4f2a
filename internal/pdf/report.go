// Package pdf renders the downloadable documents: the per-patient clinical
// report and the API guide.
package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/types"
)

// ReportData is everything the clinical report renders.
type ReportData struct {
	Patient     types.Patient
	GeneratedAt time.Time
	Location    *time.Location
	Scores      []types.Score
	Answers     []types.QuestionAnswer
	Progress    []types.ProgressPoint
}

const (
	pageMargin   = 15.0
	contentWidth = 180.0
	lineHeight   = 6.0
)

// RenderReport produces the patient follow-up report as a PDF document.
// Timestamps are rendered in the requested location.
func RenderReport(data ReportData) ([]byte, error) {
	if data.Location == nil {
		data.Location = time.UTC
	}
	doc := fpdf.New("P", "mm", "A4", "")
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.SetTitle(tr(fmt.Sprintf("Informe de seguiment - %s %s", data.Patient.Name, data.Patient.Surname)), false)
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

	writeReportHeader(doc, tr, data)
	writeProfileSection(doc, tr, data.Patient)
	writeScoresSection(doc, tr, data)
	writeProgressSection(doc, tr, data.Progress)
	writeAnswersSection(doc, tr, data)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}

func writeReportHeader(doc *fpdf.Fpdf, tr func(string) string, data ReportData) {
	doc.SetFont("Helvetica", "B", 18)
	doc.SetTextColor(33, 37, 41)
	doc.CellFormat(contentWidth, 10, tr("Informe de seguiment"), "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 11)
	doc.SetTextColor(90, 90, 90)
	doc.CellFormat(contentWidth, lineHeight, tr(fmt.Sprintf("%s %s", data.Patient.Name, data.Patient.Surname)), "", 1, "L", false, 0, "")
	generated := data.GeneratedAt.In(data.Location).Format("02/01/2006 15:04")
	doc.CellFormat(contentWidth, lineHeight, tr("Generat el "+generated), "", 1, "L", false, 0, "")
	doc.Ln(4)
}

func writeProfileSection(doc *fpdf.Fpdf, tr func(string) string, patient types.Patient) {
	sectionTitle(doc, tr, "Dades del pacient")
	rows := [][2]string{
		{"Correu", patient.Email},
		{"Gènere", string(patient.Gender)},
		{"Edat", fmt.Sprintf("%d anys", patient.Age)},
		{"Alçada", fmt.Sprintf("%.1f cm", patient.HeightCM)},
		{"Pes", fmt.Sprintf("%.1f kg", patient.WeightKG)},
	}
	if patient.Ailments != nil && *patient.Ailments != "" {
		rows = append(rows, [2]string{"Malalties", *patient.Ailments})
	}
	if patient.Treatments != nil && *patient.Treatments != "" {
		rows = append(rows, [2]string{"Tractaments", *patient.Treatments})
	}
	doc.SetFont("Helvetica", "", 10)
	doc.SetTextColor(33, 37, 41)
	for _, row := range rows {
		doc.SetFont("Helvetica", "B", 10)
		doc.CellFormat(40, lineHeight, tr(row[0]), "", 0, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 10)
		doc.MultiCell(contentWidth-40, lineHeight, tr(row[1]), "", "L", false)
	}
	doc.Ln(4)
}

func writeScoresSection(doc *fpdf.Fpdf, tr func(string) string, data ReportData) {
	sectionTitle(doc, tr, "Activitats completades")
	if len(data.Scores) == 0 {
		emptyNote(doc, tr, "Encara no hi ha activitats completades.")
		return
	}
	headers := []string{"Data", "Activitat", "Tipus", "Puntuació", "Temps (s)"}
	widths := []float64{30, 70, 34, 22, 24}
	doc.SetFont("Helvetica", "B", 9)
	doc.SetFillColor(235, 238, 245)
	for i, header := range headers {
		doc.CellFormat(widths[i], lineHeight, tr(header), "1", 0, "C", true, 0, "")
	}
	doc.Ln(-1)
	doc.SetFont("Helvetica", "", 9)
	for _, score := range data.Scores {
		doc.CellFormat(widths[0], lineHeight, score.CompletedAt.In(data.Location).Format("02/01/2006"), "1", 0, "C", false, 0, "")
		doc.CellFormat(widths[1], lineHeight, tr(truncate(score.ActivityTitle, 42)), "1", 0, "L", false, 0, "")
		doc.CellFormat(widths[2], lineHeight, string(score.ActivityType), "1", 0, "C", false, 0, "")
		doc.CellFormat(widths[3], lineHeight, fmt.Sprintf("%.1f", score.Score), "1", 0, "C", false, 0, "")
		doc.CellFormat(widths[4], lineHeight, fmt.Sprintf("%.0f", score.SecondsToFinish), "1", 0, "C", false, 0, "")
		doc.Ln(-1)
	}
	doc.Ln(4)
}

// writeProgressSection draws the composite efficiency series as a small line
// chart, values on the 0..1 scale.
func writeProgressSection(doc *fpdf.Fpdf, tr func(string) string, points []types.ProgressPoint) {
	sectionTitle(doc, tr, "Evolució")
	if len(points) < 2 {
		emptyNote(doc, tr, "Calen almenys dues activitats per dibuixar l'evolució.")
		return
	}
	const chartHeight = 45.0
	top := doc.GetY()
	left := pageMargin
	bottom := top + chartHeight

	doc.SetDrawColor(180, 180, 180)
	doc.SetLineWidth(0.2)
	doc.Line(left, top, left, bottom)
	doc.Line(left, bottom, left+contentWidth, bottom)
	doc.SetFont("Helvetica", "", 7)
	doc.SetTextColor(128, 128, 128)
	doc.Text(left-6, top+2, "1.0")
	doc.Text(left-6, bottom, "0.0")

	doc.SetDrawColor(52, 120, 246)
	doc.SetLineWidth(0.5)
	step := contentWidth / float64(len(points)-1)
	for i := 1; i < len(points); i++ {
		x1 := left + float64(i-1)*step
		x2 := left + float64(i)*step
		y1 := bottom - clampUnit(points[i-1].Composite)*chartHeight
		y2 := bottom - clampUnit(points[i].Composite)*chartHeight
		doc.Line(x1, y1, x2, y2)
	}
	doc.SetY(bottom + 3)
	doc.SetFont("Helvetica", "", 8)
	doc.SetTextColor(90, 90, 90)
	first := points[0]
	last := points[len(points)-1]
	caption := fmt.Sprintf("Eficiència composta: %.2f -> %.2f (%d activitats)", first.Composite, last.Composite, len(points))
	doc.CellFormat(contentWidth, lineHeight, tr(caption), "", 1, "L", false, 0, "")
	doc.Ln(4)
}

func writeAnswersSection(doc *fpdf.Fpdf, tr func(string) string, data ReportData) {
	sectionTitle(doc, tr, "Preguntes respostes")
	if len(data.Answers) == 0 {
		emptyNote(doc, tr, "Encara no hi ha preguntes respostes.")
		return
	}
	doc.SetTextColor(33, 37, 41)
	for _, answer := range data.Answers {
		doc.SetFont("Helvetica", "B", 9)
		when := answer.AnsweredAt.In(data.Location).Format("02/01/2006")
		doc.MultiCell(contentWidth, lineHeight, tr(fmt.Sprintf("%s - %s", when, answer.QuestionText)), "", "L", false)
		doc.SetFont("Helvetica", "", 9)
		doc.MultiCell(contentWidth, lineHeight, tr(truncate(answer.AnswerText, 400)), "", "L", false)
		doc.Ln(2)
	}
}

func sectionTitle(doc *fpdf.Fpdf, tr func(string) string, title string) {
	doc.SetFont("Helvetica", "B", 13)
	doc.SetTextColor(33, 37, 41)
	doc.CellFormat(contentWidth, 8, tr(title), "", 1, "L", false, 0, "")
	doc.SetDrawColor(52, 120, 246)
	doc.SetLineWidth(0.6)
	y := doc.GetY()
	doc.Line(pageMargin, y, pageMargin+contentWidth, y)
	doc.Ln(3)
}

func emptyNote(doc *fpdf.Fpdf, tr func(string) string, note string) {
	doc.SetFont("Helvetica", "I", 9)
	doc.SetTextColor(128, 128, 128)
	doc.CellFormat(contentWidth, lineHeight, tr(note), "", 1, "L", false, 0, "")
	doc.Ln(4)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
