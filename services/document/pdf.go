// Package docsvc lays evaluation reports and consent forms out as PDF documents.
package docsvc

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/trezcool/milestone/core/child"
	"github.com/trezcool/milestone/core/evaluation"
)

const (
	fontFamily  = "Helvetica"
	lineHeight  = 5.5
	pageMargin  = 18.0
	bulletIndnt = 6.0

	disclaimer = "Disclaimer: This report is only for school placement and special education program design " +
		"and intervention and shall not be used for diagnostic or any legal purposes."
)

var consentParagraphs = []string{
	"I understand that I permit this institution to document my child (on any platform) following its nature " +
		"and purpose. I also understand that the information I gave to this institution is true and confidential, " +
		"and will not be released to any person or organization without my written permission. The only exceptions " +
		"to this policy are situations in which the institution is required by law to release information: " +
		"(1) evidence of physical and/or sexual abuse of children or the elderly; (2) danger of harm to myself or " +
		"another individual; and (3) a court subpoena of my records. Disclosure is then limited to the minimum " +
		"necessary to ensure safety.",
	"I understand that assessments and therapies may present challenges for my child, potentially leading to " +
		"temporary fatigue, frustration, discomfort or resistance as they adapt to new demands. I acknowledge that " +
		"relevant information may be shared among the support team to ensure coordinated care, and that individual " +
		"progress varies with no guaranteed outcomes.",
	"By signing below, I give my consent for my child to undergo the assessment and the recommended programs.",
}

// Renderer renders documents with fpdf. It is safe for concurrent use: every call builds its own document.
type Renderer struct {
	upper cases.Caser
}

var (
	_ evaluation.Renderer = (*Renderer)(nil)
	_ child.Renderer      = (*Renderer)(nil)
)

func NewRenderer() *Renderer {
	return &Renderer{upper: cases.Upper(language.English)}
}

// page wraps a fpdf document with the helpers shared by every layout.
type page struct {
	*fpdf.Fpdf
	tr    func(string) string
	width float64 // printable width
}

func newPage(title string) *page {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(title, true)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.SetTextColor(110, 110, 110)
		pdf.CellFormat(0, 6, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	w, _ := pdf.GetPageSize()
	p := &page{
		Fpdf:  pdf,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""), // cp1252
		width: w - 2*pageMargin,
	}
	p.AddPage()
	return p
}

func (p *page) font(style string, size float64) {
	p.SetFont(fontFamily, style, size)
	p.SetTextColor(0, 0, 0)
}

func (p *page) paragraph(text string) {
	p.font("", 11)
	p.MultiCell(0, lineHeight, p.tr(text), "", "J", false)
	p.Ln(2)
}

// section prints a heading on a dark bar.
func (p *page) section(title string) {
	p.Ln(4)
	p.SetFont(fontFamily, "B", 11)
	p.SetFillColor(51, 51, 51)
	p.SetTextColor(255, 255, 255)
	p.MultiCell(0, 7, p.tr(title), "", "L", true)
	p.SetTextColor(0, 0, 0)
	p.Ln(2)
}

func (p *page) bullets(items []string, style string) {
	p.font(style, 11)
	for _, item := range items {
		p.SetX(pageMargin + bulletIndnt)
		p.CellFormat(4, lineHeight, p.tr("•"), "", 0, "L", false, 0, "")
		p.MultiCell(p.width-bulletIndnt-4, lineHeight, p.tr(item), "", "L", false)
	}
	p.Ln(1)
}

func (p *page) logo(img []byte) bool {
	if len(img) == 0 {
		return false
	}
	var tp string
	switch http.DetectContentType(img) {
	case "image/png":
		tp = "PNG"
	case "image/jpeg":
		tp = "JPG"
	case "image/gif":
		tp = "GIF"
	default:
		return false
	}
	opts := fpdf.ImageOptions{ImageType: tp, ReadDpi: true}
	p.RegisterImageOptionsReader("logo", opts, bytes.NewReader(img))
	if p.Ok() {
		p.ImageOptions("logo", pageMargin, p.GetY(), p.width, 0, true, opts, 0, "")
		p.Ln(2)
		return true
	}
	return false
}

func (p *page) output(w io.Writer) error {
	if err := p.Output(w); err != nil {
		return errors.Wrap(err, "writing pdf")
	}
	return nil
}

// RenderEvaluation writes the evaluation report of `doc` as PDF.
func (r *Renderer) RenderEvaluation(w io.Writer, doc evaluation.Document) error {
	p := newPage("Assessment Evaluation Report")
	p.SetAuthor(doc.Center.Name, true)

	if !p.logo(doc.Logo) {
		r.centerHeader(p, doc.Center.Name, doc.Center.Location, doc.Center.Contact)
	}

	p.font("B", 16)
	p.CellFormat(0, 10, "Assessment Evaluation Report", "", 1, "C", false, 0, "")
	p.font("", 10)
	p.CellFormat(p.width/2, lineHeight, p.tr(fmt.Sprintf("Name: %s", doc.Child.FullName())), "", 0, "L", false, 0, "")
	p.CellFormat(p.width/2, lineHeight, p.tr(fmt.Sprintf("Date: %s", doc.Date)), "", 1, "R", false, 0, "")
	p.CellFormat(0, lineHeight,
		p.tr(fmt.Sprintf("Assessed on %s", doc.Assessment.AssessmentDate.Format("January 2, 2006"))),
		"", 1, "L", false, 0, "")

	p.section("BACKGROUND INFORMATION")
	p.paragraph(doc.BackgroundInformation)

	p.section("DEVELOPMENTAL AREAS (sensory-motor, cognitive, language, psychosocial & self-help skills)")
	p.paragraph(fmt.Sprintf("The assessment result shows that %s:", doc.Child.FirstName))
	for _, cat := range doc.Assessment.Categories {
		p.font("BU", 12)
		p.MultiCell(0, 7, p.tr(fmt.Sprintf("%s (AGE %d)", r.upper.String(cat.Name), cat.Age)), "", "L", false)
		p.bullets(cat.Responses, "")
		p.font("I", 11)
		p.SetX(pageMargin + bulletIndnt)
		p.MultiCell(0, lineHeight, p.tr(fmt.Sprintf("%s (%.2f%%)", capitalize(cat.Competency), cat.Percentage)),
			"", "L", false)
		p.Ln(3)
	}

	p.section("RECOMMENDATIONS")
	p.bullets(doc.Recommendations, "")

	p.section("RECOMMENDED WEBSITES FOR PARENTS")
	p.bullets(doc.Websites, "")

	p.Ln(4)
	p.font("I", 9)
	p.MultiCell(0, 4.5, p.tr(disclaimer), "T", "J", false)

	r.signature(p, "Evaluated by:", doc.Center.Specialist, doc.Center.SpecialistTitle)
	return p.output(w)
}

// RenderConsentForm writes the informed consent form of `form` as PDF.
func (r *Renderer) RenderConsentForm(w io.Writer, form child.ConsentForm) error {
	p := newPage("Informed Consent")

	p.font("B", 16)
	p.CellFormat(0, 10, "Informed Consent", "", 1, "C", false, 0, "")
	p.Ln(2)

	r.fieldGrid(p, form.Fields)
	p.Ln(3)
	p.font("B", 10)
	p.CellFormat(0, 6, "THERAPIES", "", 1, "L", false, 0, "")
	r.fieldGrid(p, form.Therapy)

	p.section("REASON FOR CONSULTATION")
	p.paragraph(form.Reason)

	p.section("CONSENT")
	for _, par := range consentParagraphs {
		p.paragraph(par)
	}

	r.signature(p, "", "Signature of Parent/Guardian over Printed Name", "Date")
	return p.output(w)
}

// fieldGrid prints label/value pairs two per row.
func (r *Renderer) fieldGrid(p *page, fields []child.ConsentField) {
	colW := p.width / 2
	for i, fld := range fields {
		ln := 0
		if i%2 == 1 || i == len(fields)-1 {
			ln = 1
		}
		p.font("B", 9)
		p.CellFormat(colW*0.42, 7, p.tr(fld.Label), "1", 0, "L", false, 0, "")
		p.font("", 9)
		p.CellFormat(colW*0.58, 7, p.tr(truncate(fld.Value, 38)), "1", ln, "L", false, 0, "")
	}
}

func (r *Renderer) centerHeader(p *page, name, location, contact string) {
	p.font("B", 14)
	p.CellFormat(0, 8, p.tr(name), "", 1, "C", false, 0, "")
	p.font("", 9)
	for _, line := range []string{location, contact} {
		if line != "" {
			p.CellFormat(0, 5, p.tr(line), "", 1, "C", false, 0, "")
		}
	}
	p.Ln(3)
}

func (r *Renderer) signature(p *page, heading, name, title string) {
	p.Ln(12)
	if heading != "" {
		p.font("", 11)
		p.CellFormat(0, lineHeight, heading, "", 1, "L", false, 0, "")
		p.Ln(10)
	}
	p.SetDrawColor(51, 51, 51)
	p.Line(pageMargin, p.GetY(), pageMargin+80, p.GetY())
	p.Ln(1)
	p.font("B", 11)
	p.CellFormat(0, lineHeight, p.tr(name), "", 1, "L", false, 0, "")
	if title != "" {
		p.font("", 10)
		p.CellFormat(0, lineHeight, p.tr(title), "", 1, "L", false, 0, "")
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func truncate(s string, max int) string {
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	return string(rs[:max-1]) + "…"
}
