package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/jung-kurt/gofpdf"

	"github.com/draftsign/draftsign-api/internal/config"
	"github.com/draftsign/draftsign-api/internal/mergefields"
	"github.com/draftsign/draftsign-api/internal/models"
	"github.com/draftsign/draftsign-api/internal/repository"
	"github.com/draftsign/draftsign-api/internal/storage"
	"github.com/draftsign/draftsign-api/pkg/logger"
)

//go:embed templates/document.html
var documentTemplates embed.FS

// RenderService turns a document into its PDF artifact. Merge fields are
// resolved at render time, so the snapshot reflects the client and tenant
// data as of this render, not as of authoring.
type RenderService struct {
	docRepo   repository.DocumentRepository
	artifacts storage.Artifacts
	cfg       *config.Config
	htmlTmpl  *template.Template
}

// NewRenderService creates a new render service
func NewRenderService(docRepo repository.DocumentRepository, artifacts storage.Artifacts, cfg *config.Config) *RenderService {
	tmpl := template.Must(template.ParseFS(documentTemplates, "templates/document.html"))
	return &RenderService{
		docRepo:   docRepo,
		artifacts: artifacts,
		cfg:       cfg,
		htmlTmpl:  tmpl,
	}
}

// RenderAndStore renders the document and persists the artifact. Renders for
// the same document reuse the stored key, so a re-render overwrites the old
// snapshot instead of leaking objects.
func (s *RenderService) RenderAndStore(ctx context.Context, docID uint) error {
	doc, err := s.docRepo.FindByIDWithDetails(ctx, docID)
	if err != nil {
		return err
	}

	data, err := s.RenderPDF(ctx, doc)
	if err != nil {
		return fmt.Errorf("render document %d: %w", docID, err)
	}

	key := ""
	if doc.ArtifactPath != nil {
		key = *doc.ArtifactPath
	}
	if key == "" {
		key = storage.BuildKey(string(doc.Type)+"s", ".pdf")
	}
	if err := s.artifacts.Put(ctx, key, data, storage.ContentTypePDF); err != nil {
		return fmt.Errorf("store artifact for document %d: %w", docID, err)
	}
	if err := s.docRepo.UpdateArtifactPath(ctx, docID, key); err != nil {
		return err
	}

	logger.Info(fmt.Sprintf("Rendered document %d to %s (%d bytes)", docID, key, len(data)))
	return nil
}

// RenderPDF produces the PDF bytes for a document. When a wkhtmltopdf binary
// is configured the HTML pipeline is used; otherwise the native layout.
func (s *RenderService) RenderPDF(ctx context.Context, doc *models.Document) ([]byte, error) {
	rendered := s.renderedSections(doc)

	if s.cfg.WKHTMLToPDFBin != "" {
		data, err := s.renderHTML(doc, rendered)
		if err == nil {
			return data, nil
		}
		logger.Warn(fmt.Sprintf("HTML render failed for document %d, falling back to native: %v", doc.ID, err))
	}
	return s.renderNative(doc, rendered)
}

// renderedSections resolves merge fields against the live client/tenant data
// and substitutes them into a copy of the document's sections
func (s *RenderService) renderedSections(doc *models.Document) []models.Section {
	keys := mergefields.Extract(doc.Sections)
	values, warnings := mergefields.Resolve(keys, mergefields.Context{
		Client:   &doc.Client,
		Tenant:   &doc.Tenant,
		Document: doc,
		Now:      time.Now(),
	})
	for _, w := range warnings {
		logger.Warn(fmt.Sprintf("Document %d references unknown merge field %q", doc.ID, w))
	}
	return mergefields.Render(doc.Sections, values)
}

func (s *RenderService) renderNative(doc *models.Document, secs []models.Section) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.MultiCell(170, 10, doc.Title, "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.Cell(85, 6, doc.Tenant.CompanyName)
	pdf.Cell(85, 6, fmt.Sprintf("Prepared for %s", doc.Client.FullName))
	pdf.Ln(10)
	pdf.SetTextColor(0, 0, 0)

	for i := range secs {
		s.renderSection(pdf, &secs[i])
	}

	if doc.Type == models.DocTypeInvoice {
		s.renderLineItems(pdf, doc)
	}

	if doc.Type == models.DocTypeContract && doc.SignerName != nil {
		pdf.Ln(8)
		pdf.SetFont("Arial", "I", 10)
		signedAt := ""
		if doc.SignedAt != nil {
			signedAt = doc.SignedAt.Format("02/01/2006 15:04")
		}
		pdf.MultiCell(170, 6, fmt.Sprintf("Signed by %s on %s", *doc.SignerName, signedAt), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *RenderService) renderSection(pdf *gofpdf.Fpdf, sec *models.Section) {
	switch sec.Type {
	case models.SectionHeading:
		if sec.Content.Heading == nil {
			return
		}
		pdf.SetFont("Arial", "B", 14)
		pdf.MultiCell(170, 8, sec.Content.Heading.Text, "", "L", false)
		pdf.Ln(2)

	case models.SectionParagraph:
		if sec.Content.Paragraph == nil {
			return
		}
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(170, 5, sec.Content.Paragraph.Markup, "", "L", false)
		pdf.Ln(3)

	case models.SectionTable:
		if sec.Content.Table == nil {
			return
		}
		t := sec.Content.Table
		// Column count comes from the widest row; ragged rows pad with
		// empty cells.
		cols := 0
		for _, row := range t.Rows {
			if len(row) > cols {
				cols = len(row)
			}
		}
		if cols == 0 {
			return
		}
		colWidth := 170.0 / float64(cols)
		rows := t.Rows
		if t.HeaderRow {
			pdf.SetFont("Arial", "B", 9)
			pdf.SetFillColor(240, 240, 240)
			for c := 0; c < cols; c++ {
				cell := ""
				if c < len(rows[0]) {
					cell = rows[0][c]
				}
				pdf.CellFormat(colWidth, 7, cell, "1", 0, "L", true, 0, "")
			}
			pdf.Ln(-1)
			rows = rows[1:]
		}
		pdf.SetFont("Arial", "", 9)
		for _, row := range rows {
			for c := 0; c < cols; c++ {
				cell := ""
				if c < len(row) {
					cell = row[c]
				}
				pdf.CellFormat(colWidth, 6, cell, "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.Ln(3)

	case models.SectionSignature:
		if sec.Content.Signature == nil {
			return
		}
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(60, 6, sec.Content.Signature.Label)
		pdf.Ln(10)
		pdf.Cell(80, 0, "")
		pdf.Line(pdf.GetX()-80, pdf.GetY(), pdf.GetX(), pdf.GetY())
		pdf.Ln(4)
	}
}

func (s *RenderService) renderLineItems(pdf *gofpdf.Fpdf, doc *models.Document) {
	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(80, 7, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 7, "Qty", "1", 0, "R", true, 0, "")
	pdf.CellFormat(30, 7, "Unit Price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 7, "Amount", "1", 0, "R", true, 0, "")
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for i := range doc.LineItems {
		li := &doc.LineItems[i]
		pdf.CellFormat(80, 6, li.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%.2f", li.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", li.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.2f", li.Amount()), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(2)
	writeTotal := func(label string, v float64, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Arial", style, 10)
		pdf.CellFormat(135, 6, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.2f", v), "", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	writeTotal("Subtotal", doc.Subtotal, false)
	if doc.DiscountRate > 0 {
		writeTotal(fmt.Sprintf("Discount (%.1f%%)", doc.DiscountRate), models.RoundCents(doc.Subtotal*doc.DiscountRate/100), false)
	}
	if doc.TaxRate > 0 {
		writeTotal(fmt.Sprintf("Tax (%.1f%%)", doc.TaxRate), models.RoundCents(doc.Total-doc.Subtotal*(1-doc.DiscountRate/100)), false)
	}
	writeTotal("Total", doc.Total, true)
	if doc.AmountPaid > 0 {
		writeTotal("Paid", doc.AmountPaid, false)
		writeTotal("Amount Due", doc.AmountDue, true)
	}
}

// documentHTML executes the document template against the rendered sections
func (s *RenderService) documentHTML(doc *models.Document, secs []models.Section) (string, error) {
	data := struct {
		Document *models.Document
		Sections []models.Section
	}{Document: doc, Sections: secs}

	var html bytes.Buffer
	if err := s.htmlTmpl.Execute(&html, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return html.String(), nil
}

func (s *RenderService) renderHTML(doc *models.Document, secs []models.Section) ([]byte, error) {
	wkhtmltopdf.SetPath(s.cfg.WKHTMLToPDFBin)

	html, err := s.documentHTML(doc, secs)
	if err != nil {
		return nil, err
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create pdf generator: %w", err)
	}
	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)

	page := wkhtmltopdf.NewPageReader(strings.NewReader(html))
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create pdf: %w", err)
	}
	return pdfg.Buffer().Bytes(), nil
}
