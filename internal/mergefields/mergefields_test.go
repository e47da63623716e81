package mergefields

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftsign/draftsign-api/internal/models"
)

func heading(text string) models.Section {
	return models.Section{
		Type:    models.SectionHeading,
		Content: models.SectionContent{Heading: &models.HeadingContent{Text: text}},
	}
}

func paragraph(markup string) models.Section {
	return models.Section{
		Type:    models.SectionParagraph,
		Content: models.SectionContent{Paragraph: &models.ParagraphContent{Markup: markup}},
	}
}

func TestExtract(t *testing.T) {
	secs := []models.Section{
		heading("Invoice for {{client.full_name}}"),
		paragraph("{{ client.full_name }} owes {{document.total}} by {{document.due_date}}."),
		{
			Type: models.SectionTable,
			Content: models.SectionContent{Table: &models.TableContent{
				Rows: [][]string{{"Billed to", "{{client.email}}"}, {"From", "{{company.name}}"}},
			}},
		},
		{
			Type: models.SectionSignature,
			Content: models.SectionContent{Signature: &models.SignatureContent{
				Label:       "Signed on {{today.date}}",
				SignerField: "client.full_name",
			}},
		},
	}

	keys := Extract(secs)
	assert.Equal(t, []Key{
		KeyClientFullName,
		KeyDocumentTotal,
		KeyDocumentDueDate,
		KeyClientEmail,
		KeyCompanyName,
		KeyTodayDate,
	}, keys)
}

func TestExtract_NoTokens(t *testing.T) {
	assert.Empty(t, Extract([]models.Section{heading("Plain title")}))
}

func TestResolve(t *testing.T) {
	due := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	ctx := Context{
		Client: &models.Client{FullName: "Jane Doe", Email: "jane@example.com"},
		Tenant: &models.Tenant{CompanyName: "Acme Ltd"},
		Document: &models.Document{
			Title:   "March Retainer",
			Total:   1250.5,
			DueDate: &due,
		},
		Now: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
	}

	keys := []Key{KeyClientFullName, KeyCompanyName, KeyDocumentTotal, KeyDocumentDueDate, KeyTodayDate, Key("client.shoe_size")}
	values, warnings := Resolve(keys, ctx)

	assert.Equal(t, "Jane Doe", values[KeyClientFullName])
	assert.Equal(t, "Acme Ltd", values[KeyCompanyName])
	assert.Equal(t, "1250.50", values[KeyDocumentTotal])
	assert.Equal(t, "15/03/2026", values[KeyDocumentDueDate])
	assert.Equal(t, "01/02/2026", values[KeyTodayDate])

	// Unknown keys resolve to empty and come back as warnings.
	assert.Equal(t, "", values[Key("client.shoe_size")])
	assert.Equal(t, []Key{Key("client.shoe_size")}, warnings)
}

func TestResolve_MissingRecords(t *testing.T) {
	values, warnings := Resolve([]Key{KeyClientFullName, KeyDocumentDueDate}, Context{
		Document: &models.Document{Title: "No due date"},
	})

	assert.Equal(t, "", values[KeyClientFullName])
	assert.Contains(t, warnings, KeyClientFullName)
	// A document without a due date cannot resolve the due-date field.
	assert.Contains(t, warnings, KeyDocumentDueDate)
}

func TestRender(t *testing.T) {
	secs := []models.Section{
		paragraph("Pay {{client.full_name}} a total of {{document.total}}."),
	}
	values := map[Key]string{KeyClientFullName: "Jane Doe", KeyDocumentTotal: "300.00"}

	out := Render(secs, values)
	require.Len(t, out, 1)
	assert.Equal(t, "Pay Jane Doe a total of 300.00.", out[0].Content.Paragraph.Markup)

	// Source sections keep their tokens.
	assert.Equal(t, "Pay {{client.full_name}} a total of {{document.total}}.", secs[0].Content.Paragraph.Markup)
}

func TestRender_UnknownTokensLeftIntact(t *testing.T) {
	secs := []models.Section{paragraph("Ref {{custom.ref}} for {{client.full_name}}")}

	out := Render(secs, map[Key]string{KeyClientFullName: "Jane Doe"})
	assert.Equal(t, "Ref {{custom.ref}} for Jane Doe", out[0].Content.Paragraph.Markup)

	// Rendering the output again changes nothing.
	again := Render(out, map[Key]string{KeyClientFullName: "Jane Doe"})
	assert.Equal(t, out[0].Content.Paragraph.Markup, again[0].Content.Paragraph.Markup)
}

func TestKnown_CoversResolvableKeys(t *testing.T) {
	ctx := Context{
		Client:   &models.Client{},
		Tenant:   &models.Tenant{},
		Document: &models.Document{},
		Now:      time.Now(),
	}
	for _, f := range Known() {
		if f.Key == KeyDocumentDueDate {
			continue // needs a due date on the document
		}
		_, ok := ctx.lookup(f.Key)
		assert.True(t, ok, "key %s should resolve", f.Key)
	}
}
