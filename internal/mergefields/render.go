package mergefields

import (
	"github.com/draftsign/draftsign-api/internal/models"
)

// Render substitutes resolved values into a copy of the sections. Substitution
// is literal text replacement of {{key}} tokens; no escaping, no expression
// evaluation. Tokens without an entry in values are left untouched, which
// makes a second render over already-rendered output a no-op.
func Render(secs []models.Section, values map[Key]string) []models.Section {
	out := make([]models.Section, len(secs))
	for i := range secs {
		out[i] = secs[i]
		out[i].Content = renderContent(secs[i].Type, secs[i].Content, values)
	}
	return out
}

func renderContent(t models.SectionType, c models.SectionContent, values map[Key]string) models.SectionContent {
	rendered := c.Clone()
	repl := func(s string) string { return substitute(s, values) }

	switch t {
	case models.SectionHeading:
		if rendered.Heading != nil {
			rendered.Heading.Text = repl(rendered.Heading.Text)
		}
	case models.SectionParagraph:
		if rendered.Paragraph != nil {
			rendered.Paragraph.Markup = repl(rendered.Paragraph.Markup)
		}
	case models.SectionTable:
		if rendered.Table != nil {
			for r := range rendered.Table.Rows {
				for col := range rendered.Table.Rows[r] {
					rendered.Table.Rows[r][col] = repl(rendered.Table.Rows[r][col])
				}
			}
		}
	case models.SectionSignature:
		if rendered.Signature != nil {
			rendered.Signature.Label = repl(rendered.Signature.Label)
		}
	}
	return rendered
}

func substitute(text string, values map[Key]string) string {
	return tokenRE.ReplaceAllStringFunc(text, func(tok string) string {
		m := tokenRE.FindStringSubmatch(tok)
		if v, ok := values[Key(m[1])]; ok {
			return v
		}
		return tok
	})
}
