package mergefields

import (
	"regexp"

	"github.com/draftsign/draftsign-api/internal/models"
)

var tokenRE = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*)\s*\}\}`)

// sectionTexts is the per-variant text extraction. Adding a section type means
// adding a branch here, not extending a generic serializer.
func sectionTexts(s *models.Section) []string {
	switch s.Type {
	case models.SectionHeading:
		if s.Content.Heading != nil {
			return []string{s.Content.Heading.Text}
		}
	case models.SectionParagraph:
		if s.Content.Paragraph != nil {
			return []string{s.Content.Paragraph.Markup}
		}
	case models.SectionTable:
		if s.Content.Table != nil {
			var texts []string
			for _, row := range s.Content.Table.Rows {
				texts = append(texts, row...)
			}
			return texts
		}
	case models.SectionSignature:
		if s.Content.Signature != nil {
			return []string{s.Content.Signature.Label}
		}
	}
	return nil
}

// Extract scans sections for {{namespace.field}} tokens, deduplicated with
// first-seen order preserved. A signature section's signer-field reference
// counts as a used key even though it carries no braces.
func Extract(secs []models.Section) []Key {
	seen := make(map[Key]bool)
	var keys []Key

	add := func(k Key) {
		if k == "" || seen[k] {
			return
		}
		seen[k] = true
		keys = append(keys, k)
	}

	for i := range secs {
		for _, text := range sectionTexts(&secs[i]) {
			for _, m := range tokenRE.FindAllStringSubmatch(text, -1) {
				add(Key(m[1]))
			}
		}
		if secs[i].Type == models.SectionSignature && secs[i].Content.Signature != nil {
			add(Key(secs[i].Content.Signature.SignerField))
		}
	}
	return keys
}
