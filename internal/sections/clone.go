package sections

import (
	"sort"

	"github.com/draftsign/draftsign-api/internal/models"
	"github.com/google/uuid"
)

// Clone copies a template's sections into a fresh, independently-owned set for
// a document. Every section gets a new ID, content is deep-copied and order is
// preserved. The source slice is never mutated.
func Clone(src []models.Section, documentID uint) []models.Section {
	ordered := append([]models.Section(nil), src...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})

	docID := documentID
	out := make([]models.Section, 0, len(ordered))
	for i, s := range ordered {
		out = append(out, models.Section{
			ID:         uuid.NewString(),
			DocumentID: &docID,
			Type:       s.Type,
			Position:   i,
			Content:    s.Content.Clone(),
		})
	}
	return out
}
