package sections

import (
	"errors"
	"fmt"
	"sort"

	"github.com/draftsign/draftsign-api/internal/models"
	"github.com/google/uuid"
)

// Editing errors
var (
	ErrSectionNotFound = errors.New("section not found")
	ErrLastSection     = errors.New("a document must keep at least one section")
	ErrUnknownType     = errors.New("unknown section type")
	ErrContentMismatch = errors.New("content does not match section type")
	ErrBadIndex        = errors.New("target index out of range")
)

// Editor applies ordered edits to one document's section list. Positions stay
// a dense 0..n-1 permutation after every operation. Drafts are single-editor,
// so the editor holds no locks of its own.
type Editor struct {
	documentID uint
	sections   []models.Section
}

// NewEditor wraps an existing section list, normalizing order
func NewEditor(documentID uint, secs []models.Section) *Editor {
	e := &Editor{
		documentID: documentID,
		sections:   append([]models.Section(nil), secs...),
	}
	sort.SliceStable(e.sections, func(i, j int) bool {
		return e.sections[i].Position < e.sections[j].Position
	})
	e.renumber()
	return e
}

// Sections returns the current ordered section list
func (e *Editor) Sections() []models.Section {
	return e.sections
}

// Len returns the number of sections
func (e *Editor) Len() int {
	return len(e.sections)
}

// InsertAfter inserts a new empty section of the given type after the section
// with the given id. An empty id appends at the end.
func (e *Editor) InsertAfter(afterID string, t models.SectionType) (*models.Section, error) {
	if !models.ValidSectionType(t) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}

	at := len(e.sections)
	if afterID != "" {
		i, err := e.indexOf(afterID)
		if err != nil {
			return nil, err
		}
		at = i + 1
	}

	docID := e.documentID
	section := models.Section{
		ID:         uuid.NewString(),
		DocumentID: &docID,
		Type:       t,
		Content:    models.EmptyContent(t),
	}
	e.insertAt(at, section)
	return &e.sections[at], nil
}

// Delete removes a section. Removing the last remaining section is rejected
// because the document could no longer render.
func (e *Editor) Delete(id string) error {
	i, err := e.indexOf(id)
	if err != nil {
		return err
	}
	if len(e.sections) == 1 {
		return ErrLastSection
	}
	e.sections = append(e.sections[:i], e.sections[i+1:]...)
	e.renumber()
	return nil
}

// Move repositions a section at newIndex, shifting its neighbors
func (e *Editor) Move(id string, newIndex int) error {
	i, err := e.indexOf(id)
	if err != nil {
		return err
	}
	if newIndex < 0 || newIndex >= len(e.sections) {
		return fmt.Errorf("%w: %d", ErrBadIndex, newIndex)
	}
	s := e.sections[i]
	e.sections = append(e.sections[:i], e.sections[i+1:]...)
	rest := append([]models.Section(nil), e.sections[newIndex:]...)
	e.sections = append(e.sections[:newIndex], s)
	e.sections = append(e.sections, rest...)
	e.renumber()
	return nil
}

// ChangeType switches a section to a new type. Content is always reset to the
// new type's empty shape; the previous content is discarded.
func (e *Editor) ChangeType(id string, t models.SectionType) error {
	if !models.ValidSectionType(t) {
		return fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	i, err := e.indexOf(id)
	if err != nil {
		return err
	}
	e.sections[i].Type = t
	e.sections[i].Content = models.EmptyContent(t)
	return nil
}

// UpdateContent replaces a section's content. The content variant must match
// the section's current type.
func (e *Editor) UpdateContent(id string, content models.SectionContent) error {
	i, err := e.indexOf(id)
	if err != nil {
		return err
	}
	if !contentMatches(e.sections[i].Type, content) {
		return ErrContentMismatch
	}
	e.sections[i].Content = content.Clone()
	return nil
}

func contentMatches(t models.SectionType, c models.SectionContent) bool {
	switch t {
	case models.SectionHeading:
		return c.Heading != nil
	case models.SectionParagraph:
		return c.Paragraph != nil
	case models.SectionTable:
		return c.Table != nil
	case models.SectionSignature:
		return c.Signature != nil
	}
	return false
}

func (e *Editor) indexOf(id string) (int, error) {
	for i := range e.sections {
		if e.sections[i].ID == id {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrSectionNotFound, id)
}

func (e *Editor) insertAt(i int, s models.Section) {
	if i < 0 {
		i = 0
	}
	if i > len(e.sections) {
		i = len(e.sections)
	}
	rest := append([]models.Section(nil), e.sections[i:]...)
	e.sections = append(e.sections[:i], s)
	e.sections = append(e.sections, rest...)
	e.renumber()
}

func (e *Editor) renumber() {
	for i := range e.sections {
		e.sections[i].Position = i
	}
}
