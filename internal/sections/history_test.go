package sections

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftsign/draftsign-api/internal/models"
)

func sectionIDs(e *Editor) []string {
	secs := e.Sections()
	ids := make([]string, len(secs))
	for i := range secs {
		ids[i] = secs[i].ID
	}
	return ids
}

func TestHistory_UndoRedo_Insert(t *testing.T) {
	e := NewEditor(1, buildSections(models.SectionHeading, models.SectionParagraph))
	h := NewHistory(10)

	require.NoError(t, h.Apply(e, InsertAfterCommand("a", models.SectionTable)))
	require.Equal(t, 3, e.Len())

	require.NoError(t, h.Undo(e))
	assert.Equal(t, []string{"a", "b"}, sectionIDs(e))

	require.NoError(t, h.Redo(e))
	assert.Equal(t, 3, e.Len())
	assert.Equal(t, models.SectionTable, e.Sections()[1].Type)
}

func TestHistory_UndoRedo_Delete(t *testing.T) {
	e := NewEditor(1, buildSections(models.SectionHeading, models.SectionParagraph, models.SectionTable))
	h := NewHistory(10)

	require.NoError(t, h.Apply(e, DeleteCommand("b")))
	assert.Equal(t, []string{"a", "c"}, sectionIDs(e))

	// Undo restores the section at its old index with its old identity.
	require.NoError(t, h.Undo(e))
	assert.Equal(t, []string{"a", "b", "c"}, sectionIDs(e))
	assertDensePositions(t, e.Sections())

	require.NoError(t, h.Redo(e))
	assert.Equal(t, []string{"a", "c"}, sectionIDs(e))
}

func TestHistory_UndoRedo_Move(t *testing.T) {
	e := NewEditor(1, buildSections(models.SectionHeading, models.SectionParagraph, models.SectionTable))
	h := NewHistory(10)

	require.NoError(t, h.Apply(e, MoveCommand("c", 0)))
	assert.Equal(t, []string{"c", "a", "b"}, sectionIDs(e))

	require.NoError(t, h.Undo(e))
	assert.Equal(t, []string{"a", "b", "c"}, sectionIDs(e))

	require.NoError(t, h.Redo(e))
	assert.Equal(t, []string{"c", "a", "b"}, sectionIDs(e))
}

func TestHistory_UndoRedo_ChangeType_RestoresContent(t *testing.T) {
	secs := buildSections(models.SectionParagraph)
	secs[0].Content = models.SectionContent{Paragraph: &models.ParagraphContent{Markup: "Terms apply to {{client.full_name}}."}}
	e := NewEditor(1, secs)
	h := NewHistory(10)

	require.NoError(t, h.Apply(e, ChangeTypeCommand("a", models.SectionHeading)))
	assert.Equal(t, models.SectionHeading, e.Sections()[0].Type)

	require.NoError(t, h.Undo(e))
	got := e.Sections()[0]
	assert.Equal(t, models.SectionParagraph, got.Type)
	require.NotNil(t, got.Content.Paragraph)
	assert.Equal(t, "Terms apply to {{client.full_name}}.", got.Content.Paragraph.Markup)
}

func TestHistory_UndoRedo_UpdateContent(t *testing.T) {
	e := NewEditor(1, buildSections(models.SectionHeading))
	h := NewHistory(10)

	require.NoError(t, h.Apply(e, UpdateContentCommand("a", models.SectionContent{
		Heading: &models.HeadingContent{Text: "Payment Terms"},
	})))
	require.NoError(t, h.Apply(e, UpdateContentCommand("a", models.SectionContent{
		Heading: &models.HeadingContent{Text: "Revised Payment Terms"},
	})))

	require.NoError(t, h.Undo(e))
	assert.Equal(t, "Payment Terms", e.Sections()[0].Content.Heading.Text)

	require.NoError(t, h.Undo(e))
	assert.Empty(t, e.Sections()[0].Content.Heading.Text)

	require.NoError(t, h.Redo(e))
	require.NoError(t, h.Redo(e))
	assert.Equal(t, "Revised Payment Terms", e.Sections()[0].Content.Heading.Text)
}

func TestHistory_ApplyClearsRedo(t *testing.T) {
	e := NewEditor(1, buildSections(models.SectionHeading, models.SectionParagraph, models.SectionTable))
	h := NewHistory(10)

	require.NoError(t, h.Apply(e, MoveCommand("c", 0)))
	require.NoError(t, h.Undo(e))
	assert.True(t, h.CanRedo())

	require.NoError(t, h.Apply(e, DeleteCommand("b")))
	assert.False(t, h.CanRedo())
	assert.ErrorIs(t, h.Redo(e), ErrNothingToRedo)
}

func TestHistory_FailedCommandRecordsNothing(t *testing.T) {
	e := NewEditor(1, buildSections(models.SectionHeading))
	h := NewHistory(10)

	err := h.Apply(e, DeleteCommand("a"))
	assert.ErrorIs(t, err, ErrLastSection)
	assert.False(t, h.CanUndo())
}

func TestHistory_RingEvictsOldest(t *testing.T) {
	e := NewEditor(1, buildSections(models.SectionHeading, models.SectionParagraph))
	h := NewHistory(2)

	require.NoError(t, h.Apply(e, UpdateContentCommand("a", models.SectionContent{
		Heading: &models.HeadingContent{Text: "one"},
	})))
	require.NoError(t, h.Apply(e, UpdateContentCommand("a", models.SectionContent{
		Heading: &models.HeadingContent{Text: "two"},
	})))
	require.NoError(t, h.Apply(e, UpdateContentCommand("a", models.SectionContent{
		Heading: &models.HeadingContent{Text: "three"},
	})))

	// Capacity is two, so only the last two edits unwind.
	require.NoError(t, h.Undo(e))
	require.NoError(t, h.Undo(e))
	assert.Equal(t, "one", e.Sections()[0].Content.Heading.Text)
	assert.ErrorIs(t, h.Undo(e), ErrNothingToUndo)
}

func TestHistory_EmptyStacks(t *testing.T) {
	e := NewEditor(1, buildSections(models.SectionHeading))
	h := NewHistory(5)

	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
	assert.ErrorIs(t, h.Undo(e), ErrNothingToUndo)
	assert.ErrorIs(t, h.Redo(e), ErrNothingToRedo)
}
