package sections

import (
	"errors"

	"github.com/draftsign/draftsign-api/internal/models"
)

// History errors
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Command is one reversible edit. Forward performs the edit and captures
// whatever state Inverse needs to restore.
type Command struct {
	Name    string
	Forward func(*Editor) error
	Inverse func(*Editor) error
}

// History is a bounded undo/redo log of editor commands. The undo side is a
// fixed-capacity ring, so the oldest entries fall off instead of growing the
// log; redo is cleared whenever a new command is applied.
type History struct {
	ring  []Command
	start int
	size  int
	redo  []Command
}

// NewHistory creates a history that retains up to capacity undoable commands
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{ring: make([]Command, capacity)}
}

// Apply runs the command and records it for undo. A failed command records
// nothing.
func (h *History) Apply(e *Editor, c Command) error {
	if err := c.Forward(e); err != nil {
		return err
	}
	h.push(c)
	h.redo = h.redo[:0]
	return nil
}

// Undo reverses the most recent command and moves it to the redo stack
func (h *History) Undo(e *Editor) error {
	c, ok := h.pop()
	if !ok {
		return ErrNothingToUndo
	}
	if err := c.Inverse(e); err != nil {
		// Put it back: the editor state is unchanged on a failed inverse.
		h.push(c)
		return err
	}
	h.redo = append(h.redo, c)
	return nil
}

// Redo re-applies the most recently undone command
func (h *History) Redo(e *Editor) error {
	if len(h.redo) == 0 {
		return ErrNothingToRedo
	}
	c := h.redo[len(h.redo)-1]
	if err := c.Forward(e); err != nil {
		return err
	}
	h.redo = h.redo[:len(h.redo)-1]
	h.push(c)
	return nil
}

// CanUndo reports whether an undoable command is recorded
func (h *History) CanUndo() bool { return h.size > 0 }

// CanRedo reports whether an undone command can be re-applied
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

func (h *History) push(c Command) {
	i := (h.start + h.size) % len(h.ring)
	h.ring[i] = c
	if h.size < len(h.ring) {
		h.size++
	} else {
		h.start = (h.start + 1) % len(h.ring)
	}
}

func (h *History) pop() (Command, bool) {
	if h.size == 0 {
		return Command{}, false
	}
	h.size--
	i := (h.start + h.size) % len(h.ring)
	return h.ring[i], true
}

// InsertAfterCommand builds a reversible insert
func InsertAfterCommand(afterID string, t models.SectionType) Command {
	var insertedID string
	return Command{
		Name: "insert_after",
		Forward: func(e *Editor) error {
			s, err := e.InsertAfter(afterID, t)
			if err != nil {
				return err
			}
			insertedID = s.ID
			return nil
		},
		Inverse: func(e *Editor) error {
			return e.Delete(insertedID)
		},
	}
}

// DeleteCommand builds a reversible delete
func DeleteCommand(id string) Command {
	var removed models.Section
	var at int
	return Command{
		Name: "delete",
		Forward: func(e *Editor) error {
			i, err := e.indexOf(id)
			if err != nil {
				return err
			}
			removed = e.sections[i]
			at = i
			return e.Delete(id)
		},
		Inverse: func(e *Editor) error {
			e.insertAt(at, removed)
			return nil
		},
	}
}

// MoveCommand builds a reversible move
func MoveCommand(id string, newIndex int) Command {
	var oldIndex int
	return Command{
		Name: "move",
		Forward: func(e *Editor) error {
			i, err := e.indexOf(id)
			if err != nil {
				return err
			}
			oldIndex = i
			return e.Move(id, newIndex)
		},
		Inverse: func(e *Editor) error {
			return e.Move(id, oldIndex)
		},
	}
}

// ChangeTypeCommand builds a reversible type change. The inverse restores the
// previous type and the content the change discarded.
func ChangeTypeCommand(id string, t models.SectionType) Command {
	var oldType models.SectionType
	var oldContent models.SectionContent
	return Command{
		Name: "change_type",
		Forward: func(e *Editor) error {
			i, err := e.indexOf(id)
			if err != nil {
				return err
			}
			oldType = e.sections[i].Type
			oldContent = e.sections[i].Content.Clone()
			return e.ChangeType(id, t)
		},
		Inverse: func(e *Editor) error {
			i, err := e.indexOf(id)
			if err != nil {
				return err
			}
			e.sections[i].Type = oldType
			e.sections[i].Content = oldContent.Clone()
			return nil
		},
	}
}

// UpdateContentCommand builds a reversible content update
func UpdateContentCommand(id string, content models.SectionContent) Command {
	var oldContent models.SectionContent
	return Command{
		Name: "update_content",
		Forward: func(e *Editor) error {
			i, err := e.indexOf(id)
			if err != nil {
				return err
			}
			oldContent = e.sections[i].Content.Clone()
			return e.UpdateContent(id, content)
		},
		Inverse: func(e *Editor) error {
			i, err := e.indexOf(id)
			if err != nil {
				return err
			}
			e.sections[i].Content = oldContent.Clone()
			return nil
		},
	}
}
