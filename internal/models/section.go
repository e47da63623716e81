package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SectionType identifies the content variant of a section
type SectionType string

// Section type constants
const (
	SectionHeading   SectionType = "heading"
	SectionParagraph SectionType = "paragraph"
	SectionTable     SectionType = "table"
	SectionSignature SectionType = "signature"
)

// ValidSectionType reports whether t is a known section type
func ValidSectionType(t SectionType) bool {
	switch t {
	case SectionHeading, SectionParagraph, SectionTable, SectionSignature:
		return true
	}
	return false
}

// HeadingContent is a single line of display text
type HeadingContent struct {
	Text string `json:"text"`
}

// ParagraphContent holds rich text markup (HTML subset produced by the editor)
type ParagraphContent struct {
	Markup string `json:"markup"`
}

// TableContent is a rows/cols cell matrix with an optional header row
type TableContent struct {
	HeaderRow bool       `json:"header_row"`
	Rows      [][]string `json:"rows"`
}

// SignatureContent labels the signature line; SignerField is the merge-field
// key that resolves to the signer's name at render time
type SignatureContent struct {
	Label       string `json:"label"`
	SignerField string `json:"signer_field"`
}

// SectionContent is a tagged union over the section variants: exactly one
// pointer is non-nil and it must match the owning section's Type.
type SectionContent struct {
	Heading   *HeadingContent   `json:"heading,omitempty"`
	Paragraph *ParagraphContent `json:"paragraph,omitempty"`
	Table     *TableContent     `json:"table,omitempty"`
	Signature *SignatureContent `json:"signature,omitempty"`
}

// EmptyContent returns the zero-value content shape for a section type
func EmptyContent(t SectionType) SectionContent {
	switch t {
	case SectionHeading:
		return SectionContent{Heading: &HeadingContent{}}
	case SectionParagraph:
		return SectionContent{Paragraph: &ParagraphContent{}}
	case SectionTable:
		return SectionContent{Table: &TableContent{Rows: [][]string{{""}}}}
	case SectionSignature:
		return SectionContent{Signature: &SignatureContent{Label: "Signature"}}
	}
	return SectionContent{}
}

// Clone returns a deep copy of the content
func (c SectionContent) Clone() SectionContent {
	var out SectionContent
	if c.Heading != nil {
		h := *c.Heading
		out.Heading = &h
	}
	if c.Paragraph != nil {
		p := *c.Paragraph
		out.Paragraph = &p
	}
	if c.Table != nil {
		t := TableContent{HeaderRow: c.Table.HeaderRow}
		t.Rows = make([][]string, len(c.Table.Rows))
		for i, row := range c.Table.Rows {
			t.Rows[i] = append([]string(nil), row...)
		}
		out.Table = &t
	}
	if c.Signature != nil {
		s := *c.Signature
		out.Signature = &s
	}
	return out
}

// Value implements driver.Valuer so content persists as JSONB
func (c SectionContent) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner
func (c *SectionContent) Scan(value interface{}) error {
	if value == nil {
		*c = SectionContent{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return fmt.Errorf("unsupported section content type %T", value)
	}
}

// Section is one typed content block within a template or document body.
// Exactly one of TemplateID/DocumentID is set; IDs are regenerated when a
// template's sections are cloned into a document.
type Section struct {
	ID         string         `gorm:"primaryKey;size:36" json:"id"`
	TemplateID *uint          `gorm:"index" json:"template_id,omitempty"`
	DocumentID *uint          `gorm:"index" json:"document_id,omitempty"`
	Type       SectionType    `gorm:"size:20;not null" json:"type"`
	Position   int            `gorm:"not null" json:"position"`
	Content    SectionContent `gorm:"type:jsonb" json:"content"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// TableName specifies the table name for Section
func (Section) TableName() string {
	return "sections"
}
