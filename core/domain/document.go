package domain

import (
	"time"

	"github.com/google/uuid"
)

// DocumentKind categorizes a case document.
type DocumentKind string

const (
	DocumentContract   DocumentKind = "contract"
	DocumentPleading   DocumentKind = "pleading"
	DocumentCorrespond DocumentKind = "correspondence"
	DocumentMemo       DocumentKind = "memo"
	DocumentOther      DocumentKind = "other"
)

// Document is case document metadata. The body lives in the document body
// store (MongoDB); the relational row carries metadata only.
type Document struct {
	ID     uuid.UUID `json:"id"`
	FirmID uuid.UUID `json:"firm_id"`
	CaseID uuid.UUID `json:"case_id"`

	Title   string       `json:"title"`
	Kind    DocumentKind `json:"kind"`
	Version int          `json:"version"`

	// Private documents are visible only to their author for
	// assignment-based roles.
	Private  bool      `json:"private"`
	AuthorID uuid.UUID `json:"author_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentBody is the stored content of one document version.
type DocumentBody struct {
	DocumentID uuid.UUID `json:"document_id" bson:"document_id"`
	Version    int       `json:"version" bson:"version"`
	Content    string    `json:"content" bson:"content"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}
