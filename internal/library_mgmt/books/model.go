package books

import (
	"database/sql"
	"time"
)

// Book statuses. A status other than "available" vetoes borrowing even when
// copies are on the shelf.
const (
	StatusAvailable   = "available"
	StatusUnavailable = "unavailable"
	StatusMaintenance = "maintenance"
	StatusReserved    = "reserved"
)

// Library sites.
const (
	LocationKamboinse = "kamboinse"
	LocationOuaga     = "ouaga"
)

// Document types carried over from the catalog.
const (
	DocTypePrinted    = "texte_imprime"
	DocTypeElectronic = "document_electronique"
	DocTypeMultimedia = "multimedia"
	DocTypeAudio      = "enregistrement_sonore"
)

// Book is one row of the books table.
type Book struct {
	BookID          int64
	BookULID        string
	Title           string
	Author          string
	ISBN            sql.NullString
	Publisher       sql.NullString
	PublishedYear   sql.NullInt64
	Description     sql.NullString
	CoverURL        sql.NullString
	DocumentType    string
	Specialization  string
	Language        sql.NullString
	Location        string
	TotalCopies     int
	AvailableCopies int
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       sql.NullTime
}

func ValidStatus(s string) bool {
	switch s {
	case StatusAvailable, StatusUnavailable, StatusMaintenance, StatusReserved:
		return true
	}
	return false
}

func ValidLocation(s string) bool {
	return s == LocationKamboinse || s == LocationOuaga
}

func ValidDocumentType(s string) bool {
	switch s {
	case DocTypePrinted, DocTypeElectronic, DocTypeMultimedia, DocTypeAudio:
		return true
	}
	return false
}

// Borrowable is the availability rule: copies on the shelf AND status not
// vetoing. Both conditions block independently.
func (b *Book) Borrowable() bool {
	return b.AvailableCopies > 0 && b.Status == StatusAvailable
}

// ListFilter narrows the catalog listing.
type ListFilter struct {
	Search         string
	Specialization *string
	Location       *string
	Status         *string
}

type Page struct {
	Limit  int
	Offset int
	Order  string
}
