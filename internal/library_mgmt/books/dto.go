package books

import "time"

// ===== Requests =====

type CreateBookRequest struct {
	Title          string  `json:"title" binding:"required"`
	Author         string  `json:"author" binding:"required"`
	ISBN           *string `json:"isbn,omitempty"`
	Publisher      *string `json:"publisher,omitempty"`
	PublishedYear  *int    `json:"published_year,omitempty"`
	Description    *string `json:"description,omitempty"`
	CoverURL       *string `json:"cover_url,omitempty"`
	DocumentType   *string `json:"document_type,omitempty"` // default texte_imprime
	Specialization string  `json:"specialization" binding:"required"`
	Language       *string `json:"language,omitempty"`
	Location       string  `json:"location" binding:"required"`
	TotalCopies    int     `json:"total_copies"` // default 1
}

type UpdateBookRequest struct {
	Title          *string `json:"title,omitempty"`
	Author         *string `json:"author,omitempty"`
	ISBN           *string `json:"isbn,omitempty"`
	Publisher      *string `json:"publisher,omitempty"`
	PublishedYear  *int    `json:"published_year,omitempty"`
	Description    *string `json:"description,omitempty"`
	CoverURL       *string `json:"cover_url,omitempty"`
	DocumentType   *string `json:"document_type,omitempty"`
	Specialization *string `json:"specialization,omitempty"`
	Language       *string `json:"language,omitempty"`
	Location       *string `json:"location,omitempty"`
	TotalCopies    *int    `json:"total_copies,omitempty"`
	Status         *string `json:"status,omitempty"`
}

// ===== Responses =====

type BookResponse struct {
	BookULID        string    `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	ISBN            *string   `json:"isbn,omitempty"`
	Publisher       *string   `json:"publisher,omitempty"`
	PublishedYear   *int      `json:"published_year,omitempty"`
	Description     *string   `json:"description,omitempty"`
	CoverURL        *string   `json:"cover_url,omitempty"`
	DocumentType    string    `json:"document_type"`
	Specialization  string    `json:"specialization"`
	Language        *string   `json:"language,omitempty"`
	Location        string    `json:"location"`
	TotalCopies     int       `json:"total_copies"`
	AvailableCopies int       `json:"available_copies"`
	Status          string    `json:"status"`
	Available       bool      `json:"available"` // projection of copies + status, server-computed
	Rating          float64   `json:"rating"`
	ReviewCount     int       `json:"review_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type ListBooksResponse struct {
	Books []BookResponse `json:"books"`
	Total int64          `json:"total"`
}

func buildBookResponse(b *Book, rating float64, reviewCount int) BookResponse {
	resp := BookResponse{
		BookULID:        b.BookULID,
		Title:           b.Title,
		Author:          b.Author,
		DocumentType:    b.DocumentType,
		Specialization:  b.Specialization,
		Location:        b.Location,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
		Status:          b.Status,
		Available:       b.Borrowable(),
		Rating:          rating,
		ReviewCount:     reviewCount,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
	if b.ISBN.Valid {
		v := b.ISBN.String
		resp.ISBN = &v
	}
	if b.Publisher.Valid {
		v := b.Publisher.String
		resp.Publisher = &v
	}
	if b.PublishedYear.Valid {
		v := int(b.PublishedYear.Int64)
		resp.PublishedYear = &v
	}
	if b.Description.Valid {
		v := b.Description.String
		resp.Description = &v
	}
	if b.CoverURL.Valid {
		v := b.CoverURL.String
		resp.CoverURL = &v
	}
	if b.Language.Valid {
		v := b.Language.String
		resp.Language = &v
	}
	return resp
}
