package stats

import (
	"context"
	"database/sql"
)

type Service struct {
	db    *sql.DB
	store *Store
}

func NewService(db *sql.DB) *Service { return &Service{db: db, store: NewStore(db)} }

type TopBookDTO struct {
	BookULID  string `json:"book_id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	LoanCount int64  `json:"loan_count"`
}

type DashboardResponse struct {
	TotalBooks         int64        `json:"total_books"`
	TotalCopies        int64        `json:"total_copies"`
	AvailableCopies    int64        `json:"available_copies"`
	ActiveLoans        int64        `json:"active_loans"`
	OverdueLoans       int64        `json:"overdue_loans"`
	ActiveReservations int64        `json:"active_reservations"`
	RegisteredStudents int64        `json:"registered_students"`
	TopBooks           []TopBookDTO `json:"top_books"`
}

func (s *Service) Dashboard(ctx context.Context, topLimit int) (DashboardResponse, error) {
	c, err := s.store.Counters(ctx)
	if err != nil {
		return DashboardResponse{}, err
	}
	top, err := s.store.TopBorrowed(ctx, topLimit)
	if err != nil {
		return DashboardResponse{}, err
	}

	resp := DashboardResponse{
		TotalBooks:         c.TotalBooks,
		TotalCopies:        c.TotalCopies,
		AvailableCopies:    c.AvailableCopies,
		ActiveLoans:        c.ActiveLoans,
		OverdueLoans:       c.OverdueLoans,
		ActiveReservations: c.ActiveReservations,
		RegisteredStudents: c.RegisteredStudents,
		TopBooks:           make([]TopBookDTO, 0, len(top)),
	}
	for _, t := range top {
		resp.TopBooks = append(resp.TopBooks, TopBookDTO(t))
	}
	return resp, nil
}
