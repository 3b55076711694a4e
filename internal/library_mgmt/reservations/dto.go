package reservations

import "time"

type CreateReservationRequest struct {
	BookULID string `json:"book_id" binding:"required"`
}

type ReservationResponse struct {
	ReservationULID string     `json:"id"`
	BookULID        string     `json:"book_id"`
	BookTitle       string     `json:"book_title"`
	BorrowerID      string     `json:"borrower_id"`
	BorrowerName    string     `json:"borrower_name,omitempty"`
	ReservationDate time.Time  `json:"reservation_date"`
	Status          string     `json:"status"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	FulfilledAt     *time.Time `json:"fulfilled_at,omitempty"`
	QueuePosition   int        `json:"queue_position,omitempty"` // 1-based, active only
}

type ListReservationsResponse struct {
	Reservations []ReservationResponse `json:"reservations"`
	Total        int64                 `json:"total"`
}

func buildReservationResponse(r *reservationRow) ReservationResponse {
	resp := ReservationResponse{
		ReservationULID: r.ReservationULID,
		BookULID:        r.BookULID,
		BookTitle:       r.BookTitle,
		BorrowerID:      r.BorrowerID,
		BorrowerName:    r.BorrowerName,
		ReservationDate: r.ReservationDate,
		Status:          r.Status,
		QueuePosition:   r.QueuePosition,
	}
	if r.CancelledAt.Valid {
		v := r.CancelledAt.Time
		resp.CancelledAt = &v
	}
	if r.FulfilledAt.Valid {
		v := r.FulfilledAt.Time
		resp.FulfilledAt = &v
	}
	return resp
}
