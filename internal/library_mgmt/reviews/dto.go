package reviews

import "time"

type CreateReviewRequest struct {
	BookULID string  `json:"book_id" binding:"required"`
	LoanULID string  `json:"loan_id" binding:"required"`
	Rating   int     `json:"rating" binding:"required"`
	Comment  *string `json:"comment,omitempty"`
}

type UpdateReviewRequest struct {
	Rating  int     `json:"rating" binding:"required"`
	Comment *string `json:"comment,omitempty"`
}

type ReviewResponse struct {
	ReviewULID   string    `json:"id"`
	BookULID     string    `json:"book_id"`
	LoanULID     string    `json:"loan_id"`
	BorrowerID   string    `json:"borrower_id"`
	BorrowerName string    `json:"borrower_name,omitempty"`
	Rating       int       `json:"rating"`
	Comment      *string   `json:"comment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ListReviewsResponse struct {
	Reviews []ReviewResponse `json:"reviews"`
	Total   int64            `json:"total"`
}

func buildReviewResponse(r *reviewRow) ReviewResponse {
	resp := ReviewResponse{
		ReviewULID:   r.ReviewULID,
		BookULID:     r.BookULID,
		LoanULID:     r.LoanULID,
		BorrowerID:   r.BorrowerID,
		BorrowerName: r.BorrowerName,
		Rating:       r.Rating,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.Comment.Valid {
		v := r.Comment.String
		resp.Comment = &v
	}
	return resp
}
