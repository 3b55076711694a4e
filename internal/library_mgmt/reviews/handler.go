package reviews

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"biblio-backend/internal/platform/apierr"
	"biblio-backend/internal/platform/auth"
)

type Handler struct{ svc *Service }

// RegisterRoutes mounts public reads on pub and borrower mutations on authed.
func RegisterRoutes(pub gin.IRoutes, authed gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	pub.GET("/books/:book_ulid/reviews", h.ListByBook)

	authed.POST("/reviews", h.CreateReview)
	authed.PUT("/reviews/:review_ulid", h.UpdateReview)
	authed.DELETE("/reviews/:review_ulid", h.DeleteReview)
	authed.GET("/reviews/loan/:loan_ulid", h.GetByLoan)
}

// CreateReview godoc
//
//	@Summary	Review a borrowed book
//	@Tags		reviews
//	@Router		/reviews [post]
func (h *Handler) CreateReview(c *gin.Context) {
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}

	res, err := h.svc.Create(c.Request.Context(), auth.UserID(c), req)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.Header("Location", "/reviews/"+res.ReviewULID)
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) UpdateReview(c *gin.Context) {
	var req UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json"))
		return
	}

	res, err := h.svc.Update(c.Request.Context(), auth.UserID(c), c.Param("review_ulid"), req)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) DeleteReview(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), auth.UserID(c), c.Param("review_ulid")); err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *Handler) GetByLoan(c *gin.Context) {
	res, err := h.svc.GetByLoan(c.Request.Context(), c.Param("loan_ulid"))
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListByBook(c *gin.Context) {
	p := Page{
		Limit:  atoiDef(c.Query("limit"), 50),
		Offset: atoiDef(c.Query("offset"), 0),
		Order:  strings.ToLower(c.DefaultQuery("order", "desc")),
	}
	res, err := h.svc.ListByBook(c.Request.Context(), c.Param("book_ulid"), p)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func atoiDef(s string, d int) int {
	if s == "" {
		return d
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}
