package reservations

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"biblio-backend/internal/platform/apierr"
	"biblio-backend/internal/platform/auth"
)

type Handler struct{ svc *Service }

func RegisterRoutes(authed gin.IRoutes, adm gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	authed.POST("/reservations", h.CreateReservation)
	authed.GET("/reservations", h.ListMyReservations)
	authed.DELETE("/reservations/:reservation_ulid", h.CancelReservation)

	adm.GET("/reservations/admin/all", h.ListAllReservations)
	adm.GET("/books/:book_ulid/queue", h.ListQueueForBook)
}

// CreateReservation godoc
//
//	@Summary	Reserve a book that has no free copies
//	@Tags		reservations
//	@Router		/reservations [post]
func (h *Handler) CreateReservation(c *gin.Context) {
	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json or missing book_id"))
		return
	}

	res, err := h.svc.Create(c.Request.Context(), auth.UserID(c), req)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.Header("Location", "/reservations/"+res.ReservationULID)
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) CancelReservation(c *gin.Context) {
	err := h.svc.Cancel(c.Request.Context(), auth.UserID(c), auth.IsAdmin(c), c.Param("reservation_ulid"))
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cancelled"})
}

func (h *Handler) ListMyReservations(c *gin.Context) {
	res, err := h.svc.ListMine(c.Request.Context(), auth.UserID(c), pageFrom(c))
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListAllReservations(c *gin.Context) {
	f := ReservationFilter{}
	if v := c.Query("status"); v != "" {
		f.Status = &v
	}
	if v := c.Query("borrower_id"); v != "" {
		f.BorrowerID = &v
	}
	if v := c.Query("book_id"); v != "" {
		f.BookULID = &v
	}
	res, err := h.svc.ListAll(c.Request.Context(), f, pageFrom(c))
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListQueueForBook(c *gin.Context) {
	res, err := h.svc.ListActiveForBook(c.Request.Context(), c.Param("book_ulid"), pageFrom(c))
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func pageFrom(c *gin.Context) Page {
	return Page{
		Limit:  atoiDef(c.Query("limit"), 50),
		Offset: atoiDef(c.Query("offset"), 0),
		Order:  strings.ToLower(c.DefaultQuery("order", "desc")),
	}
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
