package loans

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"biblio-backend/internal/platform/apierr"
	"biblio-backend/internal/platform/auth"
)

type Handler struct{ svc *Service }

// RegisterRoutes mounts borrower routes on authed and staff routes on adm.
func RegisterRoutes(authed gin.IRoutes, adm gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	authed.POST("/loans", h.CreateLoan)
	authed.PUT("/loans/:loan_ulid/return", h.ReturnLoan)
	authed.GET("/loans/my", h.ListMyLoans)

	adm.GET("/loans", h.ListLoans)
	adm.POST("/loans/sweep-overdue", h.SweepOverdue)
}

// CreateLoan godoc
//
//	@Summary	Borrow a book
//	@Tags		loans
//	@Router		/loans [post]
func (h *Handler) CreateLoan(c *gin.Context) {
	var req CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json or missing book_id"))
		return
	}

	res, err := h.svc.CreateLoan(c.Request.Context(), auth.UserID(c), req)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.Header("Location", "/loans/"+res.LoanULID)
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) ReturnLoan(c *gin.Context) {
	res, err := h.svc.ReturnLoan(c.Request.Context(), auth.UserID(c), auth.IsAdmin(c), c.Param("loan_ulid"))
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListMyLoans(c *gin.Context) {
	res, err := h.svc.ListMine(c.Request.Context(), auth.UserID(c), pageFrom(c))
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListLoans(c *gin.Context) {
	f := LoanFilter{}
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

func (h *Handler) SweepOverdue(c *gin.Context) {
	res, err := h.svc.ReclassifyOverdue(c.Request.Context())
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
