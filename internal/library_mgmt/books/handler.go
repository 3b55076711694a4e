package books

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"biblio-backend/internal/platform/apierr"
)

type Handler struct{ svc *Service }

// RegisterRoutes mounts catalog reads on pub and admin mutations on adm.
func RegisterRoutes(pub gin.IRoutes, adm gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	pub.GET("/books", h.ListBooks)
	pub.GET("/books/:book_ulid", h.GetBook)

	adm.POST("/books", h.CreateBook)
	adm.PUT("/books/:book_ulid", h.UpdateBook)
	adm.DELETE("/books/:book_ulid", h.DeleteBook)
}

// CreateBook godoc
//
//	@Summary	Add a book to the catalog (admin)
//	@Tags		books
//	@Router		/books [post]
func (h *Handler) CreateBook(c *gin.Context) {
	var req CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}
	res, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.Header("Location", "/books/"+res.BookULID)
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) GetBook(c *gin.Context) {
	res, err := h.svc.Get(c.Request.Context(), c.Param("book_ulid"))
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListBooks(c *gin.Context) {
	f := ListFilter{Search: c.Query("search")}
	if v := c.Query("specialization"); v != "" {
		f.Specialization = &v
	}
	if v := c.Query("location"); v != "" {
		f.Location = &v
	}
	if v := c.Query("status"); v != "" {
		f.Status = &v
	}
	p := Page{
		Limit:  atoiDef(c.Query("limit"), 50),
		Offset: atoiDef(c.Query("offset"), 0),
		Order:  strings.ToLower(c.DefaultQuery("order", "desc")),
	}
	res, err := h.svc.List(c.Request.Context(), f, p)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) UpdateBook(c *gin.Context) {
	var req UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json"))
		return
	}
	res, err := h.svc.Update(c.Request.Context(), c.Param("book_ulid"), req)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) DeleteBook(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("book_ulid")); err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
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
