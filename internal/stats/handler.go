package stats

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"biblio-backend/internal/platform/apierr"
)

type Handler struct{ svc *Service }

// RegisterRoutes mounts the admin dashboard endpoint.
func RegisterRoutes(adm gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	adm.GET("/stats/dashboard", h.Dashboard)
}

func (h *Handler) Dashboard(c *gin.Context) {
	limit := 5
	if v := c.Query("top"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	res, err := h.svc.Dashboard(c.Request.Context(), limit)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}
