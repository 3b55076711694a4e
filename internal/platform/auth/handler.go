package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct{ svc *Service }

// RegisterRoutes mounts the public auth endpoints; RegisterMeRoute mounts the
// token-protected ones (the caller wraps the group with RequireAuth).
func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &AuthHandler{svc: svc}
	r.POST("/auth/login", h.Login)
	r.POST("/auth/register", h.Register)
}

func RegisterMeRoute(r gin.IRoutes, svc *Service) {
	h := &AuthHandler{svc: svc}
	r.GET("/auth/me", h.Me)
	r.POST("/auth/logout", h.Logout)
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AccountDTO struct {
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	StudentNumber  string    `json:"student_id"`
	Specialization string    `json:"specialization"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}

func accountDTO(a *Account) AccountDTO {
	return AccountDTO{
		Email:          a.Email,
		Name:           a.Name,
		StudentNumber:  a.StudentNumber,
		Specialization: a.Specialization,
		Role:           a.Role,
		CreatedAt:      a.CreatedAt,
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	token, acct, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  accountDTO(acct),
	})
}

type RegisterRequest struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=8"`
	StudentNumber  string `json:"student_id" binding:"required"`
	Specialization string `json:"specialization" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	acct, err := h.svc.Register(c.Request.Context(), RegisterInput{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		StudentNumber:  req.StudentNumber,
		Specialization: req.Specialization,
	})
	if err != nil {
		if err == ErrAlreadyExists {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "register failed"})
		return
	}

	// issue a token right away so the frontend can skip a second login call
	token, _, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "register failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user":  accountDTO(acct),
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	acct, err := h.svc.Me(c.Request.Context(), UserID(c))
	if err != nil {
		if err == ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": accountDTO(acct)})
}

// Logout exists for frontend symmetry; tokens are stateless so there is
// nothing to invalidate server-side.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
