package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docmanager/auth"
	"docmanager/internal/domain"
	"docmanager/internal/errors"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func (h *Handler) Register(c *gin.Context) {
	var form RegisterRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	u := &domain.User{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
	}
	if err := h.service.Register(c.Request.Context(), u); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, u.ToSafeUser())
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var form LoginRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	u, err := h.service.Login(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		c.Error(err)
		return
	}

	token, err := auth.GenerateJWT(u.ID, u.TokenVersion)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": u.ToSafeUser()})
}

func (h *Handler) Logout(c *gin.Context) {
	userID, _ := c.Get("user_id")
	if err := h.service.Logout(c.Request.Context(), userID.(uint64)); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetProfile(c *gin.Context) {
	userID, _ := c.Get("user_id")
	u, err := h.service.GetUserByID(c.Request.Context(), userID.(uint64))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, u.ToSafeUser())
}

// ListMemberships shows which tenants the caller may enter.
func (h *Handler) ListMemberships(c *gin.Context) {
	userID, _ := c.Get("user_id")
	memberships, err := h.service.Memberships(c.Request.Context(), userID.(uint64))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": memberships})
}
