package folder

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docmanager/internal/domain"
	"docmanager/internal/errors"
	"docmanager/internal/middleware"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type CreateRequest struct {
	Name     string  `json:"name" binding:"required,min=1,max=255"`
	ParentID *uint64 `json:"parent_id"`
}

func (h *Handler) Create(c *gin.Context) {
	tenant := middleware.TenantFromContext(c)
	userID, _ := c.Get("user_id")

	var form CreateRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	f, err := h.service.Create(c.Request.Context(), tenant, userID.(uint64), form.Name, form.ParentID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, f)
}

func (h *Handler) Show(c *gin.Context) {
	tenant := middleware.TenantFromContext(c)
	userID, _ := c.Get("user_id")

	folderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	f, err := h.service.Get(c.Request.Context(), tenant, userID.(uint64), folderID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, f)
}

// List returns root folders, or the children of ?parent_id=.
func (h *Handler) List(c *gin.Context) {
	tenant := middleware.TenantFromContext(c)
	userID, _ := c.Get("user_id")

	var parentID *uint64
	if raw := c.Query("parent_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.Error(errors.NewValidationError(err))
			return
		}
		parentID = &id
	}

	folders, err := h.service.ListChildren(c.Request.Context(), tenant, userID.(uint64), parentID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": folders})
}

type MoveRequest struct {
	ParentID *uint64 `json:"parent_id"`
}

func (h *Handler) Move(c *gin.Context) {
	tenant := middleware.TenantFromContext(c)
	userID, _ := c.Get("user_id")

	folderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	var form MoveRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	if err := h.service.Move(c.Request.Context(), tenant, userID.(uint64), folderID, form.ParentID); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) Delete(c *gin.Context) {
	tenant := middleware.TenantFromContext(c)
	userID, _ := c.Get("user_id")

	folderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	if err := h.service.Delete(c.Request.Context(), tenant, userID.(uint64), folderID, c.ClientIP()); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

type GrantRequest struct {
	UserID     *uint64 `json:"user_id"`
	GroupID    *uint64 `json:"group_id"`
	Permission string  `json:"permission" binding:"required"`
}

func (h *Handler) Grant(c *gin.Context) {
	tenant := middleware.TenantFromContext(c)
	userID, _ := c.Get("user_id")

	folderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	var form GrantRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	acl := &domain.FolderACL{
		FolderID:   folderID,
		UserID:     form.UserID,
		GroupID:    form.GroupID,
		Permission: domain.FolderAction(form.Permission),
	}
	if err := h.service.Grant(c.Request.Context(), tenant, userID.(uint64), acl); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, acl)
}

func (h *Handler) ListACLs(c *gin.Context) {
	tenant := middleware.TenantFromContext(c)
	userID, _ := c.Get("user_id")

	folderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	acls, err := h.service.ListACLs(c.Request.Context(), tenant, userID.(uint64), folderID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": acls})
}

func (h *Handler) Revoke(c *gin.Context) {
	tenant := middleware.TenantFromContext(c)
	userID, _ := c.Get("user_id")

	folderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}
	aclID, err := strconv.ParseUint(c.Param("aclId"), 10, 64)
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	if err := h.service.Revoke(c.Request.Context(), tenant, userID.(uint64), folderID, aclID); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
