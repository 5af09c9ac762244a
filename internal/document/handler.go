package document

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docmanager/internal/domain"
	"docmanager/internal/errors"
	"docmanager/internal/middleware"
	"docmanager/internal/utils"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Upload accepts a multipart form: file plus title/description/tags
// and an optional folder_id.
func (h *Handler) Upload(c *gin.Context) {
	tenant := middleware.TenantFromContext(c)
	userID, _ := c.Get("user_id")

	file, err := c.FormFile("file")
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	title := c.PostForm("title")
	if title == "" {
		title = file.Filename
	}

	var folderID *uint64
	if raw := c.PostForm("folder_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.Error(errors.NewValidationError(err))
			return
		}
		folderID = &id
	}

	src, err := file.Open()
	if err != nil {
		c.Error(err)
		return
	}
	defer src.Close()

	doc, err := h.service.Upload(c.Request.Context(), tenant, userID.(uint64), UploadInput{
		Title:       title,
		Description: c.PostForm("description"),
		Tags:        c.PostForm("tags"),
		Filename:    file.Filename,
		Size:        file.Size,
		Content:     src,
		FolderID:    folderID,
		ClientIP:    c.ClientIP(),
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, doc)
}

func (h *Handler) List(c *gin.Context) {
	tenant := middleware.TenantFromContext(c)
	userID, _ := c.Get("user_id")

	page, pageSize := utils.GetPaginationParams(c)
	result, err := h.service.List(
		c.Request.Context(),
		tenant,
		userID.(uint64),
		c.Query("query"),
		c.Query("tags"),
		page,
		pageSize,
	)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) Show(c *gin.Context) {
	tenant := middleware.TenantFromContext(c)
	userID, _ := c.Get("user_id")

	docID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	detail, err := h.service.Get(c.Request.Context(), tenant, userID.(uint64), docID, c.ClientIP())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

func (h *Handler) Download(c *gin.Context) {
	tenant := middleware.TenantFromContext(c)
	userID, _ := c.Get("user_id")

	docID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	doc, stream, err := h.service.Download(c.Request.Context(), tenant, userID.(uint64), docID, c.ClientIP())
	if err != nil {
		c.Error(err)
		return
	}
	defer stream.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.OriginalFilename))
	c.DataFromReader(http.StatusOK, doc.StoredFile.ByteSize, doc.StoredFile.MimeType, stream, nil)
}

type UpdateMetaRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=255"`
	Description string `json:"description" binding:"max=2000"`
	Tags        string `json:"tags" binding:"max=500"`
}

func (h *Handler) Update(c *gin.Context) {
	tenant := middleware.TenantFromContext(c)
	userID, _ := c.Get("user_id")

	docID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	var form UpdateMetaRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	doc, err := h.service.UpdateMeta(
		c.Request.Context(), tenant, userID.(uint64), docID,
		form.Title, form.Description, form.Tags, c.ClientIP(),
	)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

func (h *Handler) Delete(c *gin.Context) {
	tenant := middleware.TenantFromContext(c)
	userID, _ := c.Get("user_id")

	docID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	if err := h.service.Delete(c.Request.Context(), tenant, userID.(uint64), docID, c.ClientIP()); err != nil {
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

	docID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	var form GrantRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	acl := &domain.ACL{
		DocumentID: docID,
		UserID:     form.UserID,
		GroupID:    form.GroupID,
		Permission: domain.DocumentAction(form.Permission),
	}
	if err := h.service.Grant(c.Request.Context(), tenant, userID.(uint64), acl); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, acl)
}

func (h *Handler) Revoke(c *gin.Context) {
	tenant := middleware.TenantFromContext(c)
	userID, _ := c.Get("user_id")

	docID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}
	aclID, err := strconv.ParseUint(c.Param("aclId"), 10, 64)
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	if err := h.service.Revoke(c.Request.Context(), tenant, userID.(uint64), docID, aclID); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
