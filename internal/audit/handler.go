package audit

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docmanager/internal/errors"
	"docmanager/internal/middleware"
	"docmanager/internal/permission"
	"docmanager/internal/utils"
)

type Handler struct {
	recorder *Recorder
	engine   *permission.Engine
}

func NewHandler(recorder *Recorder, engine *permission.Engine) *Handler {
	return &Handler{recorder: recorder, engine: engine}
}

// List returns the tenant's audit trail, newest first. Admins only.
func (h *Handler) List(c *gin.Context) {
	tenant := middleware.TenantFromContext(c)
	userID, _ := c.Get("user_id")

	isAdmin, err := h.engine.IsTenantAdmin(c.Request.Context(), tenant, userID.(uint64))
	if err != nil {
		c.Error(err)
		return
	}
	if !isAdmin {
		c.Error(errors.Forbidden("Only tenant admins can view the audit trail", nil))
		return
	}

	page, pageSize := utils.GetPaginationParams(c)
	entries, err := h.recorder.ListForTenant(c.Request.Context(), tenant, page, pageSize)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entries})
}
