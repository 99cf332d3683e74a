package admin

import (
	"fmt"
	"net/http"

	"github.com/verso-store/internal/authz"
	"github.com/verso-store/internal/service"

	"github.com/gin-gonic/gin"
)

// ExportData 导出订单、商品或客户数据，仅管理员与经理可用
func (h *Handler) ExportData(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	if !authz.CanExportData(actor) {
		respondServiceError(c, service.ErrPermissionDenied, "")
		return
	}

	file, err := h.ExportService.Build(c.Param("kind"), c.Query("format"))
	if err != nil {
		respondServiceError(c, err, "导出失败")
		return
	}

	c.Header("Content-Type", file.ContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Status(http.StatusOK)
	if err := file.Write(c.Writer); err != nil {
		// 响应头已写出，只能记录
		requestLog(c).Errorw("admin_export_write_failed", "kind", c.Param("kind"), "error", err)
		return
	}
	requestLog(c).Infow("admin_export_done", "actor_id", actor.ID, "kind", c.Param("kind"), "format", file.Format, "rows", len(file.Table.Rows))
}
