package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// 请求体：追加时间范围
type AddRangeRequest struct {
	TimeFrom  time.Time `json:"time_from" binding:"required"`
	TimeTo    time.Time `json:"time_to" binding:"required"`
	CreatedBy string    `json:"created_by" binding:"required"`
}

// POST /api/v1/tasks/:id/ranges
func (h *Handler) AddRange(c *gin.Context) {
	var req AddRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
		return
	}

	r, err := h.ranges.AddRange(c.Request.Context(), c.Param("id"), req.TimeFrom, req.TimeTo, req.CreatedBy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// GET /api/v1/tasks/:id/ranges
func (h *Handler) ListRanges(c *gin.Context) {
	ranges, err := h.ranges.ListRanges(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ranges": ranges, "count": len(ranges)})
}

// DELETE /api/v1/tasks/:id/ranges?from=&to=&mode=
func (h *Handler) DeleteRange(c *gin.Context) {
	from, err := parseTimeParam(c.Query("from"))
	if err != nil || from == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from is required (RFC3339)"})
		return
	}
	to, err := parseTimeParam(c.Query("to"))
	if err != nil || to == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to is required (RFC3339)"})
		return
	}

	mode := c.DefaultQuery("mode", "all")
	if err := h.ranges.DeleteRange(c.Request.Context(), c.Param("id"), *from, *to, mode); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
