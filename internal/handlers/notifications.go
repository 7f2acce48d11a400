package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kinshiphq/backend/internal/database"
	"github.com/kinshiphq/backend/internal/models"
	"github.com/kinshiphq/backend/internal/util"
	"gorm.io/gorm"
)

// GetNotifications lists the caller's notifications, newest first
// GET /api/v1/notifications
func (h *Handlers) GetNotifications(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	page, limit := util.ParsePagination(c)

	unreadOnly := c.Query("unread") == "true"
	filter := func(db *gorm.DB) *gorm.DB {
		db = db.Where("user_id = ?", userID)
		if unreadOnly {
			db = db.Where("is_read = false")
		}
		return db
	}

	var total int64
	if err := filter(database.DB.Model(&models.Notification{})).Count(&total).Error; err != nil {
		util.RespondInternalError(c, "Failed to count notifications")
		return
	}

	var notifications []models.Notification
	err := filter(database.DB.Model(&models.Notification{})).
		Preload("Actor").
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&notifications).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to get notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"meta": gin.H{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": util.TotalPages(total, limit),
		},
	})
}

// MarkNotificationsRead marks the given notifications (or all) as read
// POST /api/v1/notifications/read
func (h *Handlers) MarkNotificationsRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		IDs []string `json:"ids"`
	}
	_ = c.ShouldBindJSON(&req)

	query := database.DB.Model(&models.Notification{}).Where("user_id = ? AND is_read = false", userID)
	if len(req.IDs) > 0 {
		query = query.Where("id IN ?", req.IDs)
	}

	result := query.Update("is_read", true)
	if result.Error != nil {
		util.RespondInternalError(c, "Failed to mark notifications read")
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": result.RowsAffected})
}
