package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kinshiphq/backend/internal/database"
	"github.com/kinshiphq/backend/internal/logger"
	"github.com/kinshiphq/backend/internal/models"
	"github.com/kinshiphq/backend/internal/util"
	"gorm.io/gorm"
)

// commentEditWindow is how long an author may edit their comment
const commentEditWindow = 5 * time.Minute

// CreateComment creates a new comment on a post
// POST /api/v1/posts/:id/comments
func (h *Handlers) CreateComment(c *gin.Context) {
	postID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Content  string  `json:"content" binding:"required,min=1,max=2000"`
		ParentID *string `json:"parent_id,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	// Verify the post exists
	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	// If replying, the parent must exist on the same post and not be deleted
	var parentComment *models.Comment
	if req.ParentID != nil && *req.ParentID != "" {
		var parent models.Comment
		if err := database.DB.First(&parent, "id = ? AND post_id = ?", *req.ParentID, postID).Error; err != nil {
			util.RespondValidationError(c, "parent_id", "Parent comment not found")
			return
		}
		if parent.IsDeleted {
			util.RespondValidationError(c, "parent_id", "Cannot reply to a deleted comment")
			return
		}
		parentComment = &parent
	} else {
		req.ParentID = nil
	}

	comment := models.Comment{
		PostID:   postID,
		UserID:   userID,
		Content:  req.Content,
		ParentID: req.ParentID,
	}

	if err := database.DB.Create(&comment).Error; err != nil {
		util.RespondInternalError(c, "Failed to create comment")
		return
	}

	if err := database.DB.Model(&post).UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment comment count for post "+postID, err)
	}

	// Load the user for response
	if err := database.DB.Preload("User").First(&comment, "id = ?", comment.ID).Error; err != nil {
		logger.WarnWithFields("Failed to load comment with user for post "+postID, err)
	}

	// Notify the parent author on replies, the post owner otherwise
	if parentComment != nil {
		h.notifier.Notify(parentComment.UserID, userID, models.NotificationCommentReply, comment.ID, "replied to your comment")
	} else {
		h.notifier.Notify(post.UserID, userID, models.NotificationComment, comment.ID, "commented on your post")
	}

	c.JSON(http.StatusCreated, gin.H{
		"comment": comment,
	})
}

// GetPostComments retrieves a page of top-level comments for a post, each
// carrying its full nested reply subtree
// GET /api/v1/posts/:id/comments
func (h *Handlers) GetPostComments(c *gin.Context) {
	postID := c.Param("id")
	page, limit := util.ParsePagination(c)

	sortOrder := "created_at DESC"
	if c.DefaultQuery("sort", "newest") == "oldest" {
		sortOrder = "created_at ASC"
	}

	// Verify the post exists
	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	var topLevel []*models.Comment
	err := database.DB.
		Preload("User").
		Where("post_id = ? AND parent_id IS NULL AND is_deleted = false", postID).
		Order(sortOrder).
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&topLevel).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to get comments")
		return
	}

	var total int64
	if err := database.DB.Model(&models.Comment{}).
		Where("post_id = ? AND parent_id IS NULL AND is_deleted = false", postID).
		Count(&total).Error; err != nil {
		logger.WarnWithFields("Failed to count comments for post "+postID, err)
	}

	// Empty page: skip the reply query entirely
	if len(topLevel) > 0 {
		var replies []*models.Comment
		err = database.DB.
			Preload("User").
			Where("post_id = ? AND parent_id IS NOT NULL AND is_deleted = false", postID).
			Order("created_at ASC").
			Find(&replies).Error
		if err != nil {
			util.RespondInternalError(c, "Failed to get replies")
			return
		}

		relevant := collectRelevantReplies(topLevel, replies)
		buildReplyTree(topLevel, relevant)
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": topLevel,
		"meta": gin.H{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": util.TotalPages(total, limit),
		},
	})
}

// GetUserComments retrieves a user's comments with status and kind filters
// GET /api/v1/users/:id/comments
func (h *Handlers) GetUserComments(c *gin.Context) {
	targetUserID := c.Param("id")
	page, limit := util.ParsePagination(c)

	var user models.User
	if err := database.DB.First(&user, "id = ?", targetUserID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	status := c.DefaultQuery("status", "notDeleted")
	if status != "all" && status != "deleted" && status != "notDeleted" {
		util.RespondValidationError(c, "status", "status must be one of all, deleted, notDeleted")
		return
	}

	kind := c.DefaultQuery("kind", "all")
	if kind != "all" && kind != "comments" && kind != "replies" {
		util.RespondValidationError(c, "kind", "kind must be one of all, comments, replies")
		return
	}

	// Fresh chain per query; count and page share the same filters
	filter := func(db *gorm.DB) *gorm.DB {
		db = db.Where("user_id = ?", targetUserID)
		switch status {
		case "deleted":
			db = db.Where("is_deleted = true")
		case "notDeleted":
			db = db.Where("is_deleted = false")
		}
		switch kind {
		case "comments":
			db = db.Where("parent_id IS NULL")
		case "replies":
			db = db.Where("parent_id IS NOT NULL")
		}
		return db
	}

	sortColumn := "created_at"
	switch c.DefaultQuery("sort", "created_at") {
	case "created_at":
	case "thanks":
		sortColumn = "thanks_count"
	default:
		util.RespondValidationError(c, "sort", "sort must be one of created_at, thanks")
		return
	}

	order := "DESC"
	if c.DefaultQuery("order", "desc") == "asc" {
		order = "ASC"
	}

	var total int64
	if err := filter(database.DB.Model(&models.Comment{})).Count(&total).Error; err != nil {
		util.RespondInternalError(c, "Failed to count comments")
		return
	}

	var comments []*models.Comment
	err := filter(database.DB.Model(&models.Comment{})).
		Preload("User").
		Order(sortColumn + " " + order).
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&comments).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to get comments")
		return
	}

	// Partition the fetched page only; no extra query
	active := make([]*models.Comment, 0, len(comments))
	deleted := make([]*models.Comment, 0)
	for _, comment := range comments {
		if comment.IsDeleted {
			deleted = append(deleted, comment)
		} else {
			active = append(active, comment)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"active_comments":  active,
		"deleted_comments": deleted,
		"meta": gin.H{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": util.TotalPages(total, limit),
		},
	})
}

// UpdateComment updates a comment (only within 5 minutes of creation)
// PUT /api/v1/comments/:id
func (h *Handlers) UpdateComment(c *gin.Context) {
	commentID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required,min=1,max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var comment models.Comment
	if err := database.DB.First(&comment, "id = ?", commentID).Error; err != nil {
		util.RespondNotFound(c, "comment")
		return
	}

	// Check ownership
	if comment.UserID != userID {
		util.RespondForbidden(c, "You do not own this comment")
		return
	}

	if comment.IsDeleted {
		util.RespondValidationError(c, "comment", "Comment has been deleted")
		return
	}

	if time.Since(comment.CreatedAt) > commentEditWindow {
		util.RespondForbidden(c, "Comments can only be edited within 5 minutes of creation")
		return
	}

	now := time.Now()
	comment.Content = req.Content
	comment.IsEdited = true
	comment.EditedAt = &now

	if err := database.DB.Save(&comment).Error; err != nil {
		util.RespondInternalError(c, "Failed to update comment")
		return
	}

	if err := database.DB.Preload("User").First(&comment, "id = ?", comment.ID).Error; err != nil {
		logger.WarnWithFields("Failed to reload comment with user for ID "+comment.ID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"comment": comment,
	})
}

// DeleteComment soft-deletes a comment. The author, moderators, and admins
// may delete; the row stays until the retention sweep removes it.
// DELETE /api/v1/comments/:id
func (h *Handlers) DeleteComment(c *gin.Context) {
	commentID := c.Param("id")
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"max=500"`
	}
	// Body is optional on delete
	_ = c.ShouldBindJSON(&req)

	var comment models.Comment
	if err := database.DB.First(&comment, "id = ?", commentID).Error; err != nil {
		util.RespondNotFound(c, "comment")
		return
	}

	if comment.UserID != user.ID && !user.IsStaff() {
		util.RespondForbidden(c, "You do not own this comment")
		return
	}

	if comment.IsDeleted {
		util.RespondValidationError(c, "comment", "Comment has already been deleted")
		return
	}

	// Soft delete - keep the row for threading until the sweep
	now := time.Now()
	deletedBy := user.ID
	comment.IsDeleted = true
	comment.DeletedByID = &deletedBy
	comment.DeleteReason = req.Reason
	comment.SoftDeletedAt = &now

	if err := database.DB.Save(&comment).Error; err != nil {
		util.RespondInternalError(c, "Failed to delete comment")
		return
	}

	if err := database.DB.Model(&models.Post{}).
		Where("id = ? AND comment_count > 0", comment.PostID).
		UpdateColumn("comment_count", gorm.Expr("comment_count - 1")).Error; err != nil {
		logger.WarnWithFields("Failed to decrement comment count for post "+comment.PostID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "comment_deleted",
	})
}
