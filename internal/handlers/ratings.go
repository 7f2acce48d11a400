package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kinshiphq/backend/internal/database"
	"github.com/kinshiphq/backend/internal/middleware"
	"github.com/kinshiphq/backend/internal/models"
	"github.com/kinshiphq/backend/internal/util"
	"gorm.io/gorm"
)

type ratingRequest struct {
	Value int `json:"value" binding:"required,oneof=1 -1"`
}

// RatePost sets, toggles, or switches the caller's reaction on a post
// POST /api/v1/posts/:id/rating
func (h *Handlers) RatePost(c *gin.Context) {
	postID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req ratingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	var action reactionAction
	var score int
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.Rating
		var existingValue *int
		err := tx.Where("post_id = ? AND user_id = ?", postID, userID).First(&existing).Error
		if err == nil {
			existingValue = &existing.Value
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var delta int
		action, delta = resolveReaction(popularityPolicy, existingValue, req.Value)

		switch action {
		case reactionCreated:
			rating := models.Rating{PostID: postID, UserID: userID, Value: req.Value}
			if err := tx.Create(&rating).Error; err != nil {
				return err
			}
		case reactionRemoved:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		case reactionSwitched:
			if err := tx.Model(&existing).Update("value", req.Value).Error; err != nil {
				return err
			}
		}

		if delta != 0 {
			if err := tx.Model(&models.Post{}).Where("id = ?", postID).
				UpdateColumn("popularity_score", gorm.Expr("popularity_score + ?", delta)).Error; err != nil {
				return err
			}
		}

		// Read the counter back inside the transaction so the response
		// reflects exactly the state this request produced
		return tx.Model(&models.Post{}).Where("id = ?", postID).
			Select("popularity_score").Scan(&score).Error
	})
	if err != nil {
		util.RespondInternalError(c, "Failed to apply rating")
		return
	}

	middleware.RecordReaction("post", string(action))

	c.JSON(http.StatusOK, gin.H{
		"message":          reactionMessage(action),
		"action":           string(action),
		"popularity_score": score,
	})
}

// GetPostRating returns like/dislike counts and the caller's own value
// GET /api/v1/posts/:id/rating
func (h *Handlers) GetPostRating(c *gin.Context) {
	postID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	var likes, dislikes int64
	database.DB.Model(&models.Rating{}).Where("post_id = ? AND value = 1", postID).Count(&likes)
	database.DB.Model(&models.Rating{}).Where("post_id = ? AND value = -1", postID).Count(&dislikes)

	userValue := 0
	var own models.Rating
	if err := database.DB.Where("post_id = ? AND user_id = ?", postID, userID).First(&own).Error; err == nil {
		userValue = own.Value
	}

	c.JSON(http.StatusOK, gin.H{
		"likes":      likes,
		"dislikes":   dislikes,
		"user_value": userValue,
	})
}

// RateComment sets, toggles, or switches the caller's reaction on a comment.
// Authors cannot rate their own comments.
// POST /api/v1/comments/:id/rating
func (h *Handlers) RateComment(c *gin.Context) {
	commentID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req ratingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var comment models.Comment
	if err := database.DB.First(&comment, "id = ?", commentID).Error; err != nil {
		util.RespondNotFound(c, "comment")
		return
	}

	if comment.IsDeleted {
		util.RespondValidationError(c, "comment", "Comment has been deleted")
		return
	}

	if comment.UserID == userID {
		util.RespondValidationError(c, "comment", "You cannot rate your own comment")
		return
	}

	var action reactionAction
	var thanks int
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.CommentRating
		var existingValue *int
		err := tx.Where("comment_id = ? AND user_id = ?", commentID, userID).First(&existing).Error
		if err == nil {
			existingValue = &existing.Value
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var delta int
		action, delta = resolveReaction(thanksPolicy, existingValue, req.Value)

		switch action {
		case reactionCreated:
			rating := models.CommentRating{CommentID: commentID, UserID: userID, Value: req.Value}
			if err := tx.Create(&rating).Error; err != nil {
				return err
			}
		case reactionRemoved:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		case reactionSwitched:
			if err := tx.Model(&existing).Update("value", req.Value).Error; err != nil {
				return err
			}
		}

		if delta != 0 {
			if err := tx.Model(&models.Comment{}).Where("id = ?", commentID).
				UpdateColumn("thanks_count", gorm.Expr("thanks_count + ?", delta)).Error; err != nil {
				return err
			}
		}

		return tx.Model(&models.Comment{}).Where("id = ?", commentID).
			Select("thanks_count").Scan(&thanks).Error
	})
	if err != nil {
		util.RespondInternalError(c, "Failed to apply rating")
		return
	}

	middleware.RecordReaction("comment", string(action))

	// Thank the author when a +1 lands
	if req.Value == 1 && (action == reactionCreated || action == reactionSwitched) {
		h.notifier.Notify(comment.UserID, userID, models.NotificationThanks, comment.ID, "thanked your comment")
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      reactionMessage(action),
		"action":       string(action),
		"thanks_count": thanks,
	})
}

// GetCommentRating returns like counts for a comment. Dislike counts are
// visible only to the comment author, moderators, and admins.
// GET /api/v1/comments/:id/rating
func (h *Handlers) GetCommentRating(c *gin.Context) {
	commentID := c.Param("id")
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var comment models.Comment
	if err := database.DB.First(&comment, "id = ?", commentID).Error; err != nil {
		util.RespondNotFound(c, "comment")
		return
	}

	var likes int64
	database.DB.Model(&models.CommentRating{}).Where("comment_id = ? AND value = 1", commentID).Count(&likes)

	userValue := 0
	var own models.CommentRating
	if err := database.DB.Where("comment_id = ? AND user_id = ?", commentID, user.ID).First(&own).Error; err == nil {
		userValue = own.Value
	}

	resp := gin.H{
		"likes":      likes,
		"user_value": userValue,
	}

	if comment.UserID == user.ID || user.IsStaff() {
		var dislikes int64
		database.DB.Model(&models.CommentRating{}).Where("comment_id = ? AND value = -1", commentID).Count(&dislikes)
		resp["dislikes"] = dislikes
	}

	c.JSON(http.StatusOK, resp)
}
