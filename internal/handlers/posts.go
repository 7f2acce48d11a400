package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kinshiphq/backend/internal/database"
	"github.com/kinshiphq/backend/internal/models"
	"github.com/kinshiphq/backend/internal/util"
)

// CreatePost creates a new post
// POST /api/v1/posts
func (h *Handlers) CreatePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Title   string `json:"title" binding:"required,min=1,max=200"`
		Content string `json:"content" binding:"max=10000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	post := models.Post{
		UserID:  userID,
		Title:   req.Title,
		Content: req.Content,
	}

	if err := database.DB.Create(&post).Error; err != nil {
		util.RespondInternalError(c, "Failed to create post")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// GetPost returns a single post
// GET /api/v1/posts/:id
func (h *Handlers) GetPost(c *gin.Context) {
	postID := c.Param("id")

	var post models.Post
	if err := database.DB.Preload("User").First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": post})
}
