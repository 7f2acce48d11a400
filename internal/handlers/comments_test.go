package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kinshiphq/backend/internal/database"
	"github.com/kinshiphq/backend/internal/models"
	"github.com/kinshiphq/backend/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// CommentTestSuite contains comment handler tests
type CommentTestSuite struct {
	suite.Suite
	db       *gorm.DB
	router   *gin.Engine
	handlers *Handlers
	testUser *models.User
	testPost *models.Post
}

func (suite *CommentTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	database.DB = suite.db

	suite.handlers = NewHandlers(nil, notify.NewService(suite.db))

	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.setupRoutes()

	suite.testUser = &models.User{
		Email:       "commenter@test.com",
		Username:    "testcommenter",
		DisplayName: "Test Commenter",
	}
	require.NoError(suite.T(), suite.db.Create(suite.testUser).Error)

	suite.testPost = &models.Post{
		UserID: suite.testUser.ID,
		Title:  "Test post",
	}
	require.NoError(suite.T(), suite.db.Create(suite.testPost).Error)
}

func (suite *CommentTestSuite) setupRoutes() {
	api := suite.router.Group("/api/v1")

	authMiddleware := mockAuthMiddleware(suite.db)

	posts := api.Group("/posts")
	posts.Use(authMiddleware)
	posts.POST("/:id/comments", suite.handlers.CreateComment)
	posts.GET("/:id/comments", suite.handlers.GetPostComments)

	comments := api.Group("/comments")
	comments.Use(authMiddleware)
	comments.PUT("/:id", suite.handlers.UpdateComment)
	comments.DELETE("/:id", suite.handlers.DeleteComment)

	users := api.Group("/users")
	users.Use(authMiddleware)
	users.GET("/:id/comments", suite.handlers.GetUserComments)
}

func (suite *CommentTestSuite) newUser(name string) *models.User {
	user := &models.User{
		Email:       fmt.Sprintf("%s@test.com", name),
		Username:    name,
		DisplayName: name,
	}
	require.NoError(suite.T(), suite.db.Create(user).Error)
	return user
}

func (suite *CommentTestSuite) newComment(userID string, parentID *string, content string) *models.Comment {
	comment := &models.Comment{
		PostID:   suite.testPost.ID,
		UserID:   userID,
		Content:  content,
		ParentID: parentID,
	}
	require.NoError(suite.T(), suite.db.Create(comment).Error)
	return comment
}

func (suite *CommentTestSuite) do(method, url string, body map[string]interface{}, asUser string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(suite.T(), json.NewEncoder(&buf).Encode(body))
	}
	req, _ := http.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", asUser)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *CommentTestSuite) TestCreateComment() {
	t := suite.T()

	w := suite.do("POST", "/api/v1/posts/"+suite.testPost.ID+"/comments",
		map[string]interface{}{"content": "First!"}, suite.testUser.ID)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)

	comment := response["comment"].(map[string]interface{})
	assert.Equal(t, "First!", comment["content"])
	assert.Equal(t, suite.testPost.ID, comment["post_id"])
	assert.Equal(t, suite.testUser.ID, comment["user_id"])

	var post models.Post
	suite.db.First(&post, "id = ?", suite.testPost.ID)
	assert.Equal(t, 1, post.CommentCount)
}

func (suite *CommentTestSuite) TestCreateCommentInvalidPost() {
	w := suite.do("POST", "/api/v1/posts/00000000-0000-0000-0000-000000000000/comments",
		map[string]interface{}{"content": "hello"}, suite.testUser.ID)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *CommentTestSuite) TestCreateReplyToDeletedParent() {
	t := suite.T()

	parent := suite.newComment(suite.testUser.ID, nil, "parent")
	now := time.Now()
	suite.db.Model(parent).Updates(map[string]interface{}{
		"is_deleted":      true,
		"soft_deleted_at": now,
	})

	w := suite.do("POST", "/api/v1/posts/"+suite.testPost.ID+"/comments",
		map[string]interface{}{"content": "reply", "parent_id": parent.ID}, suite.testUser.ID)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func (suite *CommentTestSuite) TestCreateReplyNotifiesParentAuthor() {
	t := suite.T()

	other := suite.newUser("parentauthor")
	parent := suite.newComment(other.ID, nil, "parent")

	w := suite.do("POST", "/api/v1/posts/"+suite.testPost.ID+"/comments",
		map[string]interface{}{"content": "reply", "parent_id": parent.ID}, suite.testUser.ID)
	require.Equal(t, http.StatusCreated, w.Code)

	var notifications []models.Notification
	suite.db.Where("user_id = ?", other.ID).Find(&notifications)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationCommentReply, notifications[0].Type)
	assert.Equal(t, suite.testUser.ID, notifications[0].ActorID)
}

// Builds the canonical thread shape: top-level A and F, where A has replies
// B and E, B has replies C and D, and F has reply G. The tree endpoint must
// reconstruct exactly that nesting.
func (suite *CommentTestSuite) TestGetPostCommentsTree() {
	t := suite.T()

	base := time.Now().Add(-time.Hour)
	mk := func(parentID *string, name string, offset time.Duration) *models.Comment {
		comment := &models.Comment{
			PostID:    suite.testPost.ID,
			UserID:    suite.testUser.ID,
			Content:   name,
			ParentID:  parentID,
			CreatedAt: base.Add(offset),
		}
		require.NoError(t, suite.db.Create(comment).Error)
		return comment
	}

	a := mk(nil, "A", 0)
	f := mk(nil, "F", 1*time.Minute)
	b := mk(&a.ID, "B", 2*time.Minute)
	mk(&a.ID, "E", 5*time.Minute)
	mk(&b.ID, "C", 3*time.Minute)
	mk(&b.ID, "D", 4*time.Minute)
	mk(&f.ID, "G", 6*time.Minute)

	w := suite.do("GET", "/api/v1/posts/"+suite.testPost.ID+"/comments?sort=oldest", nil, suite.testUser.ID)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Comments []*models.Comment `json:"comments"`
		Meta     struct {
			Page       int   `json:"page"`
			Limit      int   `json:"limit"`
			Total      int64 `json:"total"`
			TotalPages int   `json:"total_pages"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	// Only top-level comments counted
	assert.Equal(t, int64(2), response.Meta.Total)
	assert.Equal(t, 1, response.Meta.TotalPages)
	require.Len(t, response.Comments, 2)

	gotA := response.Comments[0]
	gotF := response.Comments[1]
	assert.Equal(t, "A", gotA.Content)
	assert.Equal(t, "F", gotF.Content)

	require.Len(t, gotA.Replies, 2)
	assert.Equal(t, "B", gotA.Replies[0].Content)
	assert.Equal(t, "E", gotA.Replies[1].Content)

	gotB := gotA.Replies[0]
	require.Len(t, gotB.Replies, 2)
	assert.Equal(t, "C", gotB.Replies[0].Content)
	assert.Equal(t, "D", gotB.Replies[1].Content)

	require.Len(t, gotF.Replies, 1)
	assert.Equal(t, "G", gotF.Replies[0].Content)
}

func (suite *CommentTestSuite) TestGetPostCommentsDeletedParentSeversSubtree() {
	t := suite.T()

	a := suite.newComment(suite.testUser.ID, nil, "A")
	b := suite.newComment(suite.testUser.ID, &a.ID, "B")
	suite.newComment(suite.testUser.ID, &b.ID, "C")

	now := time.Now()
	suite.db.Model(b).Updates(map[string]interface{}{
		"is_deleted":      true,
		"soft_deleted_at": now,
	})

	w := suite.do("GET", "/api/v1/posts/"+suite.testPost.ID+"/comments", nil, suite.testUser.ID)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Comments []*models.Comment `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Comments, 1)
	// B is deleted, so neither B nor its child C appear
	assert.Empty(t, response.Comments[0].Replies)
}

func (suite *CommentTestSuite) TestGetPostCommentsEmptyPage() {
	t := suite.T()

	w := suite.do("GET", "/api/v1/posts/"+suite.testPost.ID+"/comments?page=5", nil, suite.testUser.ID)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Comments []*models.Comment `json:"comments"`
		Meta     struct {
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Empty(t, response.Comments)
	assert.Equal(t, int64(0), response.Meta.Total)
}

func (suite *CommentTestSuite) TestGetUserCommentsPartition() {
	t := suite.T()

	active := suite.newComment(suite.testUser.ID, nil, "still here")
	removed := suite.newComment(suite.testUser.ID, nil, "gone")
	now := time.Now()
	suite.db.Model(removed).Updates(map[string]interface{}{
		"is_deleted":      true,
		"soft_deleted_at": now,
	})

	w := suite.do("GET", "/api/v1/users/"+suite.testUser.ID+"/comments?status=all", nil, suite.testUser.ID)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		ActiveComments  []*models.Comment `json:"active_comments"`
		DeletedComments []*models.Comment `json:"deleted_comments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	require.Len(t, response.ActiveComments, 1)
	require.Len(t, response.DeletedComments, 1)
	assert.Equal(t, active.ID, response.ActiveComments[0].ID)
	assert.Equal(t, removed.ID, response.DeletedComments[0].ID)
}

func (suite *CommentTestSuite) TestGetUserCommentsKindFilter() {
	t := suite.T()

	top := suite.newComment(suite.testUser.ID, nil, "top")
	suite.newComment(suite.testUser.ID, &top.ID, "reply")

	w := suite.do("GET", "/api/v1/users/"+suite.testUser.ID+"/comments?kind=replies", nil, suite.testUser.ID)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		ActiveComments []*models.Comment `json:"active_comments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.ActiveComments, 1)
	assert.NotNil(t, response.ActiveComments[0].ParentID)
}

// sort=thanks orders the page by the thanks counter instead of recency
func (suite *CommentTestSuite) TestGetUserCommentsSortByThanks() {
	t := suite.T()

	low := suite.newComment(suite.testUser.ID, nil, "low")
	high := suite.newComment(suite.testUser.ID, nil, "high")
	suite.db.Model(high).Update("thanks_count", 5)

	w := suite.do("GET", "/api/v1/users/"+suite.testUser.ID+"/comments?sort=thanks&order=desc", nil, suite.testUser.ID)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		ActiveComments []*models.Comment `json:"active_comments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.ActiveComments, 2)
	assert.Equal(t, high.ID, response.ActiveComments[0].ID)
	assert.Equal(t, low.ID, response.ActiveComments[1].ID)
}

func (suite *CommentTestSuite) TestGetUserCommentsInvalidSort() {
	w := suite.do("GET", "/api/v1/users/"+suite.testUser.ID+"/comments?sort=sideways", nil, suite.testUser.ID)
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)
}

func (suite *CommentTestSuite) TestUpdateComment() {
	t := suite.T()

	comment := suite.newComment(suite.testUser.ID, nil, "tpyo")

	w := suite.do("PUT", "/api/v1/comments/"+comment.ID,
		map[string]interface{}{"content": "typo"}, suite.testUser.ID)
	assert.Equal(t, http.StatusOK, w.Code)

	var updated models.Comment
	suite.db.First(&updated, "id = ?", comment.ID)
	assert.Equal(t, "typo", updated.Content)
	assert.True(t, updated.IsEdited)
	assert.NotNil(t, updated.EditedAt)
}

func (suite *CommentTestSuite) TestUpdateCommentNotOwner() {
	other := suite.newUser("someoneelse")
	comment := suite.newComment(suite.testUser.ID, nil, "mine")

	w := suite.do("PUT", "/api/v1/comments/"+comment.ID,
		map[string]interface{}{"content": "hijacked"}, other.ID)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

func (suite *CommentTestSuite) TestUpdateCommentExpiredWindow() {
	t := suite.T()

	comment := &models.Comment{
		PostID:    suite.testPost.ID,
		UserID:    suite.testUser.ID,
		Content:   "old",
		CreatedAt: time.Now().Add(-10 * time.Minute),
	}
	require.NoError(t, suite.db.Create(comment).Error)

	w := suite.do("PUT", "/api/v1/comments/"+comment.ID,
		map[string]interface{}{"content": "too late"}, suite.testUser.ID)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func (suite *CommentTestSuite) TestDeleteComment() {
	t := suite.T()

	comment := suite.newComment(suite.testUser.ID, nil, "bye")
	suite.db.Model(&models.Post{}).Where("id = ?", suite.testPost.ID).Update("comment_count", 1)

	w := suite.do("DELETE", "/api/v1/comments/"+comment.ID,
		map[string]interface{}{"reason": "cleanup"}, suite.testUser.ID)
	assert.Equal(t, http.StatusOK, w.Code)

	var deleted models.Comment
	suite.db.First(&deleted, "id = ?", comment.ID)
	assert.True(t, deleted.IsDeleted)
	assert.Equal(t, "cleanup", deleted.DeleteReason)
	require.NotNil(t, deleted.DeletedByID)
	assert.Equal(t, suite.testUser.ID, *deleted.DeletedByID)
	assert.NotNil(t, deleted.SoftDeletedAt)

	var post models.Post
	suite.db.First(&post, "id = ?", suite.testPost.ID)
	assert.Equal(t, 0, post.CommentCount)
}

func (suite *CommentTestSuite) TestDeleteCommentNotOwner() {
	other := suite.newUser("stranger")
	comment := suite.newComment(suite.testUser.ID, nil, "mine")

	w := suite.do("DELETE", "/api/v1/comments/"+comment.ID, nil, other.ID)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

func (suite *CommentTestSuite) TestDeleteCommentAsModerator() {
	t := suite.T()

	moderator := &models.User{
		Email:       "mod@test.com",
		Username:    "moderator",
		DisplayName: "Moderator",
		Role:        models.RoleModerator,
	}
	require.NoError(t, suite.db.Create(moderator).Error)

	comment := suite.newComment(suite.testUser.ID, nil, "against the rules")

	w := suite.do("DELETE", "/api/v1/comments/"+comment.ID,
		map[string]interface{}{"reason": "rule violation"}, moderator.ID)
	assert.Equal(t, http.StatusOK, w.Code)

	var deleted models.Comment
	suite.db.First(&deleted, "id = ?", comment.ID)
	assert.True(t, deleted.IsDeleted)
	require.NotNil(t, deleted.DeletedByID)
	assert.Equal(t, moderator.ID, *deleted.DeletedByID)
}

func TestCommentTestSuite(t *testing.T) {
	suite.Run(t, new(CommentTestSuite))
}
