package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kinshiphq/backend/internal/database"
	"github.com/kinshiphq/backend/internal/models"
	"github.com/kinshiphq/backend/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// RatingTestSuite contains post and comment rating handler tests
type RatingTestSuite struct {
	suite.Suite
	db          *gorm.DB
	router      *gin.Engine
	handlers    *Handlers
	author      *models.User
	rater       *models.User
	testPost    *models.Post
	testComment *models.Comment
}

func (suite *RatingTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	database.DB = suite.db

	suite.handlers = NewHandlers(nil, notify.NewService(suite.db))

	gin.SetMode(gin.TestMode)
	suite.router = gin.New()

	api := suite.router.Group("/api/v1")
	authMiddleware := mockAuthMiddleware(suite.db)

	posts := api.Group("/posts")
	posts.Use(authMiddleware)
	posts.POST("/:id/rating", suite.handlers.RatePost)
	posts.GET("/:id/rating", suite.handlers.GetPostRating)

	comments := api.Group("/comments")
	comments.Use(authMiddleware)
	comments.POST("/:id/rating", suite.handlers.RateComment)
	comments.GET("/:id/rating", suite.handlers.GetCommentRating)

	suite.author = &models.User{
		Email:       "author@test.com",
		Username:    "author",
		DisplayName: "Author",
	}
	require.NoError(suite.T(), suite.db.Create(suite.author).Error)

	suite.rater = &models.User{
		Email:       "rater@test.com",
		Username:    "rater",
		DisplayName: "Rater",
	}
	require.NoError(suite.T(), suite.db.Create(suite.rater).Error)

	suite.testPost = &models.Post{
		UserID: suite.author.ID,
		Title:  "Rate me",
	}
	require.NoError(suite.T(), suite.db.Create(suite.testPost).Error)

	suite.testComment = &models.Comment{
		PostID:  suite.testPost.ID,
		UserID:  suite.author.ID,
		Content: "Rate this comment",
	}
	require.NoError(suite.T(), suite.db.Create(suite.testComment).Error)
}

func (suite *RatingTestSuite) rate(url string, value int, asUser string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]interface{}{"value": value})
	req, _ := http.NewRequest("POST", url, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", asUser)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

type rateResponse struct {
	Message         string `json:"message"`
	Action          string `json:"action"`
	PopularityScore int    `json:"popularity_score"`
	ThanksCount     int    `json:"thanks_count"`
}

func (suite *RatingTestSuite) decodeRate(w *httptest.ResponseRecorder) rateResponse {
	var resp rateResponse
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (suite *RatingTestSuite) postScore() int {
	var post models.Post
	suite.db.First(&post, "id = ?", suite.testPost.ID)
	return post.PopularityScore
}

func (suite *RatingTestSuite) thanksCount() int {
	var comment models.Comment
	suite.db.First(&comment, "id = ?", suite.testComment.ID)
	return comment.ThanksCount
}

func (suite *RatingTestSuite) TestRatePostCreate() {
	t := suite.T()

	w := suite.rate("/api/v1/posts/"+suite.testPost.ID+"/rating", 1, suite.rater.ID)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, suite.postScore())

	// The response carries the updated counter, no follow-up GET needed
	resp := suite.decodeRate(w)
	assert.Equal(t, "rating_added", resp.Message)
	assert.Equal(t, 1, resp.PopularityScore)

	var rating models.Rating
	err := suite.db.Where("post_id = ? AND user_id = ?", suite.testPost.ID, suite.rater.ID).First(&rating).Error
	require.NoError(t, err)
	assert.Equal(t, 1, rating.Value)
}

// Every post reaction counts as engagement, dislikes included
func (suite *RatingTestSuite) TestRatePostDislikeAlsoCounts() {
	t := suite.T()

	w := suite.rate("/api/v1/posts/"+suite.testPost.ID+"/rating", -1, suite.rater.ID)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, suite.postScore())
}

func (suite *RatingTestSuite) TestRatePostToggleOff() {
	t := suite.T()

	suite.rate("/api/v1/posts/"+suite.testPost.ID+"/rating", 1, suite.rater.ID)
	w := suite.rate("/api/v1/posts/"+suite.testPost.ID+"/rating", 1, suite.rater.ID)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, suite.postScore())

	resp := suite.decodeRate(w)
	assert.Equal(t, "rating_removed", resp.Message)
	assert.Equal(t, 0, resp.PopularityScore)

	var count int64
	suite.db.Model(&models.Rating{}).Where("post_id = ?", suite.testPost.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

// A flip applies newValue - oldValue, so the score swings by 2
func (suite *RatingTestSuite) TestRatePostFlipSwingsByTwo() {
	t := suite.T()

	suite.rate("/api/v1/posts/"+suite.testPost.ID+"/rating", -1, suite.rater.ID)
	before := suite.postScore()

	w := suite.rate("/api/v1/posts/"+suite.testPost.ID+"/rating", 1, suite.rater.ID)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, before+2, suite.postScore())

	resp := suite.decodeRate(w)
	assert.Equal(t, "rating_changed", resp.Message)
	assert.Equal(t, before+2, resp.PopularityScore)

	var rating models.Rating
	suite.db.Where("post_id = ? AND user_id = ?", suite.testPost.ID, suite.rater.ID).First(&rating)
	assert.Equal(t, 1, rating.Value)
}

// Posts have no self-rating restriction, unlike comments
func (suite *RatingTestSuite) TestRateOwnPostAllowed() {
	w := suite.rate("/api/v1/posts/"+suite.testPost.ID+"/rating", 1, suite.author.ID)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *RatingTestSuite) TestRatePostInvalidValue() {
	w := suite.rate("/api/v1/posts/"+suite.testPost.ID+"/rating", 5, suite.rater.ID)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *RatingTestSuite) TestGetPostRating() {
	t := suite.T()

	suite.rate("/api/v1/posts/"+suite.testPost.ID+"/rating", 1, suite.rater.ID)
	suite.rate("/api/v1/posts/"+suite.testPost.ID+"/rating", -1, suite.author.ID)

	req, _ := http.NewRequest("GET", "/api/v1/posts/"+suite.testPost.ID+"/rating", nil)
	req.Header.Set("X-User-ID", suite.rater.ID)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Likes     int64 `json:"likes"`
		Dislikes  int64 `json:"dislikes"`
		UserValue int   `json:"user_value"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, int64(1), response.Likes)
	assert.Equal(t, int64(1), response.Dislikes)
	assert.Equal(t, 1, response.UserValue)
}

func (suite *RatingTestSuite) TestRateCommentThanks() {
	t := suite.T()

	w := suite.rate("/api/v1/comments/"+suite.testComment.ID+"/rating", 1, suite.rater.ID)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, suite.thanksCount())

	resp := suite.decodeRate(w)
	assert.Equal(t, "rating_added", resp.Message)
	assert.Equal(t, 1, resp.ThanksCount)

	// The author gets a thanks notification
	var notifications []models.Notification
	suite.db.Where("user_id = ? AND type = ?", suite.author.ID, models.NotificationThanks).Find(&notifications)
	assert.Len(t, notifications, 1)
}

// Only +1 reactions feed the thanks counter
func (suite *RatingTestSuite) TestRateCommentDislikeDoesNotCount() {
	t := suite.T()

	w := suite.rate("/api/v1/comments/"+suite.testComment.ID+"/rating", -1, suite.rater.ID)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, suite.thanksCount())
	assert.Equal(t, 0, suite.decodeRate(w).ThanksCount)

	var count int64
	suite.db.Model(&models.CommentRating{}).Where("comment_id = ?", suite.testComment.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func (suite *RatingTestSuite) TestRateCommentFlipSwingsByOne() {
	t := suite.T()

	suite.rate("/api/v1/comments/"+suite.testComment.ID+"/rating", -1, suite.rater.ID)
	assert.Equal(t, 0, suite.thanksCount())

	suite.rate("/api/v1/comments/"+suite.testComment.ID+"/rating", 1, suite.rater.ID)
	assert.Equal(t, 1, suite.thanksCount())

	suite.rate("/api/v1/comments/"+suite.testComment.ID+"/rating", -1, suite.rater.ID)
	assert.Equal(t, 0, suite.thanksCount())
}

func (suite *RatingTestSuite) TestRateOwnCommentRejected() {
	w := suite.rate("/api/v1/comments/"+suite.testComment.ID+"/rating", 1, suite.author.ID)
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)
	assert.Equal(suite.T(), 0, suite.thanksCount())
}

func (suite *RatingTestSuite) TestRateDeletedCommentRejected() {
	suite.db.Model(suite.testComment).Update("is_deleted", true)

	w := suite.rate("/api/v1/comments/"+suite.testComment.ID+"/rating", 1, suite.rater.ID)
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)
}

// Dislike counts are private to the comment author and staff
func (suite *RatingTestSuite) TestGetCommentRatingDislikeVisibility() {
	t := suite.T()

	suite.rate("/api/v1/comments/"+suite.testComment.ID+"/rating", -1, suite.rater.ID)

	get := func(asUser string) map[string]interface{} {
		req, _ := http.NewRequest("GET", "/api/v1/comments/"+suite.testComment.ID+"/rating", nil)
		req.Header.Set("X-User-ID", asUser)
		w := httptest.NewRecorder()
		suite.router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		return response
	}

	// The rater is neither author nor staff: no dislikes key
	response := get(suite.rater.ID)
	_, ok := response["dislikes"]
	assert.False(t, ok)

	// The author sees dislikes
	response = get(suite.author.ID)
	assert.Equal(t, float64(1), response["dislikes"])

	// A moderator sees dislikes
	moderator := &models.User{
		Email:       "mod@test.com",
		Username:    "mod",
		DisplayName: "Mod",
		Role:        models.RoleModerator,
	}
	require.NoError(t, suite.db.Create(moderator).Error)
	response = get(moderator.ID)
	assert.Equal(t, float64(1), response["dislikes"])
}

func TestRatingTestSuite(t *testing.T) {
	suite.Run(t, new(RatingTestSuite))
}
