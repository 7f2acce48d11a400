package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kinshiphq/backend/internal/logger"
	"github.com/kinshiphq/backend/internal/metrics"
	"github.com/kinshiphq/backend/internal/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory sqlite database with the full schema.
// A single connection keeps the in-memory database alive for the test.
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Rating{},
		&models.CommentRating{},
		&models.FriendRequest{},
		&models.Friendship{},
		&models.Notification{},
	)
	require.NoError(t, err)

	// Handlers log through the globals; keep them quiet in tests
	logger.Log = zap.NewNop()
	logger.SugaredLog = logger.Log.Sugar()
	metrics.Initialize()

	return db
}

// mockAuthMiddleware authenticates from the X-User-ID header, loading the
// user row so role checks behave like the real middleware
func mockAuthMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		var user models.User
		if err := db.First(&user, "id = ?", userID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Set("user", &user)
		c.Set("user_id", user.ID)
		c.Next()
	}
}
