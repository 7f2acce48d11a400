package main

import (
	"log"
	"time"

	"github.com/kinshiphq/backend/internal/database"
	"github.com/kinshiphq/backend/internal/models"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const (
	// Soft-deleted comments are kept this long before hard deletion
	commentGracePeriod = 30 * 24 * time.Hour
	// Read notifications are purged after this long
	notificationRetention = 90 * 24 * time.Hour
)

var sweepDryRun bool

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the retention sweep",
	Long: `Hard-deletes comments that were soft-deleted more than 30 days ago
(together with their ratings) and purges read notifications older than
90 days. Individual item failures are logged and skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSweep()
	},
}

func init() {
	sweepCmd.Flags().BoolVar(&sweepDryRun, "dry-run", false, "Report what would be deleted without deleting")
}

func runSweep() error {
	log.Println("🧹 Running retention sweep")

	commentCutoff := time.Now().Add(-commentGracePeriod)

	var expired []models.Comment
	err := database.DB.
		Where("is_deleted = true AND soft_deleted_at IS NOT NULL AND soft_deleted_at < ?", commentCutoff).
		Find(&expired).Error
	if err != nil {
		return err
	}

	log.Printf("Found %d comments past the %s grace period", len(expired), commentGracePeriod)

	removed := 0
	for _, comment := range expired {
		if sweepDryRun {
			log.Printf("  would delete comment %s (soft-deleted %s)", comment.ID, comment.SoftDeletedAt.Format(time.RFC3339))
			continue
		}

		// Each comment in its own transaction so one failure skips only
		// that comment
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("comment_id = ?", comment.ID).Delete(&models.CommentRating{}).Error; err != nil {
				return err
			}
			return tx.Unscoped().Delete(&models.Comment{}, "id = ?", comment.ID).Error
		})
		if err != nil {
			log.Printf("  ⚠️ failed to delete comment %s, skipping: %v", comment.ID, err)
			continue
		}
		removed++
	}

	if !sweepDryRun {
		log.Printf("✅ Hard-deleted %d comments", removed)
	}

	notificationCutoff := time.Now().Add(-notificationRetention)
	if sweepDryRun {
		var count int64
		database.DB.Model(&models.Notification{}).
			Where("is_read = true AND created_at < ?", notificationCutoff).
			Count(&count)
		log.Printf("  would purge %d read notifications", count)
		return nil
	}

	result := database.DB.
		Where("is_read = true AND created_at < ?", notificationCutoff).
		Delete(&models.Notification{})
	if result.Error != nil {
		log.Printf("⚠️ failed to purge notifications: %v", result.Error)
	} else {
		log.Printf("✅ Purged %d read notifications", result.RowsAffected)
	}

	return nil
}
