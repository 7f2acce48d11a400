package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/kinshiphq/backend/internal/database"
	"github.com/kinshiphq/backend/internal/models"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var (
	seedUsers int
	seedPosts int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the development database with realistic data",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeed()
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedUsers, "users", 25, "Number of users to create")
	seedCmd.Flags().IntVar(&seedPosts, "posts", 50, "Number of posts to create")
}

func runSeed() error {
	log.Println("🌱 Seeding development database...")

	if err := database.Migrate(); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	hashStr := string(hash)

	users := make([]models.User, 0, seedUsers)
	for i := 0; i < seedUsers; i++ {
		username := strings.ToLower(gofakeit.Username())
		user := models.User{
			Email:        fmt.Sprintf("%s%d@%s", username, i, gofakeit.DomainName()),
			Username:     fmt.Sprintf("%s%d", username, i),
			DisplayName:  gofakeit.Name(),
			Bio:          gofakeit.Sentence(12),
			PasswordHash: &hashStr,
		}
		if err := database.DB.Create(&user).Error; err != nil {
			log.Printf("  ⚠️ failed to create user, skipping: %v", err)
			continue
		}
		users = append(users, user)
	}
	log.Printf("✅ Created %d users", len(users))

	if len(users) == 0 {
		return fmt.Errorf("no users created, cannot seed posts")
	}

	posts := make([]models.Post, 0, seedPosts)
	for i := 0; i < seedPosts; i++ {
		author := users[gofakeit.Number(0, len(users)-1)]
		post := models.Post{
			UserID:  author.ID,
			Title:   gofakeit.Sentence(6),
			Content: gofakeit.Paragraph(2, 4, 12, " "),
		}
		if err := database.DB.Create(&post).Error; err != nil {
			log.Printf("  ⚠️ failed to create post, skipping: %v", err)
			continue
		}
		posts = append(posts, post)
	}
	log.Printf("✅ Created %d posts", len(posts))

	// Threaded comments: a few top-level comments per post, each with a
	// chance of nested replies
	commentCount := 0
	for _, post := range posts {
		var parents []string
		for i := 0; i < gofakeit.Number(0, 4); i++ {
			author := users[gofakeit.Number(0, len(users)-1)]
			comment := models.Comment{
				PostID:  post.ID,
				UserID:  author.ID,
				Content: gofakeit.Sentence(10),
			}
			if err := database.DB.Create(&comment).Error; err != nil {
				continue
			}
			commentCount++
			parents = append(parents, comment.ID)
		}

		for depth := 0; depth < 3 && len(parents) > 0; depth++ {
			var next []string
			for _, parentID := range parents {
				if gofakeit.Bool() {
					continue
				}
				author := users[gofakeit.Number(0, len(users)-1)]
				pid := parentID
				reply := models.Comment{
					PostID:   post.ID,
					UserID:   author.ID,
					Content:  gofakeit.Sentence(8),
					ParentID: &pid,
				}
				if err := database.DB.Create(&reply).Error; err != nil {
					continue
				}
				commentCount++
				next = append(next, reply.ID)
			}
			parents = next
		}

		database.DB.Model(&models.Post{}).Where("id = ?", post.ID).
			Update("comment_count", database.DB.Model(&models.Comment{}).
				Select("COUNT(*)").Where("post_id = ? AND is_deleted = false", post.ID))
	}
	log.Printf("✅ Created %d comments", commentCount)

	// Friendships between random pairs
	friendships := 0
	for i := 0; i < len(users); i++ {
		j := gofakeit.Number(0, len(users)-1)
		if i == j {
			continue
		}
		friendship := models.Friendship{
			InitiatorID: users[i].ID,
			ReceiverID:  users[j].ID,
		}
		if err := database.DB.Create(&friendship).Error; err != nil {
			continue
		}
		friendships++
	}
	log.Printf("✅ Created %d friendships", friendships)

	log.Println("🌱 Seed complete")
	return nil
}
