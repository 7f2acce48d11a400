package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRole controls moderation capabilities
type UserRole string

const (
	RoleUser      UserRole = "user"
	RoleModerator UserRole = "moderator"
	RoleAdmin     UserRole = "admin"
)

// User represents a kinship account
type User struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	Username    string `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName string `gorm:"not null" json:"display_name"`
	Bio         string `gorm:"type:text" json:"bio"`

	// Native auth fields
	PasswordHash *string `gorm:"type:text" json:"-"`

	Role UserRole `gorm:"type:varchar(20);default:user" json:"role"`

	// Activity tracking
	LastActiveAt *time.Time `json:"last_active_at"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsStaff reports whether the user may act on content they do not own.
func (u *User) IsStaff() bool {
	return u.Role == RoleModerator || u.Role == RoleAdmin
}

// Post represents an authored post
type Post struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Title   string `gorm:"not null" json:"title"`
	Content string `gorm:"type:text" json:"content"`

	// Engagement metrics - updated with relative increments only,
	// never read-modify-write in application code
	PopularityScore int `gorm:"default:0" json:"popularity_score"`
	CommentCount    int `gorm:"default:0" json:"comment_count"`

	IsPublished bool `gorm:"default:true" json:"is_published"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Comment represents a comment on a Post. parent_id is null for top-level
// comments; replies may nest to arbitrary depth.
type Comment struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	PostID string `gorm:"not null;index" json:"post_id"`
	Post   Post   `gorm:"foreignKey:PostID" json:"-"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Content string `gorm:"type:text;not null" json:"content"`

	// Threading
	ParentID *string    `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Parent   *Comment   `gorm:"foreignKey:ParentID" json:"-"`
	Replies  []*Comment `gorm:"-" json:"replies,omitempty"`

	// Derived: count of +1 comment ratings
	ThanksCount int `gorm:"default:0" json:"thanks_count"`

	// Edit tracking
	IsEdited bool       `gorm:"default:false" json:"is_edited"`
	EditedAt *time.Time `json:"edited_at,omitempty"`

	// Moderation - soft delete keeps the row for threading until the
	// retention sweep hard-deletes it after the grace period
	IsDeleted     bool       `gorm:"default:false;index" json:"is_deleted"`
	DeletedByID   *string    `gorm:"type:uuid" json:"deleted_by_id,omitempty"`
	DeleteReason  string     `gorm:"type:text" json:"delete_reason,omitempty"`
	SoftDeletedAt *time.Time `json:"soft_deleted_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Rating is a user's +1/-1 reaction on a post. One row per (post, user);
// the unique index is the backstop against concurrent double-submits.
type Rating struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	PostID string `gorm:"not null;uniqueIndex:idx_ratings_post_user" json:"post_id"`
	Post   Post   `gorm:"foreignKey:PostID" json:"-"`
	UserID string `gorm:"not null;uniqueIndex:idx_ratings_post_user" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	Value int `gorm:"not null" json:"value"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentRating is a user's +1/-1 reaction on a comment. Same toggle
// semantics as Rating but only +1 values feed the thanks counter.
type CommentRating struct {
	ID        string  `gorm:"primaryKey;type:uuid" json:"id"`
	CommentID string  `gorm:"not null;uniqueIndex:idx_comment_ratings_comment_user" json:"comment_id"`
	Comment   Comment `gorm:"foreignKey:CommentID" json:"-"`
	UserID    string  `gorm:"not null;uniqueIndex:idx_comment_ratings_comment_user" json:"user_id"`
	User      User    `gorm:"foreignKey:UserID" json:"-"`

	Value int `gorm:"not null" json:"value"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FriendRequestStatus tracks the request state machine. There is no
// "accepted" status - accepting deletes the row and creates a Friendship.
type FriendRequestStatus string

const (
	FriendRequestStatusPending  FriendRequestStatus = "pending"
	FriendRequestStatusRejected FriendRequestStatus = "rejected"
	FriendRequestStatusCanceled FriendRequestStatus = "canceled"
)

// FriendRequest is a directed request from sender to receiver. Rejected and
// canceled rows persist so their responded_at anchors the re-send cooldown,
// and flip back to pending instead of being recreated.
type FriendRequest struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	SenderID   string `gorm:"not null;uniqueIndex:idx_friend_requests_pair" json:"sender_id"`
	Sender     User   `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	ReceiverID string `gorm:"not null;uniqueIndex:idx_friend_requests_pair" json:"receiver_id"`
	Receiver   User   `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`

	Status      FriendRequestStatus `gorm:"type:varchar(20);not null;default:pending" json:"status"`
	RespondedAt *time.Time          `json:"responded_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Friendship is a symmetric relation; initiator/receiver record who accepted
// whom but carry no directional meaning afterwards. Reads check both orderings.
type Friendship struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	InitiatorID string `gorm:"not null;uniqueIndex:idx_friendships_pair" json:"initiator_id"`
	Initiator   User   `gorm:"foreignKey:InitiatorID" json:"initiator,omitempty"`
	ReceiverID  string `gorm:"not null;uniqueIndex:idx_friendships_pair" json:"receiver_id"`
	Receiver    User   `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NotificationType enumerates the events the notify service records
type NotificationType string

const (
	NotificationFriendRequest NotificationType = "friend_request"
	NotificationFriendAccept  NotificationType = "friend_accept"
	NotificationComment       NotificationType = "comment"
	NotificationCommentReply  NotificationType = "comment_reply"
	NotificationThanks        NotificationType = "thanks"
)

// Notification is a stored event for a user's inbox
type Notification struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID  string `gorm:"not null;index" json:"user_id"`
	User    User   `gorm:"foreignKey:UserID" json:"-"`
	ActorID string `gorm:"not null" json:"actor_id"`
	Actor   User   `gorm:"foreignKey:ActorID" json:"actor,omitempty"`

	Type     NotificationType `gorm:"type:varchar(30);not null" json:"type"`
	TargetID string           `gorm:"index" json:"target_id"`
	Message  string           `gorm:"type:text" json:"message"`
	IsRead   bool             `gorm:"default:false;index" json:"is_read"`

	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate hooks for GORM

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	return nil
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}

func (r *Rating) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = generateUUID()
	}
	return nil
}

func (r *CommentRating) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = generateUUID()
	}
	return nil
}

func (fr *FriendRequest) BeforeCreate(tx *gorm.DB) error {
	if fr.ID == "" {
		fr.ID = generateUUID()
	}
	return nil
}

func (f *Friendship) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = generateUUID()
	}
	return nil
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = generateUUID()
	}
	return nil
}

// Helper function for UUID generation
func generateUUID() string {
	return uuid.New().String()
}
