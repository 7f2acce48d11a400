package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kinshiphq/backend/internal/database"
	apierrors "github.com/kinshiphq/backend/internal/errors"
	"github.com/kinshiphq/backend/internal/middleware"
	"github.com/kinshiphq/backend/internal/models"
	"github.com/kinshiphq/backend/internal/util"
	"gorm.io/gorm"
)

// Cooldowns before a rejected or canceled request can be re-sent, measured
// from the row's responded_at
const (
	rejectedCooldown = 7 * 24 * time.Hour
	canceledCooldown = 5 * time.Minute
)

// SendFriendRequest sends (or revives) a friend request
// POST /api/v1/friends/requests
func (h *Handlers) SendFriendRequest(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		ReceiverID string `json:"receiver_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if req.ReceiverID == userID {
		util.RespondValidationError(c, "receiver_id", "You cannot send a friend request to yourself")
		return
	}

	var receiver models.User
	if err := database.DB.First(&receiver, "id = ?", req.ReceiverID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	friends, err := isFriendWith(database.DB, userID, req.ReceiverID)
	if err != nil {
		util.RespondInternalError(c, "Failed to check friendship")
		return
	}
	if friends {
		util.RespondConflict(c, "friendship")
		return
	}

	// Prefer the sender's own outgoing row; cooldowns only apply to it
	var outgoing models.FriendRequest
	err = database.DB.Where("sender_id = ? AND receiver_id = ?", userID, req.ReceiverID).First(&outgoing).Error
	if err == nil {
		switch outgoing.Status {
		case models.FriendRequestStatusPending:
			util.RespondConflict(c, "friend request")
			return
		case models.FriendRequestStatusRejected, models.FriendRequestStatusCanceled:
			cooldown := rejectedCooldown
			if outgoing.Status == models.FriendRequestStatusCanceled {
				cooldown = canceledCooldown
			}
			if outgoing.RespondedAt != nil {
				retryAt := outgoing.RespondedAt.Add(cooldown)
				if time.Now().Before(retryAt) {
					util.RespondWithAPIError(c, apierrors.CooldownActive("friend request", retryAt))
					return
				}
			}
			if err := h.reviveRequest(c, &outgoing, userID, req.ReceiverID); err != nil {
				return
			}
			middleware.RecordFriendRequestTransition("resent")
			c.JSON(http.StatusOK, gin.H{"request": outgoing})
			return
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondInternalError(c, "Failed to check existing requests")
		return
	}

	// A stale incoming row is reused with the direction swapped so the row
	// always points from the live sender to the live receiver
	var incoming models.FriendRequest
	err = database.DB.Where("sender_id = ? AND receiver_id = ?", req.ReceiverID, userID).First(&incoming).Error
	if err == nil {
		if incoming.Status == models.FriendRequestStatusPending {
			util.RespondConflict(c, "friend request")
			return
		}
		incoming.SenderID = userID
		incoming.ReceiverID = req.ReceiverID
		if err := h.reviveRequest(c, &incoming, userID, req.ReceiverID); err != nil {
			return
		}
		middleware.RecordFriendRequestTransition("resent")
		c.JSON(http.StatusOK, gin.H{"request": incoming})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondInternalError(c, "Failed to check existing requests")
		return
	}

	request := models.FriendRequest{
		SenderID:   userID,
		ReceiverID: req.ReceiverID,
		Status:     models.FriendRequestStatusPending,
	}
	if err := database.DB.Create(&request).Error; err != nil {
		util.RespondInternalError(c, "Failed to send friend request")
		return
	}

	middleware.RecordFriendRequestTransition("sent")
	h.notifier.Notify(req.ReceiverID, userID, models.NotificationFriendRequest, request.ID, "sent you a friend request")

	c.JSON(http.StatusCreated, gin.H{"request": request})
}

// reviveRequest flips a stale row back to pending, clearing responded_at.
// Responds with an error and returns non-nil on failure.
func (h *Handlers) reviveRequest(c *gin.Context, request *models.FriendRequest, senderID, receiverID string) error {
	request.Status = models.FriendRequestStatusPending
	request.RespondedAt = nil

	err := database.DB.Model(request).
		Select("sender_id", "receiver_id", "status", "responded_at").
		Updates(map[string]interface{}{
			"sender_id":    request.SenderID,
			"receiver_id":  request.ReceiverID,
			"status":       request.Status,
			"responded_at": nil,
		}).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to send friend request")
		return err
	}

	h.notifier.Notify(receiverID, senderID, models.NotificationFriendRequest, request.ID, "sent you a friend request")
	return nil
}

// AcceptFriendRequest accepts a pending request: the row is deleted and a
// friendship is created in its place, atomically
// POST /api/v1/friends/requests/:id/accept
func (h *Handlers) AcceptFriendRequest(c *gin.Context) {
	requestID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var request models.FriendRequest
	if err := database.DB.First(&request, "id = ?", requestID).Error; err != nil {
		util.RespondNotFound(c, "friend request")
		return
	}

	if request.ReceiverID != userID {
		util.RespondForbidden(c, "Only the receiver can accept a friend request")
		return
	}

	if request.Status != models.FriendRequestStatusPending {
		util.RespondConflict(c, "friend request")
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		// Re-check inside the transaction so a concurrent accept on the
		// mirrored request cannot create a duplicate pair
		friends, err := isFriendWith(tx, request.SenderID, request.ReceiverID)
		if err != nil {
			return err
		}
		if !friends {
			friendship := models.Friendship{
				InitiatorID: request.SenderID,
				ReceiverID:  request.ReceiverID,
			}
			if err := tx.Create(&friendship).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&request).Error
	})
	if err != nil {
		util.RespondInternalError(c, "Failed to accept friend request")
		return
	}

	middleware.RecordFriendRequestTransition("accepted")
	h.notifier.Notify(request.SenderID, userID, models.NotificationFriendAccept, request.ID, "accepted your friend request")

	c.JSON(http.StatusOK, gin.H{"message": "friend_request_accepted"})
}

// RejectFriendRequest rejects a pending request
// POST /api/v1/friends/requests/:id/reject
func (h *Handlers) RejectFriendRequest(c *gin.Context) {
	h.respondToRequest(c, models.FriendRequestStatusRejected)
}

// CancelFriendRequest cancels the caller's own pending request
// POST /api/v1/friends/requests/:id/cancel
func (h *Handlers) CancelFriendRequest(c *gin.Context) {
	h.respondToRequest(c, models.FriendRequestStatusCanceled)
}

func (h *Handlers) respondToRequest(c *gin.Context, status models.FriendRequestStatus) {
	requestID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var request models.FriendRequest
	if err := database.DB.First(&request, "id = ?", requestID).Error; err != nil {
		util.RespondNotFound(c, "friend request")
		return
	}

	if status == models.FriendRequestStatusRejected && request.ReceiverID != userID {
		util.RespondForbidden(c, "Only the receiver can reject a friend request")
		return
	}
	if status == models.FriendRequestStatusCanceled && request.SenderID != userID {
		util.RespondForbidden(c, "Only the sender can cancel a friend request")
		return
	}

	if request.Status != models.FriendRequestStatusPending {
		util.RespondConflict(c, "friend request")
		return
	}

	now := time.Now()
	request.Status = status
	request.RespondedAt = &now

	if err := database.DB.Save(&request).Error; err != nil {
		util.RespondInternalError(c, "Failed to update friend request")
		return
	}

	middleware.RecordFriendRequestTransition(string(status))

	c.JSON(http.StatusOK, gin.H{"request": request})
}

// GetFriendRequests lists incoming pending requests
// GET /api/v1/friends/requests
func (h *Handlers) GetFriendRequests(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var requests []models.FriendRequest
	err := database.DB.
		Preload("Sender").
		Where("receiver_id = ? AND status = ?", userID, models.FriendRequestStatusPending).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to get friend requests")
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// GetOutgoingFriendRequests lists the caller's pending outgoing requests
// GET /api/v1/friends/requests/outgoing
func (h *Handlers) GetOutgoingFriendRequests(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var requests []models.FriendRequest
	err := database.DB.
		Preload("Receiver").
		Where("sender_id = ? AND status = ?", userID, models.FriendRequestStatusPending).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to get friend requests")
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// GetFriends lists the caller's friends
// GET /api/v1/friends
func (h *Handlers) GetFriends(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var friendships []models.Friendship
	err := database.DB.
		Preload("Initiator").
		Preload("Receiver").
		Where("initiator_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&friendships).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to get friends")
		return
	}

	friends := make([]models.User, 0, len(friendships))
	for _, f := range friendships {
		if f.InitiatorID == userID {
			friends = append(friends, f.Receiver)
		} else {
			friends = append(friends, f.Initiator)
		}
	}

	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

// RemoveFriend removes a friendship; either party may unfriend
// DELETE /api/v1/friends/:id
func (h *Handlers) RemoveFriend(c *gin.Context) {
	friendID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var friendship models.Friendship
	err := database.DB.
		Where("(initiator_id = ? AND receiver_id = ?) OR (initiator_id = ? AND receiver_id = ?)",
			userID, friendID, friendID, userID).
		First(&friendship).Error
	if err != nil {
		util.RespondNotFound(c, "friendship")
		return
	}

	if err := database.DB.Delete(&friendship).Error; err != nil {
		util.RespondInternalError(c, "Failed to remove friend")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "friend_removed"})
}

// isFriendWith checks the friendship table across both orderings of the pair
func isFriendWith(db *gorm.DB, userID, otherID string) (bool, error) {
	var count int64
	err := db.Model(&models.Friendship{}).
		Where("(initiator_id = ? AND receiver_id = ?) OR (initiator_id = ? AND receiver_id = ?)",
			userID, otherID, otherID, userID).
		Count(&count).Error
	return count > 0, err
}
