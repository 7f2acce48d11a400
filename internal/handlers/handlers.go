package handlers

import (
	"github.com/kinshiphq/backend/internal/auth"
	"github.com/kinshiphq/backend/internal/notify"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	auth     *auth.Service
	notifier *notify.Service
}

// NewHandlers creates a new handlers instance
func NewHandlers(authService *auth.Service, notifier *notify.Service) *Handlers {
	return &Handlers{
		auth:     authService,
		notifier: notifier,
	}
}
