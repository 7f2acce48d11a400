// Package backend provides the Kinship API server.

// This package contains the main application entry point. The actual API
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/auth: Authentication and authorization services
// - internal/database: Database connection and migrations
// - internal/notify: Notification recording
// - internal/middleware: HTTP middleware (rate limiting, metrics, etc.)
// - internal/cache: Redis client
// - internal/metrics: Prometheus metrics registry

// See the individual package documentation for detailed API reference.
package backend
