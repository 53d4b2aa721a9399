// Package mcp provides an MCP (Model Context Protocol) server adapter for rentsync.
// It lets AI assistants inspect property calendars, trigger syncs and work
// through the review queue.
package mcp

import "errors"

// ErrMissingReviewService is returned when the review service is not provided.
var ErrMissingReviewService = errors.New("mcp: review service is required")

// ErrUnknownAction is returned when resolve_review_item gets an action
// other than assign or dismiss.
var ErrUnknownAction = errors.New("mcp: action must be assign or dismiss")
