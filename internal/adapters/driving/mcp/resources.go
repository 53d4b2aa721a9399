package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

const (
	// URIScheme is the custom URI scheme for rentsync resources.
	uriScheme = "rentsync://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing connections.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "connections",
		Name:        "connections",
		Description: "Mailboxes and calendar feeds with their health",
		MIMEType:    "application/json",
	}, s.handleConnectionsResource)

	// Static resource for the open review queue.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "review-items",
		Name:        "review-items",
		Description: "Confirmation emails waiting for a manual decision",
		MIMEType:    "application/json",
	}, s.handleReviewItemsResource)

	// Template for a property calendar.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "properties/{propertyId}/calendar",
		Name:        "property-calendar",
		Description: "Bookings and cleaning days of a property",
		MIMEType:    "application/json",
	}, s.handleCalendarResource)
}

// handleConnectionsResource returns every connection without its config.
func (s *Server) handleConnectionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Connection == nil {
		return jsonResult(req.Params.URI, []struct{}{})
	}

	conns, err := s.ports.Connection.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing connections: %w", err)
	}

	type connectionInfo struct {
		ID          string   `json:"id"`
		Name        string   `json:"name"`
		Type        string   `json:"type"`
		Status      string   `json:"status"`
		PropertyIDs []string `json:"property_ids"`
		LastError   string   `json:"last_error,omitempty"`
		LastSyncAt  string   `json:"last_sync_at,omitempty"`
	}

	infos := make([]connectionInfo, len(conns))
	for i := range conns {
		c := &conns[i]
		infos[i] = connectionInfo{
			ID:          c.ID,
			Name:        c.Name,
			Type:        string(c.Type),
			Status:      string(c.Status),
			PropertyIDs: c.PropertyIDs,
			LastError:   c.LastError,
		}
		if c.LastSyncAt != nil {
			infos[i].LastSyncAt = c.LastSyncAt.UTC().Format(time.RFC3339)
		}
	}
	return jsonResult(req.Params.URI, infos)
}

// handleReviewItemsResource returns the open review items.
func (s *Server) handleReviewItemsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	items, err := s.ports.Review.List(ctx, domain.ReviewFilter{Status: domain.ReviewOpen})
	if err != nil {
		return nil, fmt.Errorf("listing review items: %w", err)
	}

	out := make([]ReviewItemOutput, len(items))
	for i, it := range items {
		out[i] = toReviewOutput(it)
	}
	return jsonResult(req.Params.URI, out)
}

// handleCalendarResource returns the calendar of one property.
func (s *Server) handleCalendarResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Calendar == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract propertyId from URI: rentsync://properties/{propertyId}/calendar
	propertyID := extractPropertyID(req.Params.URI)
	if propertyID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	cal, err := s.ports.Calendar.PropertyCalendar(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("building calendar: %w", err)
	}
	return jsonResult(req.Params.URI, toCalendarOutput(cal))
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractPropertyID extracts the property ID from a URI like rentsync://properties/{propertyId}/calendar.
func extractPropertyID(uri string) string {
	const prefix = uriScheme + "properties/"
	const suffix = "/calendar"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	id := strings.TrimSuffix(uri, suffix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
