package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

// SyncInput is the input schema for the sync_connection tool.
type SyncInput struct {
	ConnectionID string `json:"connection_id,omitempty" jsonschema:"connection to sync; empty syncs every connection"`
}

// SyncOutput is the output schema for the sync_connection tool.
type SyncOutput struct {
	Results []SyncResultOutput `json:"results"`
	Error   string             `json:"error,omitempty"`
}

// SyncResultOutput summarises one connection run.
type SyncResultOutput struct {
	ConnectionID        string   `json:"connection_id"`
	Status              string   `json:"status"`
	FactsParsed         int      `json:"facts_parsed"`
	FactsRejected       int      `json:"facts_rejected"`
	BookingsUpserted    int      `json:"bookings_upserted"`
	BookingsDeactivated int      `json:"bookings_deactivated"`
	BookingsEnriched    int      `json:"bookings_enriched"`
	ReviewItemsCreated  int      `json:"review_items_created"`
	Errors              []string `json:"errors,omitempty"`
}

// ListReviewInput is the input schema for the list_review_items tool.
type ListReviewInput struct {
	Status       string `json:"status,omitempty" jsonschema:"open, resolved or dismissed (default open)"`
	ConnectionID string `json:"connection_id,omitempty" jsonschema:"only items from this mailbox"`
}

// ListReviewOutput is the output schema for the list_review_items tool.
type ListReviewOutput struct {
	Items []ReviewItemOutput `json:"items"`
	Count int                `json:"count"`
}

// ReviewItemOutput is a review item as shown to the assistant.
type ReviewItemOutput struct {
	ID                  string   `json:"id"`
	Status              string   `json:"status"`
	Reason              string   `json:"reason"`
	GuestName           string   `json:"guest_name"`
	GuestCount          int      `json:"guest_count"`
	CheckIn             string   `json:"check_in"`
	CheckOut            string   `json:"check_out"`
	ConfirmationCode    string   `json:"confirmation_code"`
	ListingName         string   `json:"listing_name,omitempty"`
	CandidateBookingIDs []string `json:"candidate_booking_ids,omitempty"`
	ResolvedBookingID   string   `json:"resolved_booking_id,omitempty"`
}

// ResolveInput is the input schema for the resolve_review_item tool.
type ResolveInput struct {
	ReviewID   string `json:"review_id" jsonschema:"the review item to resolve"`
	Action     string `json:"action" jsonschema:"assign or dismiss"`
	PropertyID string `json:"property_id,omitempty" jsonschema:"property to place the stay on (assign)"`
	BookingID  string `json:"booking_id,omitempty" jsonschema:"booking to attach the fact to (assign)"`
}

// ResolveOutput is the output schema for the resolve_review_item tool.
type ResolveOutput struct {
	ReviewID  string `json:"review_id"`
	Status    string `json:"status"`
	BookingID string `json:"booking_id,omitempty"`
}

// CalendarInput is the input schema for the property_calendar tool.
type CalendarInput struct {
	PropertyID string `json:"property_id" jsonschema:"the property to show"`
}

// CalendarOutput is the output schema for the property_calendar tool.
type CalendarOutput struct {
	PropertyID string           `json:"property_id"`
	Name       string           `json:"name"`
	Bookings   []BookingOutput  `json:"bookings"`
	Cleaning   []BufferOutput   `json:"cleaning"`
	Suppressed []BookingOutput  `json:"suppressed,omitempty"`
	Replaced   []BookingOutput  `json:"replaced,omitempty"`
	Conflicts  []ConflictOutput `json:"conflicts,omitempty"`
}

// BookingOutput is a booking as shown to the assistant.
type BookingOutput struct {
	ID         string `json:"id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	Kind       string `json:"kind"`
	Guest      string `json:"guest"`
	GuestCount int    `json:"guest_count,omitempty"`
	Platform   string `json:"platform,omitempty"`
	Manual     bool   `json:"manual,omitempty"`
}

// ConflictOutput names two overlapping bookings.
type ConflictOutput struct {
	First  string `json:"first"`
	Second string `json:"second"`
}

// BufferOutput is one cleaning day.
type BufferOutput struct {
	Date      string `json:"date"`
	Side      string `json:"side"`
	BookingID string `json:"booking_id"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "sync_connection",
		Description: "Fetch calendar feeds and confirmation emails and reconcile them",
	}, s.handleSync)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_review_items",
		Description: "List confirmation emails that could not be matched to a booking",
	}, s.handleListReview)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "resolve_review_item",
		Description: "Assign a review item to a property or booking, or dismiss it",
	}, s.handleResolve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "property_calendar",
		Description: "Show a property's bookings, cleaning days and overlaps",
	}, s.handleCalendar)
}

// handleSync handles the sync_connection tool invocation. Per-connection
// failures are reported in the output rather than failing the call.
func (s *Server) handleSync(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SyncInput,
) (*mcp.CallToolResult, SyncOutput, error) {
	if s.ports.Sync == nil {
		return nil, SyncOutput{}, errors.New("sync service not configured")
	}

	if input.ConnectionID != "" {
		result, err := s.ports.Sync.Sync(ctx, input.ConnectionID)
		out := SyncOutput{Results: []SyncResultOutput{}}
		if result != nil {
			out.Results = append(out.Results, toSyncOutput(result))
		}
		if err != nil {
			if result == nil {
				return nil, SyncOutput{}, err
			}
			out.Error = err.Error()
		}
		return nil, out, nil
	}

	results, err := s.ports.Sync.SyncAll(ctx)
	out := SyncOutput{Results: make([]SyncResultOutput, len(results))}
	for i := range results {
		out.Results[i] = toSyncOutput(&results[i])
	}
	if err != nil {
		out.Error = err.Error()
	}
	return nil, out, nil
}

func toSyncOutput(r *domain.SyncResult) SyncResultOutput {
	return SyncResultOutput{
		ConnectionID:        r.ConnectionID,
		Status:              string(r.Status),
		FactsParsed:         r.FactsParsed,
		FactsRejected:       r.FactsRejected,
		BookingsUpserted:    r.BookingsUpserted,
		BookingsDeactivated: r.BookingsDeactivated,
		BookingsEnriched:    r.BookingsEnriched,
		ReviewItemsCreated:  r.ReviewItemsCreated,
		Errors:              r.Errors,
	}
}

// handleListReview handles the list_review_items tool invocation.
func (s *Server) handleListReview(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListReviewInput,
) (*mcp.CallToolResult, ListReviewOutput, error) {
	status := domain.ReviewStatus(input.Status)
	if status == "" {
		status = domain.ReviewOpen
	}

	items, err := s.ports.Review.List(ctx, domain.ReviewFilter{
		Status:       status,
		ConnectionID: input.ConnectionID,
	})
	if err != nil {
		return nil, ListReviewOutput{}, err
	}

	output := ListReviewOutput{
		Items: make([]ReviewItemOutput, len(items)),
		Count: len(items),
	}
	for i, it := range items {
		output.Items[i] = toReviewOutput(it)
	}
	return nil, output, nil
}

func toReviewOutput(it *domain.ReviewItem) ReviewItemOutput {
	return ReviewItemOutput{
		ID:                  it.ID,
		Status:              string(it.Status),
		Reason:              string(it.Reason),
		GuestName:           it.GuestName,
		GuestCount:          it.GuestCount,
		CheckIn:             it.CheckIn.String(),
		CheckOut:            it.CheckOut.String(),
		ConfirmationCode:    it.ConfirmationCode,
		ListingName:         it.ListingName,
		CandidateBookingIDs: it.CandidateBookingIDs,
		ResolvedBookingID:   it.ResolvedBookingID,
	}
}

// handleResolve handles the resolve_review_item tool invocation.
func (s *Server) handleResolve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ResolveInput,
) (*mcp.CallToolResult, ResolveOutput, error) {
	switch input.Action {
	case "assign":
		booking, err := s.ports.Review.Assign(ctx, domain.Resolution{
			ReviewID:   input.ReviewID,
			PropertyID: input.PropertyID,
			BookingID:  input.BookingID,
		})
		if err != nil {
			return nil, ResolveOutput{}, fmt.Errorf("assigning %s: %w", input.ReviewID, err)
		}
		return nil, ResolveOutput{
			ReviewID:  input.ReviewID,
			Status:    string(domain.ReviewResolved),
			BookingID: booking.ID,
		}, nil
	case "dismiss":
		if err := s.ports.Review.Dismiss(ctx, input.ReviewID); err != nil {
			return nil, ResolveOutput{}, fmt.Errorf("dismissing %s: %w", input.ReviewID, err)
		}
		return nil, ResolveOutput{ReviewID: input.ReviewID, Status: string(domain.ReviewDismissed)}, nil
	default:
		return nil, ResolveOutput{}, ErrUnknownAction
	}
}

// handleCalendar handles the property_calendar tool invocation.
func (s *Server) handleCalendar(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CalendarInput,
) (*mcp.CallToolResult, CalendarOutput, error) {
	if s.ports.Calendar == nil {
		return nil, CalendarOutput{}, errors.New("calendar service not configured")
	}
	cal, err := s.ports.Calendar.PropertyCalendar(ctx, input.PropertyID)
	if err != nil {
		return nil, CalendarOutput{}, err
	}
	return nil, toCalendarOutput(cal), nil
}

func toCalendarOutput(cal *domain.PropertyCalendar) CalendarOutput {
	out := CalendarOutput{
		PropertyID: cal.Property.ID,
		Name:       cal.Property.Name,
		Bookings:   toBookingOutputs(cal.Bookings),
		Cleaning:   make([]BufferOutput, len(cal.Buffers)),
		Suppressed: toBookingOutputs(cal.Suppressed),
		Replaced:   toBookingOutputs(cal.Replaced),
	}
	for i, b := range cal.Buffers {
		out.Cleaning[i] = BufferOutput{Date: b.Date.String(), Side: b.Side, BookingID: b.BookingID}
	}
	for _, c := range cal.Conflicts {
		out.Conflicts = append(out.Conflicts, ConflictOutput{First: c.First, Second: c.Second})
	}
	return out
}

func toBookingOutputs(bookings []*domain.Booking) []BookingOutput {
	out := make([]BookingOutput, len(bookings))
	for i, b := range bookings {
		out[i] = BookingOutput{
			ID:         b.ID,
			CheckIn:    b.CheckIn.String(),
			CheckOut:   b.CheckOut.String(),
			Kind:       string(b.Kind()),
			Guest:      b.DisplayName(),
			GuestCount: b.GuestCount,
			Platform:   b.Platform,
			Manual:     b.IsManual(),
		}
	}
	return out
}
