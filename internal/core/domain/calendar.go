package domain

// CleaningBuffer is a derived turnover day. Never persisted.
type CleaningBuffer struct {
	PropertyID string `json:"property_id"`
	Date       Date   `json:"date"`

	// BookingID is the real booking that caused the buffer.
	BookingID string `json:"booking_id"`

	// Side is "pre" or "post".
	Side string `json:"side"`
}

// Buffer sides.
const (
	BufferPre  = "pre"
	BufferPost = "post"
)

// Conflict is a pair of active real bookings that overlap.
type Conflict struct {
	First  string `json:"first"`
	Second string `json:"second"`
}

// PropertyCalendar is the read model of one property's occupancy.
type PropertyCalendar struct {
	Property *Property `json:"property"`

	// Bookings are active bookings after suppression, ordered by check-in.
	Bookings []*Booking `json:"bookings"`

	// Buffers are the derived cleaning days, ordered by date.
	Buffers []CleaningBuffer `json:"buffers"`

	// Suppressed are generic blocks covered by real bookings.
	Suppressed []*Booking `json:"suppressed"`

	// Replaced are provider blocks that coincide with a buffer window.
	Replaced []*Booking `json:"replaced"`

	// Conflicts are overlapping real bookings.
	Conflicts []Conflict `json:"conflicts"`
}
