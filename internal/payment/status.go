package payment

// Status is the gateway-side order status. The gateway owns the authoritative
// value; we only ever read it.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusPaid      Status = "PAID"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
	// StatusUnknown is a local fallback for absent or unrecognized gateway
	// statuses, not a state the gateway itself reports.
	StatusUnknown Status = "UNKNOWN"
)

// ParseStatus maps a raw gateway status string to a defined Status.
// Unrecognized or empty strings become StatusUnknown so callers always get a
// usable value instead of an error.
func ParseStatus(raw string) Status {
	switch Status(raw) {
	case StatusActive, StatusPaid, StatusExpired, StatusCancelled:
		return Status(raw)
	default:
		return StatusUnknown
	}
}

// IsSuccess reports whether a raw status string counts as a successful
// payment. Cashfree reports PAID on orders and SUCCESS on payment events;
// both mean the same thing downstream.
func IsSuccess(raw string) bool {
	return raw == "PAID" || raw == "SUCCESS"
}
