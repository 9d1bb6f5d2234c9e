package payment

import "strings"

// Gateway-side normalization used ONLY for the payment status snapshotted
// onto receipts and reported to callers.
func NormalizeStatus(s string) string {
	switch strings.TrimSpace(s) {
	case "captured":
		return "captured"
	case "created", "authorized":
		return "pending"
	case "refunded":
		return "refunded"
	case "failed":
		return "failed"
	case "":
		return "unknown"
	default:
		return strings.TrimSpace(s)
	}
}
