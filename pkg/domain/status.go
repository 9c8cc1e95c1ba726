package domain

import "strings"

// GatewayStatus is the normalized outcome of a gateway status string.
type GatewayStatus string

const (
	GatewaySucceeded  GatewayStatus = "succeeded"
	GatewayFailed     GatewayStatus = "failed"
	GatewayPending    GatewayStatus = "pending"
	GatewayProcessing GatewayStatus = "processing"
)

// gatewayStatuses is the complete mapping table. Tokens not listed map to
// GatewayPending.
var gatewayStatuses = map[string]GatewayStatus{
	"success":     GatewaySucceeded,
	"successful":  GatewaySucceeded,
	"succeeded":   GatewaySucceeded,
	"completed":   GatewaySucceeded,
	"complete":    GatewaySucceeded,
	"paid":        GatewaySucceeded,
	"failed":      GatewayFailed,
	"failure":     GatewayFailed,
	"declined":    GatewayFailed,
	"reversed":    GatewayFailed,
	"cancelled":   GatewayFailed,
	"canceled":    GatewayFailed,
	"expired":     GatewayFailed,
	"pending":     GatewayPending,
	"initiated":   GatewayPending,
	"queued":      GatewayPending,
	"processing":  GatewayProcessing,
	"in_progress": GatewayProcessing,
}

// ParseGatewayStatus maps a raw gateway status, case-insensitively.
func ParseGatewayStatus(raw string) GatewayStatus {
	if s, ok := gatewayStatuses[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s
	}
	return GatewayPending
}
