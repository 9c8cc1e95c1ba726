package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Reference prefixes.
const (
	PaymentRefPrefix  = "chapa"
	TransferRefPrefix = "TRF"
)

// NewReference returns "<prefix>_<unix millis>_<6 lowercase alphanumerics>".
func NewReference(prefix string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return prefix + "_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + suffix
}
