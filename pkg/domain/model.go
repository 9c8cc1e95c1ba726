package domain

import (
	"strconv"
	"time"
)

// Model holds the fields every stored entity carries.
type Model struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GetModel exposes the embedded model to generic code.
func (m *Model) GetModel() *Model { return m }

// Touch refreshes UpdatedAt.
func (m *Model) Touch(now time.Time) { m.UpdatedAt = now.UTC() }

// Entity is implemented by pointers to every stored type.
type Entity interface {
	GetModel() *Model
}

// Referenced is implemented by entities correlated with the gateway by an
// external reference.
type Referenced interface {
	Entity
	GetReference() string
	ApplyGatewayStatus(GatewayStatus) bool
}

// NewID returns a millisecond timestamp id that does not collide with taken.
func NewID(now time.Time, taken func(string) bool) string {
	n := now.UnixMilli()
	for {
		id := strconv.FormatInt(n, 10)
		if taken == nil || !taken(id) {
			return id
		}
		n++
	}
}
