package utils

import "github.com/google/uuid"

// NewID returns a random identifier for viewers and requests.
func NewID() string {
	return uuid.NewString()
}
