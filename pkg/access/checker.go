// Package access decides whether a presented card is the authorized one.
package access

import (
	"github.com/robotalks/tagback/pkg/tag"
)

// Checker holds the single authorized UID.
type Checker struct {
	Authorized tag.UID
}

// Check tells whether uid is exactly the authorized UID. With no
// authorized UID configured every card is denied.
func (c *Checker) Check(uid tag.UID) bool {
	return len(c.Authorized) > 0 && c.Authorized.Equal(uid)
}
