package domain

import "fmt"

// Role identifies which directory collection a recipient lives in.
type Role string

const (
	RoleParent   Role = "parent"
	RoleAdmin    Role = "admin"
	RoleHospital Role = "hospital"
)

// ParseRole validates a role string coming from the HTTP boundary or a feed
// event. An unknown role is a caller error and never reaches the sender.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleParent, RoleAdmin, RoleHospital:
		return Role(s), nil
	}
	return "", fmt.Errorf("invalid role: %q", s)
}

// Collection returns the directory collection for the role. Roles are a closed
// enum, so the zero return is unreachable for parsed values.
func (r Role) Collection() string {
	switch r {
	case RoleParent:
		return "parents"
	case RoleAdmin:
		return "admin"
	case RoleHospital:
		return "hospitals"
	}
	return ""
}

// Recipient is an addressable notification target. DeliveryToken is optional:
// an absent token means the recipient is unreachable, not broken.
type Recipient struct {
	Role          Role   `firestore:"-" json:"role"`
	ID            string `firestore:"-" json:"id"`
	DeliveryToken string `firestore:"fcmToken,omitempty" json:"-"`
}
