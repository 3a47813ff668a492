package model

import "time"

// InvitationStatus tracks whether an invite has been used
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
)

// Invitation grants the invitee access to a workspace once accepted
type Invitation struct {
	ID           string           `json:"id"`
	Email        string           `json:"email"`
	WorkspaceID  string           `json:"workspace_id"`
	InviterEmail string           `json:"inviter_email"`
	Status       InvitationStatus `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
}
