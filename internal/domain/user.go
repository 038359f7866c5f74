package domain

import "time"

// UserTier gates the generation quota.
type UserTier string

const (
	TierFree UserTier = "free"
	TierPro  UserTier = "pro"
)

// User carries only the fields this core reads; profile CRUD lives with an
// external collaborator.
type User struct {
	ID        string
	Email     string
	Tier      UserTier
	CreatedAt time.Time
}

// Class is resolved for ownership checks and the title heuristic. Class CRUD
// is external.
type Class struct {
	ID      string
	OwnerID string
	Name    string
}
