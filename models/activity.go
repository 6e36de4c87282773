// models/activity.go

package models

import "time"

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type Activity struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Description         string    `json:"description"`
	Type                string    `json:"type"`
	Date                string    `json:"date"`
	Time                string    `json:"time"`
	Location            string    `json:"location"`
	MaxParticipants     int       `json:"maxParticipants"`
	CurrentParticipants int       `json:"currentParticipants"`
	PointsReward        int       `json:"pointsReward"`
	Status              string    `json:"status"`
	CreatedBy           string    `json:"createdBy"`
	Participants        []string  `json:"participants"`
	Invited             []string  `json:"invited"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// HasParticipant reports whether userID already joined.
func (a *Activity) HasParticipant(userID string) bool {
	for _, p := range a.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// IsFull reports whether the participant set reached capacity.
func (a *Activity) IsFull() bool {
	return len(a.Participants) >= a.MaxParticipants
}

// Normalize makes the participant set the single source of truth for the
// participant count and replaces nil slices with empty ones.
func (a *Activity) Normalize() {
	if a.Participants == nil {
		a.Participants = []string{}
	}
	if a.Invited == nil {
		a.Invited = []string{}
	}
	a.CurrentParticipants = len(a.Participants)
}

// CanManage reports whether userID may update or delete the activity.
func (a *Activity) CanManage(userID string) bool {
	return userID == a.CreatedBy || userID == AdminUserID
}
