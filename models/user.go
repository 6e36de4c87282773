// models/user.go
package models

import (
	"time"
)

// DemoUserID is the fallback identity used by permissive routes.
const DemoUserID = "demo"

// AdminUserID may update or delete any activity.
const AdminUserID = "admin"

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	Name         string    `json:"name"`
	Profile      Profile   `json:"profile"`
	Settings     Settings  `json:"settings"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Profile struct {
	Title    string       `json:"title"`
	Location string       `json:"location"`
	Bio      string       `json:"bio"`
	Avatar   *string      `json:"avatar"`
	Phone    string       `json:"phone,omitempty"`
	Website  string       `json:"website,omitempty"`
	Country  string       `json:"country,omitempty"`
	Social   SocialLinks  `json:"social"`
	Stats    ProfileStats `json:"stats"`
}

type SocialLinks struct {
	Twitter  string `json:"twitter,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
}

type ProfileStats struct {
	Posts     int `json:"posts"`
	Followers int `json:"followers"`
	Following int `json:"following"`
}

// UserView is what the API returns for a user; it never carries the password hash.
type UserView struct {
	ID       string        `json:"id"`
	Username string        `json:"username"`
	Email    string        `json:"email,omitempty"`
	Name     string        `json:"name"`
	Profile  Profile       `json:"profile"`
	Points   *PointsTotals `json:"points,omitempty"`
	Settings Settings      `json:"settings"`
}

// UserSummary is the short form used in participant lists.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

func (u User) View(points *PointsTotals) UserView {
	return UserView{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Name:     u.Name,
		Profile:  u.Profile,
		Points:   points,
		Settings: u.Settings,
	}
}

func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Name: u.Name}
}
