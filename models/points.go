package models

import "time"

// History entry types.
const (
	EntryEarned      = "earned"
	EntryDonated     = "donated"
	EntryUtilized    = "utilized"
	EntryTransferred = "transferred"
	EntryReceived    = "received"
	EntryConverted   = "converted"
)

// WelcomeBonus is credited to every new ledger at registration.
const WelcomeBonus = 100

type PointsTotals struct {
	Total     int `json:"total"`
	Donated   int `json:"donated"`
	Utilized  int `json:"utilized"`
	Available int `json:"available"`
}

type Ledger struct {
	UserID string `json:"userId"`
	PointsTotals
	History []HistoryEntry `json:"history"`
}

type HistoryEntry struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Amount      int       `json:"amount"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewLedger returns an empty ledger for userID.
func NewLedger(userID string) Ledger {
	return Ledger{UserID: userID, History: []HistoryEntry{}}
}

// Balanced reports whether total == available + donated + utilized.
func (l Ledger) Balanced() bool {
	return l.Total == l.Available+l.Donated+l.Utilized
}

// Rates converts points into currency units.
var Rates = map[string]float64{
	"USD": 0.01,
	"EUR": 0.009,
	"GBP": 0.008,
	"INR": 0.83,
}
