// models/leaderboard.go

package models

type LeaderboardEntry struct {
	Rank        int     `json:"rank" yaml:"rank"`
	UserID      string  `json:"userId" yaml:"userId"`
	Name        string  `json:"name" yaml:"name"`
	Country     string  `json:"country,omitempty" yaml:"country"`
	CountryName string  `json:"countryName,omitempty" yaml:"countryName"`
	Points      int     `json:"points" yaml:"points"`
	Avatar      *string `json:"avatar" yaml:"avatar"`
	Badge       string  `json:"badge,omitempty" yaml:"badge"`
}

type Country struct {
	Code string `json:"code" yaml:"code"`
	Name string `json:"name" yaml:"name"`
	Flag string `json:"flag" yaml:"flag"`
}

// UserRank is the result of a rank lookup across the fixtures.
type UserRank struct {
	UserID      string   `json:"userId"`
	WorldRank   *int     `json:"worldRank"`
	CountryRank *int     `json:"countryRank"`
	Country     *Country `json:"country"`
}
