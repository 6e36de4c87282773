// Package fixtures embeds the demo seed data and the static leaderboard.
package fixtures

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"activity-points/models"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml leaderboard.yaml
var files embed.FS

type Seed struct {
	Users      []models.User     `json:"users"`
	Ledgers    []models.Ledger   `json:"ledgers"`
	Activities []models.Activity `json:"activities"`
}

// LoadSeed decodes seed.yaml. The YAML is routed through JSON so the models'
// json tags name the fields.
func LoadSeed() (*Seed, error) {
	raw, err := files.ReadFile("seed.yaml")
	if err != nil {
		return nil, err
	}
	var doc interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse seed.yaml: %w", err)
	}
	js, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("convert seed.yaml: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(js, &seed); err != nil {
		return nil, fmt.Errorf("decode seed.yaml: %w", err)
	}
	return &seed, nil
}

type Leaderboard struct {
	Countries      []models.Country                     `yaml:"countries"`
	CountryLeaders map[string][]models.LeaderboardEntry `yaml:"countryLeaders"`
	World          []models.LeaderboardEntry            `yaml:"world"`
}

func LoadLeaderboard() (*Leaderboard, error) {
	raw, err := files.ReadFile("leaderboard.yaml")
	if err != nil {
		return nil, err
	}
	var lb Leaderboard
	if err := yaml.Unmarshal(raw, &lb); err != nil {
		return nil, fmt.Errorf("parse leaderboard.yaml: %w", err)
	}
	return &lb, nil
}

// Country looks up a catalog entry by code, ignoring case.
func (lb *Leaderboard) Country(code string) (models.Country, bool) {
	code = strings.ToUpper(code)
	for _, c := range lb.Countries {
		if c.Code == code {
			return c, true
		}
	}
	return models.Country{}, false
}

// Leaders returns the country's top list.
func (lb *Leaderboard) Leaders(code string) ([]models.LeaderboardEntry, bool) {
	leaders, ok := lb.CountryLeaders[strings.ToUpper(code)]
	return leaders, ok
}

// Rank scans the world list and every country list for userID.
func (lb *Leaderboard) Rank(userID string) models.UserRank {
	out := models.UserRank{UserID: userID}
	for _, e := range lb.World {
		if e.UserID == userID {
			rank := e.Rank
			out.WorldRank = &rank
			break
		}
	}
	for code, leaders := range lb.CountryLeaders {
		for _, e := range leaders {
			if e.UserID != userID {
				continue
			}
			rank := e.Rank
			out.CountryRank = &rank
			if c, ok := lb.Country(code); ok {
				out.Country = &c
			} else {
				out.Country = &models.Country{Code: code, Name: code}
			}
			return out
		}
	}
	return out
}
