// handlers/leaderboard.go
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"activity-points/models"

	"github.com/gorilla/mux"
)

const (
	topLeaders       = 10
	defaultWorldPage = 15
)

func queryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 0 {
		return def
	}
	return n
}

func page(entries []models.LeaderboardEntry, limit, offset int) []models.LeaderboardEntry {
	if offset >= len(entries) {
		return []models.LeaderboardEntry{}
	}
	end := offset + limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[offset:end]
}

func Leaderboard(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		world := env.Leaderboard.World
		respondSuccess(w, http.StatusOK, "", map[string]interface{}{
			"leaders": page(world, topLeaders, 0),
			"total":   len(world),
		})
	}
}

func WorldLeaderboard(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := queryInt(r, "limit", defaultWorldPage)
		if limit == 0 {
			limit = defaultWorldPage
		}
		offset := queryInt(r, "offset", 0)
		world := env.Leaderboard.World
		respondSuccess(w, http.StatusOK, "", map[string]interface{}{
			"leaders": page(world, limit, offset),
			"total":   len(world),
			"limit":   limit,
			"offset":  offset,
		})
	}
}

func Countries(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondSuccess(w, http.StatusOK, "", map[string]interface{}{
			"countries": env.Leaderboard.Countries,
		})
	}
}

func CountryLeaderboard(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.ToUpper(mux.Vars(r)["code"])
		leaders, ok := env.Leaderboard.Leaders(code)
		if !ok {
			respondError(w, http.StatusNotFound, "Country not found")
			return
		}
		country, ok := env.Leaderboard.Country(code)
		if !ok {
			country = models.Country{Code: code, Name: code}
		}
		respondSuccess(w, http.StatusOK, "", map[string]interface{}{
			"country":           country,
			"leaders":           leaders,
			"totalParticipants": len(leaders) * 100,
		})
	}
}

// UserRank reports where a user sits on the world and country lists; ranks
// are null when the user is not listed.
func UserRank(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rank := env.Leaderboard.Rank(mux.Vars(r)["id"])
		respondSuccess(w, http.StatusOK, "", map[string]interface{}{
			"userId":      rank.UserID,
			"worldRank":   rank.WorldRank,
			"countryRank": rank.CountryRank,
			"country":     rank.Country,
		})
	}
}
