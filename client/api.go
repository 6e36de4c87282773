package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"activity-points/models"
)

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type AuthResult struct {
	Message string          `json:"message"`
	Token   string          `json:"token"`
	User    models.UserView `json:"user"`
}

type VerifyResult struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type ActivityFilter struct {
	Type   string
	Status string
	Search string
}

type NewActivity struct {
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	Type            string `json:"type,omitempty"`
	Date            string `json:"date"`
	Time            string `json:"time,omitempty"`
	Location        string `json:"location,omitempty"`
	MaxParticipants int    `json:"maxParticipants,omitempty"`
	PointsReward    int    `json:"pointsReward,omitempty"`
}

// ActivityUpdate sends only the non-nil fields.
type ActivityUpdate struct {
	Name            *string `json:"name,omitempty"`
	Description     *string `json:"description,omitempty"`
	Type            *string `json:"type,omitempty"`
	Date            *string `json:"date,omitempty"`
	Time            *string `json:"time,omitempty"`
	Location        *string `json:"location,omitempty"`
	MaxParticipants *int    `json:"maxParticipants,omitempty"`
	PointsReward    *int    `json:"pointsReward,omitempty"`
}

type ActivityDetail struct {
	Activity     models.Activity      `json:"activity"`
	Participants []models.UserSummary `json:"participants"`
}

type Conversion struct {
	ConvertedAmount float64       `json:"convertedAmount"`
	Currency        string        `json:"currency"`
	Points          models.Ledger `json:"points"`
}

type LeaderboardPage struct {
	Leaders []models.LeaderboardEntry `json:"leaders"`
	Total   int                       `json:"total"`
	Limit   int                       `json:"limit"`
	Offset  int                       `json:"offset"`
}

type CountryBoard struct {
	Country           models.Country            `json:"country"`
	Leaders           []models.LeaderboardEntry `json:"leaders"`
	TotalParticipants int                       `json:"totalParticipants"`
}

// UserUpdate carries partial profile and settings documents; keys left out
// keep their stored values.
type UserUpdate struct {
	Name     string                 `json:"name,omitempty"`
	Profile  map[string]interface{} `json:"profile,omitempty"`
	Settings map[string]interface{} `json:"settings,omitempty"`
}

type activityBody struct {
	Activity models.Activity `json:"activity"`
}

type activitiesBody struct {
	Activities []models.Activity `json:"activities"`
}

type ledgerBody struct {
	Points models.Ledger `json:"points"`
}

type userBody struct {
	User models.UserView `json:"user"`
}

// Auth

func (c *Client) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/register", in, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var out AuthResult
	in := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", in, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// Logout forgets the token even when the request fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.SetToken("")
	return err
}

func (c *Client) Verify(ctx context.Context) (*VerifyResult, error) {
	var out VerifyResult
	if err := c.do(ctx, http.MethodGet, "/auth/verify", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*models.UserView, error) {
	var out userBody
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/forgot-password", map[string]string{"email": email}, nil)
}

// Activities

func (c *Client) ListActivities(ctx context.Context, f ActivityFilter) ([]models.Activity, error) {
	q := url.Values{}
	if f.Type != "" {
		q.Set("type", f.Type)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	path := "/activities"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out activitiesBody
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Activities, nil
}

func (c *Client) MyActivities(ctx context.Context) ([]models.Activity, error) {
	var out activitiesBody
	if err := c.do(ctx, http.MethodGet, "/activities/my", nil, &out); err != nil {
		return nil, err
	}
	return out.Activities, nil
}

func (c *Client) GetActivity(ctx context.Context, id string) (*ActivityDetail, error) {
	var out ActivityDetail
	if err := c.do(ctx, http.MethodGet, "/activities/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateActivity(ctx context.Context, in NewActivity) (*models.Activity, error) {
	return c.activityCall(ctx, http.MethodPost, "/activities", in)
}

func (c *Client) UpdateActivity(ctx context.Context, id string, in ActivityUpdate) (*models.Activity, error) {
	return c.activityCall(ctx, http.MethodPut, "/activities/"+url.PathEscape(id), in)
}

func (c *Client) JoinActivity(ctx context.Context, id string) (*models.Activity, error) {
	return c.activityCall(ctx, http.MethodPost, "/activities/"+url.PathEscape(id)+"/join", nil)
}

func (c *Client) LeaveActivity(ctx context.Context, id string) (*models.Activity, error) {
	return c.activityCall(ctx, http.MethodPost, "/activities/"+url.PathEscape(id)+"/leave", nil)
}

func (c *Client) activityCall(ctx context.Context, method, path string, in interface{}) (*models.Activity, error) {
	var out activityBody
	if err := c.do(ctx, method, path, in, &out); err != nil {
		return nil, err
	}
	return &out.Activity, nil
}

// InviteToActivity returns the ids the server recorded as invited.
func (c *Client) InviteToActivity(ctx context.Context, id string, friendIDs []string, message string) ([]string, error) {
	in := map[string]interface{}{"friendIds": friendIDs, "message": message}
	var out struct {
		InvitedFriends []string `json:"invitedFriends"`
	}
	if err := c.do(ctx, http.MethodPost, "/activities/"+url.PathEscape(id)+"/invite", in, &out); err != nil {
		return nil, err
	}
	return out.InvitedFriends, nil
}

func (c *Client) DeleteActivity(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/activities/"+url.PathEscape(id), nil, nil)
}

// Points

func (c *Client) Points(ctx context.Context) (*models.Ledger, error) {
	return c.ledgerCall(ctx, http.MethodGet, "/points", nil)
}

func (c *Client) PointsHistory(ctx context.Context) ([]models.HistoryEntry, error) {
	var out struct {
		History []models.HistoryEntry `json:"history"`
	}
	if err := c.do(ctx, http.MethodGet, "/points/history", nil, &out); err != nil {
		return nil, err
	}
	return out.History, nil
}

func (c *Client) Rates(ctx context.Context) (map[string]float64, error) {
	var out struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := c.do(ctx, http.MethodGet, "/points/rates", nil, &out); err != nil {
		return nil, err
	}
	return out.Rates, nil
}

func (c *Client) AddPoints(ctx context.Context, amount int, description string) (*models.Ledger, error) {
	in := map[string]interface{}{"amount": amount, "description": description}
	return c.ledgerCall(ctx, http.MethodPost, "/points/add", in)
}

func (c *Client) Donate(ctx context.Context, amount int, recipient, message string) (*models.Ledger, error) {
	in := map[string]interface{}{"amount": amount, "recipient": recipient, "message": message}
	return c.ledgerCall(ctx, http.MethodPost, "/points/donate", in)
}

func (c *Client) Transfer(ctx context.Context, amount int, recipientID, note string) (*models.Ledger, error) {
	in := map[string]interface{}{"amount": amount, "recipientId": recipientID, "note": note}
	return c.ledgerCall(ctx, http.MethodPost, "/points/transfer", in)
}

func (c *Client) Convert(ctx context.Context, amount int, currency string) (*Conversion, error) {
	in := map[string]interface{}{"amount": amount, "currency": currency}
	var out Conversion
	if err := c.do(ctx, http.MethodPost, "/points/convert", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ledgerCall(ctx context.Context, method, path string, in interface{}) (*models.Ledger, error) {
	var out ledgerBody
	if err := c.do(ctx, method, path, in, &out); err != nil {
		return nil, err
	}
	return &out.Points, nil
}

// Leaderboard

func (c *Client) Leaderboard(ctx context.Context) (*LeaderboardPage, error) {
	var out LeaderboardPage
	if err := c.do(ctx, http.MethodGet, "/leaderboard", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WorldLeaderboard pages the world list; a zero limit uses the server default.
func (c *Client) WorldLeaderboard(ctx context.Context, limit, offset int) (*LeaderboardPage, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	path := "/leaderboard/world"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out LeaderboardPage
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Countries(ctx context.Context) ([]models.Country, error) {
	var out struct {
		Countries []models.Country `json:"countries"`
	}
	if err := c.do(ctx, http.MethodGet, "/leaderboard/countries", nil, &out); err != nil {
		return nil, err
	}
	return out.Countries, nil
}

func (c *Client) CountryLeaderboard(ctx context.Context, code string) (*CountryBoard, error) {
	var out CountryBoard
	if err := c.do(ctx, http.MethodGet, "/leaderboard/country/"+url.PathEscape(code), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UserRank(ctx context.Context, userID string) (*models.UserRank, error) {
	var out models.UserRank
	if err := c.do(ctx, http.MethodGet, "/leaderboard/user/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Users

func (c *Client) GetUser(ctx context.Context, id string) (*models.UserView, error) {
	var out userBody
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, in UserUpdate) (*models.UserView, error) {
	var out userBody
	if err := c.do(ctx, http.MethodPut, "/users/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil)
}
