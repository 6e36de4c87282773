// handlers/activities.go
package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"activity-points/database"
	"activity-points/events"
	"activity-points/middleware"
	"activity-points/models"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	defaultActivityType    = "general"
	defaultActivityTime    = "12:00"
	defaultActivityPlace   = "TBD"
	defaultMaxParticipants = 10
	defaultPointsReward    = 50
)

type CreateActivityRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Type            string `json:"type"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	Location        string `json:"location"`
	MaxParticipants int    `json:"maxParticipants"`
	PointsReward    int    `json:"pointsReward"`
}

// UpdateActivityRequest lists the only fields an update may touch.
type UpdateActivityRequest struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	Type            *string `json:"type"`
	Date            *string `json:"date"`
	Time            *string `json:"time"`
	Location        *string `json:"location"`
	MaxParticipants *int    `json:"maxParticipants"`
	PointsReward    *int    `json:"pointsReward"`
}

type InviteRequest struct {
	FriendIDs []string `json:"friendIds"`
	Message   string   `json:"message"`
}

// callerID is the resolved user, or the demo identity for anonymous callers.
func callerID(r *http.Request) string {
	return middleware.IdentityFrom(r.Context()).OrDemo()
}

func ListActivities(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := r.URL.Query()
		q := database.Query{}
		if t := params.Get("type"); t != "" {
			q = q.Match(database.Eq("type", t))
		}
		if s := params.Get("status"); s != "" {
			q = q.Match(database.Eq("status", s))
		}
		if search := strings.TrimSpace(params.Get("search")); search != "" {
			q = q.Match(database.Contains("name", search), database.Contains("description", search))
		}
		q = q.Sort("date", false)

		activities, err := env.Store.Activities.List(r.Context(), q)
		if err != nil {
			internalError(w, r, err)
			return
		}
		respondSuccess(w, http.StatusOK, "", map[string]interface{}{
			"activities": activities,
			"total":      len(activities),
		})
	}
}

// MyActivities lists what the caller created or joined.
func MyActivities(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := callerID(r)
		q := database.Query{}.Match(
			database.Eq("createdBy", userID),
			database.Has("participants", userID),
		)
		activities, err := env.Store.Activities.List(r.Context(), q)
		if err != nil {
			internalError(w, r, err)
			return
		}
		respondSuccess(w, http.StatusOK, "", map[string]interface{}{
			"activities": activities,
			"total":      len(activities),
		})
	}
}

func GetActivity(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		activity, ok, err := env.Store.Activities.Get(ctx, mux.Vars(r)["id"])
		if err != nil {
			internalError(w, r, err)
			return
		}
		if !ok {
			respondErr(w, r, errActivityNotFound)
			return
		}

		participants := make([]models.UserSummary, 0, len(activity.Participants))
		for _, id := range activity.Participants {
			u, found, err := env.Store.Users.Get(ctx, id)
			if err != nil {
				internalError(w, r, err)
				return
			}
			if found {
				participants = append(participants, u.Summary())
			} else {
				participants = append(participants, models.UserSummary{ID: id})
			}
		}

		respondSuccess(w, http.StatusOK, "", map[string]interface{}{
			"activity":     activity,
			"participants": participants,
		})
	}
}

func CreateActivity(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateActivityRequest
		if err := decodeBody(r, &req); err != nil {
			badBody(w)
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		req.Date = strings.TrimSpace(req.Date)
		if req.Name == "" || req.Date == "" {
			respondError(w, http.StatusBadRequest, "Name and date are required")
			return
		}

		now := time.Now().UTC()
		activity := models.Activity{
			ID:              "act-" + uuid.NewString(),
			Name:            req.Name,
			Description:     req.Description,
			Type:            orDefault(req.Type, defaultActivityType),
			Date:            req.Date,
			Time:            orDefault(req.Time, defaultActivityTime),
			Location:        orDefault(req.Location, defaultActivityPlace),
			MaxParticipants: req.MaxParticipants,
			PointsReward:    req.PointsReward,
			Status:          models.StatusPending,
			CreatedBy:       callerID(r),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if activity.MaxParticipants <= 0 {
			activity.MaxParticipants = defaultMaxParticipants
		}
		if activity.PointsReward <= 0 {
			activity.PointsReward = defaultPointsReward
		}
		activity.Normalize()

		if _, err := env.Store.Activities.Set(r.Context(), activity.ID, activity); err != nil {
			internalError(w, r, err)
			return
		}
		env.publish(r.Context(), events.ActivityCreated, activity.ID, activity)

		respondSuccess(w, http.StatusCreated, "Activity created successfully", map[string]interface{}{
			"activity": activity,
		})
	}
}

func UpdateActivity(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateActivityRequest
		if err := decodeBody(r, &req); err != nil {
			badBody(w)
			return
		}
		if req.MaxParticipants != nil && *req.MaxParticipants < 1 {
			respondError(w, http.StatusBadRequest, "maxParticipants must be at least 1")
			return
		}
		if req.PointsReward != nil && *req.PointsReward < 0 {
			respondError(w, http.StatusBadRequest, "pointsReward cannot be negative")
			return
		}

		userID := callerID(r)
		id := mux.Vars(r)["id"]
		activity, err := env.Store.Activities.Update(r.Context(), id, func(a models.Activity, exists bool) (models.Activity, error) {
			if !exists {
				return a, errActivityNotFound
			}
			if !a.CanManage(userID) {
				return a, fail(http.StatusForbidden, "Not authorized to update this activity")
			}
			applyString(&a.Name, req.Name)
			applyString(&a.Description, req.Description)
			applyString(&a.Type, req.Type)
			applyString(&a.Date, req.Date)
			applyString(&a.Time, req.Time)
			applyString(&a.Location, req.Location)
			if req.MaxParticipants != nil {
				a.MaxParticipants = *req.MaxParticipants
			}
			if req.PointsReward != nil {
				a.PointsReward = *req.PointsReward
			}
			a.Normalize()
			a.UpdatedAt = time.Now().UTC()
			return a, nil
		})
		if err != nil {
			respondErr(w, r, err)
			return
		}
		env.publish(r.Context(), events.ActivityUpdated, activity.ID, activity)

		respondSuccess(w, http.StatusOK, "Activity updated successfully", map[string]interface{}{
			"activity": activity,
		})
	}
}

func JoinActivity(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := callerID(r)
		activity, err := env.Store.Activities.Update(r.Context(), mux.Vars(r)["id"], func(a models.Activity, exists bool) (models.Activity, error) {
			if !exists {
				return a, errActivityNotFound
			}
			if a.HasParticipant(userID) {
				return a, fail(http.StatusBadRequest, "Already joined this activity")
			}
			if a.IsFull() {
				return a, fail(http.StatusBadRequest, "Activity is full")
			}
			a.Participants = append(a.Participants, userID)
			a.Normalize()
			a.UpdatedAt = time.Now().UTC()
			return a, nil
		})
		if err != nil {
			respondErr(w, r, err)
			return
		}
		env.publish(r.Context(), events.ActivityJoined, activity.ID, map[string]string{"userId": userID})

		respondSuccess(w, http.StatusOK, "Successfully joined activity", map[string]interface{}{
			"activity": activity,
		})
	}
}

func LeaveActivity(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := callerID(r)
		activity, err := env.Store.Activities.Update(r.Context(), mux.Vars(r)["id"], func(a models.Activity, exists bool) (models.Activity, error) {
			if !exists {
				return a, errActivityNotFound
			}
			if !a.HasParticipant(userID) {
				return a, fail(http.StatusBadRequest, "Not a participant of this activity")
			}
			kept := make([]string, 0, len(a.Participants))
			for _, p := range a.Participants {
				if p != userID {
					kept = append(kept, p)
				}
			}
			a.Participants = kept
			a.Normalize()
			a.UpdatedAt = time.Now().UTC()
			return a, nil
		})
		if err != nil {
			respondErr(w, r, err)
			return
		}
		env.publish(r.Context(), events.ActivityLeft, activity.ID, map[string]string{"userId": userID})

		respondSuccess(w, http.StatusOK, "Successfully left activity", map[string]interface{}{
			"activity": activity,
		})
	}
}

// InviteToActivity records invitations. Recipients are not checked against
// the users collection.
func InviteToActivity(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req InviteRequest
		if err := decodeBody(r, &req); err != nil {
			badBody(w)
			return
		}
		friendIDs := make([]string, 0, len(req.FriendIDs))
		for _, id := range req.FriendIDs {
			if id = strings.TrimSpace(id); id != "" {
				friendIDs = append(friendIDs, id)
			}
		}

		id := mux.Vars(r)["id"]
		activity, err := env.Store.Activities.Update(r.Context(), id, func(a models.Activity, exists bool) (models.Activity, error) {
			if !exists {
				return a, errActivityNotFound
			}
			if len(friendIDs) == 0 {
				return a, fail(http.StatusBadRequest, "Friend IDs are required")
			}
			seen := make(map[string]bool, len(a.Invited))
			for _, inv := range a.Invited {
				seen[inv] = true
			}
			for _, f := range friendIDs {
				if !seen[f] {
					a.Invited = append(a.Invited, f)
					seen[f] = true
				}
			}
			a.Normalize()
			a.UpdatedAt = time.Now().UTC()
			return a, nil
		})
		if err != nil {
			respondErr(w, r, err)
			return
		}
		env.publish(r.Context(), events.ActivityInvited, activity.ID, map[string]interface{}{
			"from":      callerID(r),
			"friendIds": friendIDs,
			"message":   req.Message,
		})

		respondSuccess(w, http.StatusOK, fmt.Sprintf("Invitations sent to %d friends", len(friendIDs)), map[string]interface{}{
			"invitedFriends": friendIDs,
		})
	}
}

func DeleteActivity(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := mux.Vars(r)["id"]
		activity, ok, err := env.Store.Activities.Get(ctx, id)
		if err != nil {
			internalError(w, r, err)
			return
		}
		if !ok {
			respondErr(w, r, errActivityNotFound)
			return
		}
		if !activity.CanManage(callerID(r)) {
			respondError(w, http.StatusForbidden, "Not authorized to delete this activity")
			return
		}
		if _, err := env.Store.Activities.Delete(ctx, id); err != nil {
			internalError(w, r, err)
			return
		}
		env.publish(ctx, events.ActivityDeleted, id, nil)

		respondSuccess(w, http.StatusOK, "Activity deleted successfully", nil)
	}
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func applyString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
