// handlers/users.go
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"activity-points/database"
	"activity-points/events"
	"activity-points/middleware"
	"activity-points/models"

	"github.com/gorilla/mux"
)

// UpdateUserRequest carries the editable parts of a user. Profile and settings
// are decoded onto the stored values, so only the keys present change.
type UpdateUserRequest struct {
	Name     *string         `json:"name"`
	Profile  json.RawMessage `json:"profile"`
	Settings json.RawMessage `json:"settings"`
}

func targetUserID(r *http.Request) string {
	if id := mux.Vars(r)["id"]; id != "" {
		return id
	}
	return models.DemoUserID
}

// GetUser returns the profile view for the path id, or the demo profile when
// that id is unknown.
func GetUser(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		user, ok, err := env.Store.Users.Get(ctx, targetUserID(r))
		if err == nil && !ok {
			user, ok, err = env.Store.Users.Get(ctx, models.DemoUserID)
		}
		if err != nil {
			internalError(w, r, err)
			return
		}
		if !ok {
			respondErr(w, r, errUserNotFound)
			return
		}
		view, err := userView(ctx, env.Store, user)
		if err != nil {
			internalError(w, r, err)
			return
		}
		view.Email = ""
		respondSuccess(w, http.StatusOK, "", map[string]interface{}{"user": view})
	}
}

func UpdateUser(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateUserRequest
		if err := decodeBody(r, &req); err != nil {
			badBody(w)
			return
		}

		ctx := r.Context()
		now := time.Now().UTC()
		user, err := env.Store.Users.Update(ctx, targetUserID(r), func(u models.User, exists bool) (models.User, error) {
			if !exists {
				return u, errUserNotFound
			}
			if req.Name != nil && *req.Name != "" {
				u.Name = *req.Name
			}
			if len(req.Profile) > 0 {
				if err := json.Unmarshal(req.Profile, &u.Profile); err != nil {
					return u, fail(http.StatusBadRequest, "Invalid profile")
				}
			}
			if len(req.Settings) > 0 {
				if err := json.Unmarshal(req.Settings, &u.Settings); err != nil {
					return u, fail(http.StatusBadRequest, "Invalid settings")
				}
			}
			u.UpdatedAt = now
			return u, nil
		})
		if err != nil {
			respondErr(w, r, err)
			return
		}
		env.publish(ctx, events.UserUpdated, user.ID, user.Summary())

		view, err := userView(ctx, env.Store, user)
		if err != nil {
			internalError(w, r, err)
			return
		}
		view.Email = ""
		respondSuccess(w, http.StatusOK, "Profile updated successfully", map[string]interface{}{"user": view})
	}
}

// DeleteUser removes a user together with its ledger and the activities it
// created. Only the user itself may do this, and never the demo user.
func DeleteUser(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := targetUserID(r)
		if id == models.DemoUserID {
			respondError(w, http.StatusForbidden, "Cannot delete demo user")
			return
		}
		switch middleware.TokenStateFrom(ctx) {
		case middleware.TokenAbsent:
			respondError(w, http.StatusUnauthorized, "No token provided")
			return
		case middleware.TokenInvalid:
			respondError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		if middleware.IdentityFrom(ctx).UserID != id {
			respondError(w, http.StatusForbidden, "Not authorized to delete this user")
			return
		}

		deleted, err := env.Store.Users.Delete(ctx, id)
		if err != nil {
			internalError(w, r, err)
			return
		}
		if !deleted {
			respondErr(w, r, errUserNotFound)
			return
		}
		if _, err := env.Store.Ledgers.Delete(ctx, id); err != nil {
			internalError(w, r, err)
			return
		}
		created, err := env.Store.Activities.List(ctx, database.Query{}.Match(database.Eq("createdBy", id)))
		if err != nil {
			internalError(w, r, err)
			return
		}
		for _, a := range created {
			if _, err := env.Store.Activities.Delete(ctx, a.ID); err != nil {
				internalError(w, r, err)
				return
			}
		}
		env.publish(ctx, events.UserDeleted, id, map[string]int{"activitiesRemoved": len(created)})

		respondSuccess(w, http.StatusOK, "User deleted successfully", nil)
	}
}
