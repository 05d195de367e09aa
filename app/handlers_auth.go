package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"courseboard/content"
)

// ------------------- Auth Handlers -------------------

// authTokenHandler exchanges credentials for a viewer token scoped to the
// caller's participation in one course.
func authTokenHandler(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Course = strings.TrimSpace(req.Course)
	if req.Course == "" {
		http.Error(w, "Course required", http.StatusBadRequest)
		return
	}
	user, ok := authenticateUser(db, req.Username, req.Password)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx := r.Context()
	course, err := store.CourseByPublicID(ctx, req.Course)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			http.Error(w, "Course not found", http.StatusNotFound)
			return
		}
		log.WithError(err).Error("Failed to load course")
		http.Error(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}
	participation, err := store.ParticipationForUser(ctx, course.ID, user.ID)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			http.Error(w, "Not enrolled in course", http.StatusForbidden)
			return
		}
		log.WithError(err).Error("Failed to load participation")
		http.Error(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}

	token, expiresAt, err := issueJWT(participation.PublicID, course.PublicID, auth.TokenTTL)
	if err != nil {
		http.Error(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}
	respondJSON(w, map[string]interface{}{
		"token":         token,
		"participation": participation.PublicID,
		"expires_at":    expiresAt.UTC().Format(time.RFC3339),
	})
}
