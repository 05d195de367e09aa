package app

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ------------------- Viewer Tokens -------------------

// tokenClaims bind a token to one participation in one course.
type tokenClaims struct {
	Sub    string `json:"sub"`
	Course string `json:"crs"`
	Exp    int64  `json:"exp"`
}

// requireViewer resolves the bearer token to a participation of the course
// named in the route. It writes the error response itself.
func requireViewer(w http.ResponseWriter, r *http.Request, coursePublicID string) (*viewer, bool) {
	claims, ok := getBearerClaims(r)
	if !ok || claims.Course != coursePublicID {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	ctx := r.Context()
	course, err := store.CourseByPublicID(ctx, claims.Course)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	participation, err := store.CourseParticipation(ctx, course.ID, claims.Sub)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	return &viewer{Course: course, Participation: participation}, true
}

func getBearerClaims(r *http.Request) (tokenClaims, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return tokenClaims{}, false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return tokenClaims{}, false
	}
	return verifyJWT(parts[1])
}

func issueJWT(participation, course string, ttl time.Duration) (string, time.Time, error) {
	if participation == "" || course == "" {
		return "", time.Time{}, fmt.Errorf("missing participation or course")
	}
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	exp := time.Now().Add(ttl).Unix()
	payloadBytes, err := json.Marshal(tokenClaims{Sub: participation, Course: course, Exp: exp})
	if err != nil {
		return "", time.Time{}, err
	}
	payload := base64.RawURLEncoding.EncodeToString(payloadBytes)
	unsigned := header + "." + payload

	token := unsigned + "." + signJWT(unsigned)
	return token, time.Unix(exp, 0), nil
}

func signJWT(unsigned string) string {
	mac := hmac.New(sha256.New, auth.JWTSecret)
	_, _ = mac.Write([]byte(unsigned))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func verifyJWT(token string) (tokenClaims, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return tokenClaims{}, false
	}
	expected := signJWT(parts[0] + "." + parts[1])
	if !hmac.Equal([]byte(parts[2]), []byte(expected)) {
		return tokenClaims{}, false
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return tokenClaims{}, false
	}
	var claims tokenClaims
	if err := json.Unmarshal(payloadBytes, &claims); err != nil {
		return tokenClaims{}, false
	}
	if claims.Sub == "" || claims.Course == "" {
		return tokenClaims{}, false
	}
	if time.Now().Unix() > claims.Exp {
		return tokenClaims{}, false
	}
	return claims, true
}
