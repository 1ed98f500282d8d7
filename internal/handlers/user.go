package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pointsboard/apiserver/internal/services"
	"github.com/pointsboard/apiserver/internal/store"
	"github.com/pointsboard/apiserver/types"
)

// UserHandler provides HTTP handlers for user records and the leaderboard.
type UserHandler struct {
	userService        *services.UserService
	leaderboardService *services.LeaderboardService
}

// NewUserHandler constructs a handler with the provided services.
func NewUserHandler(userService *services.UserService, leaderboardService *services.LeaderboardService) *UserHandler {
	return &UserHandler{
		userService:        userService,
		leaderboardService: leaderboardService,
	}
}

// UserRouter registers user routes on the given router.
func UserRouter(r chi.Router, userService *services.UserService, leaderboardService *services.LeaderboardService) {
	handler := NewUserHandler(userService, leaderboardService)

	r.Get("/", handler.ListUsers)
	r.Post("/", handler.CreateUser)
	r.Get("/grouped", handler.GroupedUsers)
	r.Route("/{userID}", func(r chi.Router) {
		r.Get("/", handler.GetUser)
		r.Delete("/", handler.DeleteUser)
		r.Patch("/points", handler.UpdatePoints)
	})
}

// ListUsers returns all users, optionally filtered by a case-insensitive
// name substring (?search=) and sorted by any user field
// (?sort_by=, ?order=asc|desc, default points descending).
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	opts := store.ListOptions{
		Search:    strings.TrimSpace(r.URL.Query().Get("search")),
		SortBy:    strings.TrimSpace(r.URL.Query().Get("sort_by")),
		Ascending: strings.EqualFold(r.URL.Query().Get("order"), "asc"),
	}

	users, err := h.userService.List(r.Context(), opts)
	if err != nil {
		if errors.Is(err, store.ErrInvalidSortField) {
			writeError(w, http.StatusBadRequest, "invalid sort field")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// CreateUserRequest is the creation payload. Points are not accepted:
// every user starts at 0.
type CreateUserRequest struct {
	Name    string `json:"name"`
	Age     int    `json:"age"`
	Address string `json:"address"`
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)
	if req.Name == "" || req.Address == "" {
		writeError(w, http.StatusBadRequest, "name and address are required")
		return
	}

	created, err := h.userService.Create(r.Context(), types.User{
		Name:    req.Name,
		Age:     req.Age,
		Address: req.Address,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.userService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "user deleted"})
}

// UpdatePointsRequest carries the signed delta applied to a user's points.
type UpdatePointsRequest struct {
	PointsChange int `json:"points_change"`
}

// PointsResponse confirms an increment and carries the new total.
type PointsResponse struct {
	Message string `json:"message"`
	Points  int    `json:"points"`
}

func (h *UserHandler) UpdatePoints(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req UpdatePointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	points, err := h.userService.AdjustPoints(r.Context(), id, req.PointsChange)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update points")
		return
	}

	writeJSON(w, http.StatusOK, PointsResponse{Message: "points updated", Points: points})
}

// GroupedUsersResponse maps a points value, as text, to its leaderboard
// bucket.
type GroupedUsersResponse map[string]LeaderboardBucket

// LeaderboardBucket is one group of the leaderboard payload.
type LeaderboardBucket struct {
	Names      []string `json:"names"`
	AverageAge float64  `json:"average_age"`
}

// GroupedUsers returns the leaderboard keyed by points value.
func (h *UserHandler) GroupedUsers(w http.ResponseWriter, r *http.Request) {
	groups, err := h.leaderboardService.Groups(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to group users")
		return
	}

	writeJSON(w, http.StatusOK, GroupedResponse(groups))
}

// GroupedResponse converts leaderboard buckets to the wire shape.
func GroupedResponse(groups []types.LeaderboardGroup) GroupedUsersResponse {
	resp := make(GroupedUsersResponse, len(groups))
	for _, group := range groups {
		resp[strconv.Itoa(group.Points)] = LeaderboardBucket{
			Names:      group.Names,
			AverageAge: group.AverageAge,
		}
	}
	return resp
}

func parseUserID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "userID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid user id")
	}
	return id, nil
}
