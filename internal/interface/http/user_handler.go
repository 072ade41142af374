package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/campuskit/users-service/internal/application"
	"github.com/campuskit/users-service/internal/domain/entity"
	"github.com/campuskit/users-service/internal/domain/repository"
	"github.com/campuskit/users-service/pkg/response"
	"github.com/campuskit/users-service/pkg/validation"
)

type UserHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

// userRequest is the write-side DTO. The id is part of the body so update
// requests can be checked against the path id before the service is hit.
type userRequest struct {
	ID           int64  `json:"id,omitempty"`
	LoginName    string `json:"login_name" binding:"required,login_name"`
	EmailAddress string `json:"email_address" binding:"required,email"`
	FirstName    string `json:"first_name" binding:"required,min=1,max=255"`
	LastName     string `json:"last_name" binding:"required,min=1,max=255"`
}

type userResponse struct {
	ID           int64  `json:"id"`
	LoginName    string `json:"login_name"`
	EmailAddress string `json:"email_address"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func toResponse(u entity.User) userResponse {
	return userResponse{
		ID:           u.ID,
		LoginName:    u.LoginName,
		EmailAddress: u.EmailAddress,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		CreatedAt:    u.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:    u.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toDomain(req userRequest) entity.User {
	return entity.User{
		ID:           req.ID,
		LoginName:    req.LoginName,
		EmailAddress: req.EmailAddress,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error[any](c, http.StatusBadRequest, "invalid user id", map[string]string{"id": "must be a positive integer"})
		return 0, false
	}
	return id, true
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.Svc.GetAll(c.Request.Context())
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "failed to list users", nil)
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toResponse(u))
	}
	response.Success(c, http.StatusOK, out, "users", map[string]any{"count": len(out)})
}

func (h *UserHandler) GetByID(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	u, err := h.Svc.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
			return
		}
		response.Error[any](c, http.StatusInternalServerError, "failed to retrieve user", nil)
		return
	}
	response.Success(c, http.StatusOK, toResponse(u), "user", nil)
}

// Filter resolves a user by its unique login name, passed as ?name=.
func (h *UserHandler) Filter(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		response.Error[any](c, http.StatusBadRequest, "missing name parameter", map[string]string{"name": "is required"})
		return
	}
	u, err := h.Svc.GetByName(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
			return
		}
		response.Error[any](c, http.StatusInternalServerError, "failed to retrieve user", nil)
		return
	}
	response.Success(c, http.StatusOK, toResponse(u), "user", nil)
}

func (h *UserHandler) Create(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if req.ID != 0 {
		response.Error[any](c, http.StatusBadRequest, "id must not be set on create", map[string]string{"id": "must be absent"})
		return
	}

	created, err := h.Svc.Upsert(c.Request.Context(), toDomain(req))
	if err != nil {
		h.writeUpsertError(c, err)
		return
	}
	c.Header("Location", "/api/users/"+strconv.FormatInt(created.ID, 10))
	response.Success(c, http.StatusCreated, toResponse(created), "user created", nil)
}

func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	// Boundary-level identity check; the service never sees a mismatch.
	if req.ID != id {
		response.Error[any](c, http.StatusBadRequest, "user id in path and body do not match", map[string]string{"id": "must match the path id"})
		return
	}

	updated, err := h.Svc.Upsert(c.Request.Context(), toDomain(req))
	if err != nil {
		h.writeUpsertError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toResponse(updated), "user updated", nil)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
			return
		}
		response.Error[any](c, http.StatusInternalServerError, "failed to delete user", nil)
		return
	}
	c.Status(http.StatusNoContent)
}

// Clear wipes all users. Administrative endpoint, intended for test
// environments.
func (h *UserHandler) Clear(c *gin.Context) {
	if err := h.Svc.Clear(c.Request.Context()); err != nil {
		response.Error[any](c, http.StatusInternalServerError, "failed to clear users", nil)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "missing q parameter", map[string]string{"q": "is required"})
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.SearchUsers(c.Request.Context(), q, size)
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "search failed", nil)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", map[string]any{"count": len(hits)})
}

func (h *UserHandler) writeUpsertError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
	case errors.Is(err, repository.ErrDuplicateLoginName):
		response.Error[any](c, http.StatusBadRequest, "login name already in use", map[string]string{"login_name": "must be unique"})
	default:
		if h.Logger != nil {
			h.Logger.WithError(err).Error("upsert failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "failed to persist user", nil)
	}
}
