package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/jobboard/internal/model"
	"github.com/hitoshi/jobboard/internal/repository"
	"github.com/hitoshi/jobboard/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	CurrentUserResolver
	Create(ctx context.Context, in user.CreateInput) (*model.User, error)
	List(ctx context.Context, page repository.Page) ([]*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	Update(ctx context.Context, clerkID string, upd model.UserUpdate) (*model.User, error)
	// Withdraw はユーザーの退会処理を実行する。
	// 応募・設定・履歴書はDBのCASCADEで削除される。
	Withdraw(ctx context.Context, clerkID string) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID          string    `json:"id"`
	ClerkID     string    `json:"clerk_id"`
	Email       string    `json:"email"`
	FirstName   *string   `json:"first_name"`
	LastName    *string   `json:"last_name"`
	PhoneNumber *string   `json:"phone_number"`
	ImageURL    *string   `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:          u.ID,
		ClerkID:     u.ClerkID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		PhoneNumber: u.PhoneNumber,
		ImageURL:    u.ImageURL,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// userRequest はユーザー作成・更新リクエストのボディ。
// 更新時はnullまたは未指定のフィールドを変更しない。
type userRequest struct {
	Email       *string `json:"email"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	PhoneNumber *string `json:"phone_number"`
	ImageURL    *string `json:"image_url"`
}

// Create は認証済みClerkユーザーのローカルレコードを作成する。
// clerk_idはトークンのsubjectを使用し、ボディでは指定できない。
// POST /users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	clerkID, ok := clerkUserID(w, r)
	if !ok {
		return
	}

	var req userRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.service.Create(r.Context(), user.CreateInput{
		ClerkID:     clerkID,
		Email:       model.StringValue(req.Email),
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

// List はユーザー一覧を返す。
// GET /users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	users, err := h.service.List(r.Context(), page)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get は指定IDのユーザーを返す。
// GET /users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// Me は認証済みユーザー自身の情報を返す。
// GET /users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r, h.service)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// UpdateMe は認証済みユーザー自身の情報を部分更新する。
// PUT /users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	clerkID, ok := clerkUserID(w, r)
	if !ok {
		return
	}

	var req userRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.service.Update(r.Context(), clerkID, model.UserUpdate{
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// Withdraw はユーザーの退会処理を実行する。
// DELETE /users/me
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	clerkID, ok := clerkUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Withdraw(r.Context(), clerkID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
