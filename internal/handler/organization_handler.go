package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/jobboard/internal/middleware"
	"github.com/hitoshi/jobboard/internal/model"
	"github.com/hitoshi/jobboard/internal/organization"
	"github.com/hitoshi/jobboard/internal/repository"
)

// OrganizationServiceInterface は組織ハンドラーが必要とするサービスインターフェース。
type OrganizationServiceInterface interface {
	Create(ctx context.Context, in organization.CreateInput) (*model.Organization, error)
	List(ctx context.Context, page repository.Page) ([]*model.Organization, error)
	Get(ctx context.Context, id string) (*model.Organization, error)
	Update(ctx context.Context, id string, upd model.OrganizationUpdate) (*model.Organization, error)
	Delete(ctx context.Context, id string) error
}

// OrganizationHandler は組織管理のHTTPハンドラー。
// 更新・削除のメンバーシップ確認はルーター側のRequireOrganizationMemberで行う。
type OrganizationHandler struct {
	service OrganizationServiceInterface
	members middleware.MembershipChecker
}

// NewOrganizationHandler はOrganizationHandlerを生成する。
func NewOrganizationHandler(service OrganizationServiceInterface, members middleware.MembershipChecker) *OrganizationHandler {
	return &OrganizationHandler{service: service, members: members}
}

// organizationResponse は組織情報のAPIレスポンス。
type organizationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ImageURL  *string   `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toOrganizationResponse(o *model.Organization) organizationResponse {
	return organizationResponse{
		ID:        o.ID,
		Name:      o.Name,
		ImageURL:  o.ImageURL,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

// organizationRequest は組織作成・更新リクエストのボディ。
// idは作成時のみ使用する。
type organizationRequest struct {
	ID       string  `json:"id"`
	Name     *string `json:"name"`
	ImageURL *string `json:"image_url"`
}

// Create は組織を登録する。呼び出し元はClerk上で当該組織のメンバーである必要がある。
// POST /organizations
func (h *OrganizationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req organizationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("idは必須です"))
		return
	}
	if !requireMember(w, r, h.members, req.ID) {
		return
	}

	org, err := h.service.Create(r.Context(), organization.CreateInput{
		ID:       req.ID,
		Name:     model.StringValue(req.Name),
		ImageURL: req.ImageURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrganizationResponse(org))
}

// List は組織一覧を返す。
// GET /organizations
func (h *OrganizationHandler) List(w http.ResponseWriter, r *http.Request) {
	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	orgs, err := h.service.List(r.Context(), page)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]organizationResponse, 0, len(orgs))
	for _, o := range orgs {
		resp = append(resp, toOrganizationResponse(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get は指定IDの組織を返す。
// GET /organizations/{id}
func (h *OrganizationHandler) Get(w http.ResponseWriter, r *http.Request) {
	org, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrganizationResponse(org))
}

// Update は組織を部分更新する。
// PUT /organizations/{id}
func (h *OrganizationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req organizationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	org, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), model.OrganizationUpdate{
		Name:     req.Name,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrganizationResponse(org))
}

// Delete は組織を削除する。求人と組織ユーザー設定もCASCADE削除される。
// DELETE /organizations/{id}
func (h *OrganizationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
