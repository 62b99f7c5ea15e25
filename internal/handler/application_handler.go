package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/jobboard/internal/application"
	"github.com/hitoshi/jobboard/internal/middleware"
	"github.com/hitoshi/jobboard/internal/model"
	"github.com/hitoshi/jobboard/internal/repository"
)

// ApplicationServiceInterface は応募ハンドラーが必要とするサービスインターフェース。
type ApplicationServiceInterface interface {
	Create(ctx context.Context, in application.CreateInput) (*model.JobListingApplication, error)
	List(ctx context.Context, filter repository.ApplicationFilter) ([]*model.JobListingApplication, error)
	Get(ctx context.Context, jobListingID, userID string) (*model.JobListingApplication, error)
	Update(ctx context.Context, jobListingID, userID string, upd model.JobListingApplicationUpdate) (*model.JobListingApplication, error)
	Delete(ctx context.Context, jobListingID, userID string) error
}

// JobListingGetter は応募先求人の掲載組織を調べるために使用する。
type JobListingGetter interface {
	Get(ctx context.Context, id string) (*model.JobListing, error)
}

// ApplicationHandler は応募管理のHTTPハンドラー。
// 応募は応募者本人と掲載組織のメンバーのみが参照できる。
type ApplicationHandler struct {
	service  ApplicationServiceInterface
	listings JobListingGetter
	users    CurrentUserResolver
	members  middleware.MembershipChecker
}

// NewApplicationHandler はApplicationHandlerを生成する。
func NewApplicationHandler(
	service ApplicationServiceInterface,
	listings JobListingGetter,
	users CurrentUserResolver,
	members middleware.MembershipChecker,
) *ApplicationHandler {
	return &ApplicationHandler{
		service:  service,
		listings: listings,
		users:    users,
		members:  members,
	}
}

// applicationResponse は応募情報のAPIレスポンス。
type applicationResponse struct {
	JobListingID string                 `json:"job_listing_id"`
	UserID       string                 `json:"user_id"`
	CoverLetter  *string                `json:"cover_letter"`
	Rating       *int                   `json:"rating"`
	Stage        model.ApplicationStage `json:"stage"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

func toApplicationResponse(a *model.JobListingApplication) applicationResponse {
	return applicationResponse{
		JobListingID: a.JobListingID,
		UserID:       a.UserID,
		CoverLetter:  a.CoverLetter,
		Rating:       a.Rating,
		Stage:        a.Stage,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// applicationCreateRequest は応募作成リクエストのボディ。
type applicationCreateRequest struct {
	JobListingID string  `json:"job_listing_id"`
	CoverLetter  *string `json:"cover_letter"`
}

// applicationUpdateRequest は応募更新リクエストのボディ。
// cover_letterは応募者本人、rating・stageは組織のメンバーのみ変更できる。
type applicationUpdateRequest struct {
	CoverLetter *string                 `json:"cover_letter"`
	Rating      *int                    `json:"rating"`
	Stage       *model.ApplicationStage `json:"stage"`
}

// Create は認証済みユーザーとして求人に応募する。
// POST /job_listing_applications
func (h *ApplicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r, h.users)
	if !ok {
		return
	}

	var req applicationCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	app, err := h.service.Create(r.Context(), application.CreateInput{
		JobListingID: req.JobListingID,
		UserID:       u.ID,
		CoverLetter:  req.CoverLetter,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toApplicationResponse(app))
}

// List は応募一覧を返す。
// job_listing_idを指定した場合は掲載組織のメンバーとしてその求人への応募を、
// 指定しない場合は自分の応募を返す。
// GET /job_listing_applications?job_listing_id=&limit=&offset=
func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	filter := repository.ApplicationFilter{Page: page}
	if jobListingID := r.URL.Query().Get("job_listing_id"); jobListingID != "" {
		listing, err := h.listings.Get(r.Context(), jobListingID)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		if !requireMember(w, r, h.members, listing.OrganizationID) {
			return
		}
		filter.JobListingID = jobListingID
	} else {
		u, ok := currentUser(w, r, h.users)
		if !ok {
			return
		}
		filter.UserID = u.ID
	}

	apps, err := h.service.List(r.Context(), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]applicationResponse, 0, len(apps))
	for _, a := range apps {
		resp = append(resp, toApplicationResponse(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get は応募を返す。
// GET /job_listing_applications/{job_listing_id}/{user_id}
func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	jobListingID, userID := chi.URLParam(r, "job_listing_id"), chi.URLParam(r, "user_id")
	if _, ok := h.authorize(w, r, jobListingID, userID); !ok {
		return
	}

	app, err := h.service.Get(r.Context(), jobListingID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationResponse(app))
}

// Update は応募を部分更新する。
// PUT /job_listing_applications/{job_listing_id}/{user_id}
func (h *ApplicationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req applicationUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	jobListingID, userID := chi.URLParam(r, "job_listing_id"), chi.URLParam(r, "user_id")
	access, ok := h.authorize(w, r, jobListingID, userID)
	if !ok {
		return
	}
	if (req.Rating != nil || req.Stage != nil) && !access.member {
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewForbiddenError("評価と選考段階は組織のメンバーのみ変更できます"))
		return
	}
	if req.CoverLetter != nil && !access.applicant {
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewForbiddenError("カバーレターは応募者本人のみ変更できます"))
		return
	}

	app, err := h.service.Update(r.Context(), jobListingID, userID, model.JobListingApplicationUpdate{
		CoverLetter: req.CoverLetter,
		Rating:      req.Rating,
		Stage:       req.Stage,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationResponse(app))
}

// Delete は応募を削除する。
// DELETE /job_listing_applications/{job_listing_id}/{user_id}
func (h *ApplicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	jobListingID, userID := chi.URLParam(r, "job_listing_id"), chi.URLParam(r, "user_id")
	if _, ok := h.authorize(w, r, jobListingID, userID); !ok {
		return
	}

	if err := h.service.Delete(r.Context(), jobListingID, userID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// applicationAccess は呼び出し元と応募の関係。
type applicationAccess struct {
	applicant bool
	member    bool
}

// authorize は呼び出し元が応募者本人または掲載組織のメンバーであることを確認する。
// どちらでもない場合は403を書き込む。
func (h *ApplicationHandler) authorize(w http.ResponseWriter, r *http.Request, jobListingID, userID string) (applicationAccess, bool) {
	var access applicationAccess

	clerkID, ok := clerkUserID(w, r)
	if !ok {
		return access, false
	}

	u, err := h.users.GetByClerkID(r.Context(), clerkID)
	var apiErr *model.APIError
	switch {
	case err == nil:
		access.applicant = u.ID == userID
	case errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeUserNotFound:
		// ローカルユーザーがいない組織メンバーもいる
	default:
		handleServiceError(w, err)
		return access, false
	}

	listing, err := h.listings.Get(r.Context(), jobListingID)
	if err != nil {
		handleServiceError(w, err)
		return access, false
	}
	access.member, err = h.members.IsMember(r.Context(), clerkID, listing.OrganizationID)
	if err != nil {
		handleServiceError(w, err)
		return access, false
	}

	if !access.applicant && !access.member {
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewForbiddenError("応募者本人または組織のメンバーではありません"))
		return access, false
	}
	return access, true
}
