package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/jobboard/internal/joblisting"
	"github.com/hitoshi/jobboard/internal/middleware"
	"github.com/hitoshi/jobboard/internal/model"
	"github.com/hitoshi/jobboard/internal/repository"
)

// JobListingServiceInterface は求人ハンドラーが必要とするサービスインターフェース。
type JobListingServiceInterface interface {
	Create(ctx context.Context, in joblisting.CreateInput) (*model.JobListing, error)
	List(ctx context.Context, filter repository.JobListingFilter) ([]*model.JobListing, error)
	Get(ctx context.Context, id string) (*model.JobListing, error)
	Update(ctx context.Context, id string, upd model.JobListingUpdate) (*model.JobListing, error)
	Delete(ctx context.Context, id string) error
}

// JobListingHandler は求人管理のHTTPハンドラー。
// 公開中以外の求人は掲載組織のメンバーにのみ見える。
type JobListingHandler struct {
	service JobListingServiceInterface
	members middleware.MembershipChecker
}

// NewJobListingHandler はJobListingHandlerを生成する。
func NewJobListingHandler(service JobListingServiceInterface, members middleware.MembershipChecker) *JobListingHandler {
	return &JobListingHandler{service: service, members: members}
}

// jobListingResponse は求人情報のAPIレスポンス。
type jobListingResponse struct {
	ID                  string                    `json:"id"`
	OrganizationID      string                    `json:"organization_id"`
	Title               string                    `json:"title"`
	Description         string                    `json:"description"`
	Wage                *int                      `json:"wage"`
	WageInterval        *model.WageInterval       `json:"wage_interval"`
	StateAbbreviation   *string                   `json:"state_abbreviation"`
	City                *string                   `json:"city"`
	IsFeatured          bool                      `json:"is_featured"`
	LocationRequirement model.LocationRequirement `json:"location_requirement"`
	ExperienceLevel     model.ExperienceLevel     `json:"experience_level"`
	Status              model.JobListingStatus    `json:"status"`
	Type                model.JobListingType      `json:"type"`
	PostedAt            *time.Time                `json:"posted_at"`
	CreatedAt           time.Time                 `json:"created_at"`
	UpdatedAt           time.Time                 `json:"updated_at"`
}

func toJobListingResponse(j *model.JobListing) jobListingResponse {
	return jobListingResponse{
		ID:                  j.ID,
		OrganizationID:      j.OrganizationID,
		Title:               j.Title,
		Description:         j.Description,
		Wage:                j.Wage,
		WageInterval:        j.WageInterval,
		StateAbbreviation:   j.StateAbbreviation,
		City:                j.City,
		IsFeatured:          j.IsFeatured,
		LocationRequirement: j.LocationRequirement,
		ExperienceLevel:     j.ExperienceLevel,
		Status:              j.Status,
		Type:                j.Type,
		PostedAt:            j.PostedAt,
		CreatedAt:           j.CreatedAt,
		UpdatedAt:           j.UpdatedAt,
	}
}

// jobListingRequest は求人作成・更新リクエストのボディ。
// organization_idは作成時のみ使用し、更新では無視する。
type jobListingRequest struct {
	OrganizationID      string                     `json:"organization_id"`
	Title               *string                    `json:"title"`
	Description         *string                    `json:"description"`
	Wage                *int                       `json:"wage"`
	WageInterval        *model.WageInterval        `json:"wage_interval"`
	StateAbbreviation   *string                    `json:"state_abbreviation"`
	City                *string                    `json:"city"`
	IsFeatured          *bool                      `json:"is_featured"`
	LocationRequirement *model.LocationRequirement `json:"location_requirement"`
	ExperienceLevel     *model.ExperienceLevel     `json:"experience_level"`
	Status              *model.JobListingStatus    `json:"status"`
	Type                *model.JobListingType      `json:"type"`
}

// Create は求人を作成する。呼び出し元は掲載組織のメンバーである必要がある。
// POST /job_listings
func (h *JobListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req jobListingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.OrganizationID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("organization_idは必須です"))
		return
	}
	if !requireMember(w, r, h.members, req.OrganizationID) {
		return
	}

	in := joblisting.CreateInput{
		OrganizationID:    req.OrganizationID,
		Title:             model.StringValue(req.Title),
		Description:       model.StringValue(req.Description),
		Wage:              req.Wage,
		WageInterval:      req.WageInterval,
		StateAbbreviation: req.StateAbbreviation,
		City:              req.City,
	}
	if req.IsFeatured != nil {
		in.IsFeatured = *req.IsFeatured
	}
	if req.LocationRequirement != nil {
		in.LocationRequirement = *req.LocationRequirement
	}
	if req.ExperienceLevel != nil {
		in.ExperienceLevel = *req.ExperienceLevel
	}
	if req.Status != nil {
		in.Status = *req.Status
	}
	if req.Type != nil {
		in.Type = *req.Type
	}

	listing, err := h.service.Create(r.Context(), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toJobListingResponse(listing))
}

// List は求人一覧を返す。
// organization_idで自組織を指定した場合のみ、公開中以外の求人も取得できる。
// GET /job_listings?organization_id=&status=&limit=&offset=
func (h *JobListingHandler) List(w http.ResponseWriter, r *http.Request) {
	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := repository.JobListingFilter{
		OrganizationID: q.Get("organization_id"),
		Status:         model.JobListingStatus(q.Get("status")),
		Page:           page,
	}

	if filter.Status != model.JobListingStatusPublished {
		member, err := h.isMember(r, filter.OrganizationID)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		if !member {
			filter.Status = model.JobListingStatusPublished
		}
	}

	listings, err := h.service.List(r.Context(), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]jobListingResponse, 0, len(listings))
	for _, j := range listings {
		resp = append(resp, toJobListingResponse(j))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get は指定IDの求人を返す。公開中以外の求人は組織のメンバー以外には404を返す。
// GET /job_listings/{id}
func (h *JobListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	listing, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if listing.Status != model.JobListingStatusPublished {
		member, err := h.isMember(r, listing.OrganizationID)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		if !member {
			writeAPIErrorResponse(w, http.StatusNotFound, model.NewJobListingNotFoundError(id))
			return
		}
	}
	writeJSON(w, http.StatusOK, toJobListingResponse(listing))
}

// Update は求人を部分更新する。掲載組織のメンバーのみ実行できる。
// PUT /job_listings/{id}
func (h *JobListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req jobListingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	if !h.authorizeListing(w, r, id) {
		return
	}

	listing, err := h.service.Update(r.Context(), id, model.JobListingUpdate{
		Title:               req.Title,
		Description:         req.Description,
		Wage:                req.Wage,
		WageInterval:        req.WageInterval,
		StateAbbreviation:   req.StateAbbreviation,
		City:                req.City,
		IsFeatured:          req.IsFeatured,
		LocationRequirement: req.LocationRequirement,
		ExperienceLevel:     req.ExperienceLevel,
		Status:              req.Status,
		Type:                req.Type,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toJobListingResponse(listing))
}

// Delete は求人を削除する。掲載組織のメンバーのみ実行できる。
// DELETE /job_listings/{id}
func (h *JobListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.authorizeListing(w, r, id) {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// authorizeListing は求人を取得し、呼び出し元が掲載組織のメンバーであることを確認する。
func (h *JobListingHandler) authorizeListing(w http.ResponseWriter, r *http.Request, id string) bool {
	listing, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return false
	}
	return requireMember(w, r, h.members, listing.OrganizationID)
}

// isMember は呼び出し元がorgIDのメンバーかどうかを返す。orgIDが空の場合はfalse。
func (h *JobListingHandler) isMember(r *http.Request, orgID string) (bool, error) {
	if orgID == "" {
		return false, nil
	}
	clerkID, err := middleware.ClerkUserIDFromContext(r.Context())
	if err != nil {
		return false, nil
	}
	return h.members.IsMember(r.Context(), clerkID, orgID)
}
