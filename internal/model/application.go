package model

import "time"

// MinRating と MaxRating は応募評価の範囲。
const (
	MinRating = 1
	MaxRating = 5
)

// JobListingApplication はユーザーの求人への応募を表す。
// (JobListingID, UserID) の組で一意になる。
type JobListingApplication struct {
	JobListingID string
	UserID       string
	CoverLetter  *string // サニタイズ済みHTML
	Rating       *int
	Stage        ApplicationStage
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// JobListingApplicationUpdate は応募の部分更新内容を表す。
type JobListingApplicationUpdate struct {
	CoverLetter *string
	Rating      *int
	Stage       *ApplicationStage
}

// Apply は指定されたフィールドのみを応募に反映する。
func (a *JobListingApplication) Apply(upd JobListingApplicationUpdate) {
	applyOptional(&a.CoverLetter, upd.CoverLetter)
	if upd.Rating != nil {
		v := *upd.Rating
		a.Rating = &v
	}
	if upd.Stage != nil {
		a.Stage = *upd.Stage
	}
}

// ApplicationStage は応募の選考段階を表す。
type ApplicationStage string

const (
	StageDenied      ApplicationStage = "denied"
	StageApplied     ApplicationStage = "applied"
	StageInterested  ApplicationStage = "interested"
	StageInterviewed ApplicationStage = "interviewed"
	StageHired       ApplicationStage = "hired"
)

// Valid は定義済みの値かどうかを返す。
func (s ApplicationStage) Valid() bool {
	switch s {
	case StageDenied, StageApplied, StageInterested, StageInterviewed, StageHired:
		return true
	}
	return false
}

// ValidRating は評価が許容範囲内かどうかを返す。
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
