// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// ClerkIDは外部IdP（Clerk）上のユーザーIDで、一度設定されたら変更しない。
type User struct {
	ID          string
	ClerkID     string
	Email       string
	FirstName   *string
	LastName    *string
	PhoneNumber *string
	ImageURL    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserUpdate はユーザーの部分更新内容を表す。
// nilのフィールドは「指定なし」として扱い、既存の値を維持する。
type UserUpdate struct {
	Email       *string
	FirstName   *string
	LastName    *string
	PhoneNumber *string
	ImageURL    *string
}

// IsEmpty は更新対象のフィールドが1つもない場合にtrueを返す。
func (u UserUpdate) IsEmpty() bool {
	return u.Email == nil && u.FirstName == nil && u.LastName == nil &&
		u.PhoneNumber == nil && u.ImageURL == nil
}

// Apply は指定されたフィールドのみをユーザーに反映する。
// ClerkIDとIDは更新対象に含まない。値が変化した場合にtrueを返す。
func (u *User) Apply(upd UserUpdate) bool {
	changed := false
	if upd.Email != nil && *upd.Email != u.Email {
		u.Email = *upd.Email
		changed = true
	}
	changed = applyOptional(&u.FirstName, upd.FirstName) || changed
	changed = applyOptional(&u.LastName, upd.LastName) || changed
	changed = applyOptional(&u.PhoneNumber, upd.PhoneNumber) || changed
	changed = applyOptional(&u.ImageURL, upd.ImageURL) || changed
	return changed
}

// applyOptional はsrcが指定されている場合にdstへコピーする。
func applyOptional(dst **string, src *string) bool {
	if src == nil {
		return false
	}
	if *dst != nil && **dst == *src {
		return false
	}
	v := *src
	*dst = &v
	return true
}

// StringPtr は文字列のポインタを返す。空文字列の場合はnilを返す。
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue はポインタが指す文字列を返す。nilの場合は空文字列を返す。
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
