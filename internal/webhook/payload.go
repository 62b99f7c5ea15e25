package webhook

import (
	"encoding/json"
	"fmt"
)

// Envelope はWebhookの最上位ペイロード。
// リクエストごとに生成され、永続化されない。
type Envelope struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ParseEnvelope はリクエストボディをEnvelopeに変換する。
// JSONとして解釈できない場合はデコードエラーを返す。
func ParseEnvelope(body []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, fmt.Errorf("invalid JSON payload: %w", err)
	}
	return env, nil
}

// ClerkUser はユーザー同期に必要なdataの部分集合。
// 各フィールドは値が存在しない場合nilになる。
type ClerkUser struct {
	ID          string
	Email       *string
	PhoneNumber *string
	FirstName   *string
	LastName    *string
	ImageURL    *string
}

// parseClerkUser はdataを寛容に解釈する。
// 配列の先頭要素が欠けている・形式が異なる場合はそのフィールドを未指定として扱う。
func parseClerkUser(data json.RawMessage) (ClerkUser, error) {
	var raw map[string]json.RawMessage
	if len(data) > 0 {
		if err := json.Unmarshal(data, &raw); err != nil {
			return ClerkUser{}, NewPayloadError("data must be an object", nil)
		}
	}

	u := ClerkUser{
		ID:          stringField(raw, "id"),
		Email:       firstNestedString(raw["email_addresses"], "email_address"),
		PhoneNumber: firstNestedString(raw["phone_numbers"], "phone_number"),
		FirstName:   optionalString(raw, "first_name"),
		LastName:    optionalString(raw, "last_name"),
		ImageURL:    optionalString(raw, "image_url"),
	}
	if u.ID == "" {
		return ClerkUser{}, NewPayloadError("missing Clerk ID", nil)
	}
	return u, nil
}

func stringField(raw map[string]json.RawMessage, key string) string {
	if p := optionalString(raw, key); p != nil {
		return *p
	}
	return ""
}

// optionalString は文字列型の値のみを返す。nullや他の型はnil。
func optionalString(raw map[string]json.RawMessage, key string) *string {
	v, ok := raw[key]
	if !ok {
		return nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil || s == "" {
		return nil
	}
	return &s
}

func firstNestedString(list json.RawMessage, key string) *string {
	if len(list) == 0 {
		return nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(list, &entries); err != nil || len(entries) == 0 {
		return nil
	}
	var first map[string]json.RawMessage
	if err := json.Unmarshal(entries[0], &first); err != nil {
		return nil
	}
	return optionalString(first, key)
}
