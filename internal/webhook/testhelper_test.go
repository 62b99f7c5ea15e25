package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/jobboard/internal/model"
)

// testSecret はsvix形式（whsec_ + base64）のテスト用シークレット。
const testSecret = "whsec_MfKQ9r8GKYqrTwjUPD8ILPZIo2LaLaSw"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sign はsvix方式でペイロードに署名したヘッダーを返す。
func sign(t *testing.T, msgID string, ts time.Time, body []byte) http.Header {
	t.Helper()
	return signAt(t, msgID, fmt.Sprintf("%d", ts.Unix()), body)
}

// signAt は任意のsvix-timestamp文字列で署名したヘッダーを返す。
func signAt(t *testing.T, msgID, timestamp string, body []byte) http.Header {
	t.Helper()
	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(testSecret, "whsec_"))
	if err != nil {
		t.Fatalf("secret decode failed: %v", err)
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(msgID + "." + timestamp + "." + string(body)))

	h := http.Header{}
	h.Set(HeaderID, msgID)
	h.Set(HeaderTimestamp, timestamp)
	h.Set(HeaderSignature, "v1,"+base64.StdEncoding.EncodeToString(mac.Sum(nil)))
	return h
}

// memStore はテスト用のインメモリUserStore。
type memStore struct {
	mu      sync.Mutex
	byID    map[string]*model.User
	findErr error
	saveErr error
	delErr  error
	creates int
}

func newMemStore() *memStore {
	return &memStore{byID: make(map[string]*model.User)}
}

func (m *memStore) FindByClerkID(_ context.Context, clerkID string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.byID {
		if u.ClerkID == clerkID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	for _, u := range m.byID {
		if u.ClerkID == user.ClerkID || u.Email == user.Email {
			return errors.New("duplicate key")
		}
	}
	cp := *user
	m.byID[user.ID] = &cp
	m.creates++
	return nil
}

func (m *memStore) Update(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *user
	m.byID[user.ID] = &cp
	return nil
}

func (m *memStore) DeleteByID(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.delErr != nil {
		return false, m.delErr
	}
	if _, ok := m.byID[id]; !ok {
		return false, nil
	}
	delete(m.byID, id)
	return true, nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

func (m *memStore) seed(u model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[u.ID] = &u
}
