package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"eliteapply/internal/api/middleware"
	"eliteapply/internal/database"
	"eliteapply/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// stubTokens 把 "user-<id>" 视为合法访问令牌。
type stubTokens struct{}

func (stubTokens) ParseAccess(token string) (database.UserID, error) {
	var id uint
	if _, err := fmt.Sscanf(token, "user-%d", &id); err != nil || id == 0 {
		return 0, errors.New("bad token")
	}
	return database.UserID(id), nil
}

func newTestEngine() *gin.Engine {
	r := gin.New()
	r.Use(middleware.CorrelationIDMiddleware())
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, user database.UserID, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != 0 {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer user-%d", user))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return out
}

type fakeBlobs struct {
	mu       sync.Mutex
	objects  map[string][]byte
	deleted  []string
	statSize map[string]int64
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string][]byte{}, statSize: map[string]int64{}}
}

func (f *fakeBlobs) PresignedUploadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://minio.invalid/upload/" + key, nil
}

func (f *fakeBlobs) StatObject(_ context.Context, key string) (storage.ObjectMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if size, ok := f.statSize[key]; ok {
		return storage.ObjectMeta{Key: key, Size: size}, nil
	}
	data, ok := f.objects[key]
	if !ok {
		return storage.ObjectMeta{}, storage.ErrObjectNotFound
	}
	return storage.ObjectMeta{Key: key, Size: int64(len(data))}, nil
}

func (f *fakeBlobs) UploadFile(_ context.Context, key string, r io.Reader, _ int64, _ string) (*minio.UploadInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return &minio.UploadInfo{Key: key, Size: int64(len(data))}, nil
}

func (f *fakeBlobs) GeneratePresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://minio.invalid/download/" + key, nil
}

func (f *fakeBlobs) DeleteObject(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	delete(f.objects, key)
	return nil
}

type fakeScheduler struct {
	mu        sync.Mutex
	scheduled []database.ResumeID
}

func (f *fakeScheduler) ScheduleExtraction(_ context.Context, id database.ResumeID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, id)
	return nil
}

// memoryRedis 实现 SessionStore 与 extension.KV 所需的 Redis 子集。
type memoryRedis struct {
	mu      sync.Mutex
	values  map[string]string
	expires map[string]time.Time
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{values: map[string]string{}, expires: map[string]time.Time{}}
}

func (m *memoryRedis) Incr(_ context.Context, key string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	fmt.Sscanf(m.values[key], "%d", &n)
	n++
	m.values[key] = fmt.Sprint(n)
	return redis.NewIntResult(n, nil)
}

func (m *memoryRedis) Expire(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expires[key] = time.Now().Add(ttl)
	return redis.NewBoolResult(true, nil)
}

func (m *memoryRedis) TTL(_ context.Context, key string) *redis.DurationCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.expires[key]
	if _, exists := m.values[key]; !exists || !ok {
		return redis.NewDurationResult(-2*time.Second, nil)
	}
	return redis.NewDurationResult(time.Until(exp), nil)
}

func (m *memoryRedis) Get(_ context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memoryRedis) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		m.values[key] = string(v)
	default:
		m.values[key] = fmt.Sprint(v)
	}
	if ttl > 0 {
		m.expires[key] = time.Now().Add(ttl)
	}
	return redis.NewStatusResult("OK", nil)
}

func (m *memoryRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := m.values[k]; ok {
			n++
		}
		delete(m.values, k)
		delete(m.expires, k)
	}
	return redis.NewIntResult(n, nil)
}
