package service

import (
	"sync"
	"testing"
	"time"

	"opinian/internal/model"
	"opinian/internal/notify"
	"opinian/internal/role"
	"opinian/pkg/database"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB points the global database at a fresh in-memory sqlite store
// with the full schema migrated
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&model.Tenant{},
		&model.Account{},
		&model.Content{},
		&model.ModerationQueueItem{},
		&model.AuditLogEntry{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	database.DB = db
	return db
}

// createAccount inserts an account row directly and returns it with its actor
func createAccount(t *testing.T, db *gorm.DB, username string, r role.Role, tenantID *uint) (*model.Account, Actor) {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	account := model.Account{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hashed),
		Role:         string(r),
		TenantID:     tenantID,
		Active:       true,
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("failed to create account %s: %v", username, err)
	}

	return &account, Actor{
		AccountID: account.ID,
		Username:  account.Username,
		Email:     account.Email,
		Role:      r,
		TenantID:  tenantID,
	}
}

// createTenant inserts a tenant row directly
func createTenant(t *testing.T, db *gorm.DB, name string) *model.Tenant {
	t.Helper()

	tenant := model.Tenant{Name: name, Active: true}
	if err := db.Create(&tenant).Error; err != nil {
		t.Fatalf("failed to create tenant %s: %v", name, err)
	}
	return &tenant
}

// spyNotifier records notifications for assertions
type spyNotifier struct {
	mu    sync.Mutex
	calls []notify.Notification
}

func (s *spyNotifier) Notify(n notify.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, n)
	return nil
}

func (s *spyNotifier) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *spyNotifier) last() notify.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return notify.Notification{}
	}
	return s.calls[len(s.calls)-1]
}

// waitForCalls polls until the spy has seen n notifications or the deadline
// passes. Notifications are delivered asynchronously after the decision
// commits.
func (s *spyNotifier) waitForCalls(t *testing.T, n int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.count() >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d notifications, got %d", n, s.count())
}

// installSpy swaps in a spy notifier and restores the default afterwards
func installSpy(t *testing.T) *spyNotifier {
	t.Helper()

	spy := &spyNotifier{}
	SetNotifier(spy)
	t.Cleanup(func() { SetNotifier(notify.LogNotifier{}) })
	return spy
}

var testMeta = RequestMeta{IPAddress: "127.0.0.1", UserAgent: "go-test"}
