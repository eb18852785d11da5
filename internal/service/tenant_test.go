package service

import (
	"errors"
	"testing"

	"opinian/internal/model"
	"opinian/internal/role"
)

func TestProvisionTenantForNewAdmin(t *testing.T) {
	db := setupTestDB(t)
	_, super := createAccount(t, db, "root", role.SuperAdmin, nil)

	tenant, admin, err := ProvisionTenantForNewAdmin(super, "Acme", "Acme Corp", AccountDraft{
		Username: "alice",
		Email:    "alice@acme.test",
		Password: "secret123",
	}, testMeta)
	if err != nil {
		t.Fatalf("provision failed: %v", err)
	}

	if tenant.AdminAccountID == nil || *tenant.AdminAccountID != admin.ID {
		t.Errorf("tenant admin not linked: %v", tenant.AdminAccountID)
	}
	if !tenant.Active {
		t.Error("new tenant should be active")
	}
	if admin.Role != string(role.Admin) {
		t.Errorf("admin role = %s, want Admin", admin.Role)
	}
	if admin.TenantID == nil || *admin.TenantID != tenant.ID {
		t.Errorf("admin not placed in tenant: %v", admin.TenantID)
	}

	// the provisioning leaves an audit trail
	var count int64
	if err := db.Model(&model.AuditLogEntry{}).Where("action = ?", "provision_tenant").Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 provision_tenant audit entry, got %d", count)
	}
}

func TestProvisionDuplicateTenantName(t *testing.T) {
	db := setupTestDB(t)
	_, super := createAccount(t, db, "root", role.SuperAdmin, nil)

	if _, _, err := ProvisionTenantForNewAdmin(super, "Acme", "", AccountDraft{
		Username: "alice", Email: "alice@acme.test", Password: "secret123",
	}, testMeta); err != nil {
		t.Fatalf("first provision failed: %v", err)
	}

	_, _, err := ProvisionTenantForNewAdmin(super, "Acme", "", AccountDraft{
		Username: "bob", Email: "bob@acme.test", Password: "secret123",
	}, testMeta)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	var count int64
	if err := db.Model(&model.Tenant{}).Where("name = ?", "Acme").Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected exactly one Acme tenant, got %d", count)
	}
}

func TestProvisionRollsBackOnDuplicateAdmin(t *testing.T) {
	db := setupTestDB(t)
	_, super := createAccount(t, db, "root", role.SuperAdmin, nil)
	createAccount(t, db, "alice", role.User, nil)

	// username collides, so the account insert fails after the tenant insert
	_, _, err := ProvisionTenantForNewAdmin(super, "Acme", "", AccountDraft{
		Username: "alice", Email: "other@acme.test", Password: "secret123",
	}, testMeta)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// the whole transaction rolled back: no tenant row remains
	var count int64
	if err := db.Model(&model.Tenant{}).Where("name = ?", "Acme").Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("expected no Acme tenant after rollback, got %d", count)
	}
}

func TestCreateTenantRequiresSuperAdmin(t *testing.T) {
	db := setupTestDB(t)
	tenant := createTenant(t, db, "Existing")
	_, admin := createAccount(t, db, "admin", role.Admin, &tenant.ID)

	if _, err := CreateTenant(admin, "Another", "", testMeta); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestReassignAdmin(t *testing.T) {
	db := setupTestDB(t)
	_, super := createAccount(t, db, "root", role.SuperAdmin, nil)
	tenant := createTenant(t, db, "Acme")
	adminAccount, _ := createAccount(t, db, "alice", role.Admin, &tenant.ID)
	userAccount, _ := createAccount(t, db, "bob", role.User, &tenant.ID)

	// a plain User cannot administer a tenant
	if _, err := ReassignAdmin(super, tenant.ID, userAccount.ID, testMeta); !errors.Is(err, ErrInvalidAdminRole) {
		t.Fatalf("expected ErrInvalidAdminRole, got %v", err)
	}

	updated, err := ReassignAdmin(super, tenant.ID, adminAccount.ID, testMeta)
	if err != nil {
		t.Fatalf("reassign failed: %v", err)
	}
	if updated.AdminAccountID == nil || *updated.AdminAccountID != adminAccount.ID {
		t.Errorf("admin not reassigned: %v", updated.AdminAccountID)
	}
}

func TestReassignAdminUnknownTenant(t *testing.T) {
	db := setupTestDB(t)
	_, super := createAccount(t, db, "root", role.SuperAdmin, nil)

	if _, err := ReassignAdmin(super, 9999, 1, testMeta); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetTenantActiveDoesNotCascade(t *testing.T) {
	db := setupTestDB(t)
	_, super := createAccount(t, db, "root", role.SuperAdmin, nil)
	tenant := createTenant(t, db, "Acme")
	account, _ := createAccount(t, db, "alice", role.Admin, &tenant.ID)

	updated, err := SetTenantActive(super, tenant.ID, false, testMeta)
	if err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if updated.Active {
		t.Error("tenant should be inactive")
	}

	// deactivation only flips the flag; member accounts stay untouched
	var reloaded model.Account
	if err := db.First(&reloaded, account.ID).Error; err != nil {
		t.Fatal(err)
	}
	if !reloaded.Active {
		t.Error("member account must not be deactivated with the tenant")
	}
}

func TestGetTenantScoping(t *testing.T) {
	db := setupTestDB(t)
	tenantA := createTenant(t, db, "Acme")
	tenantB := createTenant(t, db, "Globex")
	_, adminA := createAccount(t, db, "alice", role.Admin, &tenantA.ID)

	if _, err := GetTenant(adminA, tenantA.ID); err != nil {
		t.Fatalf("admin should see its own tenant: %v", err)
	}

	// other tenants stay invisible, not just forbidden
	if _, err := GetTenant(adminA, tenantB.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
