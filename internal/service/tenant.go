package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"opinian/internal/model"
	"opinian/internal/role"
	"opinian/pkg/database"
	"opinian/prometheus"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AccountDraft carries the fields of an account to be created
type AccountDraft struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

func (d AccountDraft) validate() error {
	if len(strings.TrimSpace(d.Username)) < 3 {
		return fmt.Errorf("username must be at least 3 characters: %w", ErrValidation)
	}
	if len(d.Password) < 6 {
		return fmt.Errorf("password must be at least 6 characters: %w", ErrValidation)
	}
	if !strings.Contains(d.Email, "@") {
		return fmt.Errorf("invalid email address: %w", ErrValidation)
	}
	return nil
}

// CreateTenant creates a new tenant. Name uniqueness is enforced by the
// storage unique index, not a check-then-insert sequence, so two concurrent
// creations with the same name yield exactly one success.
func CreateTenant(actor Actor, name, description string, meta RequestMeta) (*model.Tenant, error) {
	if actor.Role != role.SuperAdmin {
		return nil, ErrPermissionDenied
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("tenant name is required: %w", ErrValidation)
	}

	prometheus.RecordTenantOperation("create")
	defer prometheus.TrackDBOperation("insert")(time.Now())

	tenant := model.Tenant{
		Name:        name,
		Description: description,
		Active:      true,
	}

	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&tenant).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("tenant name %q: %w", name, ErrDuplicate)
			}
			return err
		}
		return appendAudit(tx, actor.AccountID, "create_tenant", "tenant", &tenant.ID, meta, nil)
	})
	if err != nil {
		return nil, err
	}

	return &tenant, nil
}

// ProvisionTenantForNewAdmin creates a tenant together with its
// administering Admin account in a single transaction. This is the only
// place tenant auto-provisioning happens; if any step fails the whole
// operation rolls back and no tenant row remains.
func ProvisionTenantForNewAdmin(actor Actor, name, description string, draft AccountDraft, meta RequestMeta) (*model.Tenant, *model.Account, error) {
	if actor.Role != role.SuperAdmin {
		return nil, nil, ErrPermissionDenied
	}
	if strings.TrimSpace(name) == "" {
		return nil, nil, fmt.Errorf("tenant name is required: %w", ErrValidation)
	}
	if err := draft.validate(); err != nil {
		return nil, nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(draft.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}

	prometheus.RecordTenantOperation("provision")
	defer prometheus.TrackDBOperation("insert")(time.Now())

	tenant := model.Tenant{
		Name:        name,
		Description: description,
		Active:      true,
	}
	account := model.Account{
		Username:     draft.Username,
		Email:        draft.Email,
		PasswordHash: string(hashed),
		FirstName:    draft.FirstName,
		LastName:     draft.LastName,
		Role:         string(role.Admin),
		Active:       true,
	}

	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&tenant).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("tenant name %q: %w", name, ErrDuplicate)
			}
			return err
		}

		account.TenantID = &tenant.ID
		if err := tx.Create(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("username or email: %w", ErrDuplicate)
			}
			return err
		}

		if err := tx.Model(&tenant).Update("admin_account_id", account.ID).Error; err != nil {
			return err
		}
		tenant.AdminAccountID = &account.ID

		if err := appendAudit(tx, actor.AccountID, "provision_tenant", "tenant", &tenant.ID, meta, map[string]interface{}{
			"admin_username": account.Username,
		}); err != nil {
			return err
		}
		return appendAudit(tx, actor.AccountID, "create_user", "account", &account.ID, meta, map[string]interface{}{
			"role": account.Role,
		})
	})
	if err != nil {
		return nil, nil, err
	}

	return &tenant, &account, nil
}

// ReassignAdmin changes the administering account of a tenant. The target
// account must hold role Admin or SuperAdmin.
func ReassignAdmin(actor Actor, tenantID, accountID uint, meta RequestMeta) (*model.Tenant, error) {
	if actor.Role != role.SuperAdmin {
		return nil, ErrPermissionDenied
	}

	prometheus.RecordTenantOperation("reassign_admin")
	defer prometheus.TrackDBOperation("update")(time.Now())

	var tenant model.Tenant
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&tenant, tenantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("tenant %d: %w", tenantID, ErrNotFound)
			}
			return err
		}

		var account model.Account
		if err := tx.First(&account, accountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("account %d: %w", accountID, ErrNotFound)
			}
			return err
		}

		if account.Role != string(role.Admin) && account.Role != string(role.SuperAdmin) {
			return fmt.Errorf("role %s: %w", account.Role, ErrInvalidAdminRole)
		}

		if err := tx.Model(&tenant).Update("admin_account_id", account.ID).Error; err != nil {
			return err
		}
		tenant.AdminAccountID = &account.ID

		return appendAudit(tx, actor.AccountID, "reassign_admin", "tenant", &tenant.ID, meta, map[string]interface{}{
			"admin_account_id": account.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	return &tenant, nil
}

// SetTenantActive soft-activates or deactivates a tenant. Deactivation does
// not cascade to accounts or content; collaborators filter on the flag.
func SetTenantActive(actor Actor, tenantID uint, active bool, meta RequestMeta) (*model.Tenant, error) {
	if actor.Role != role.SuperAdmin {
		return nil, ErrPermissionDenied
	}

	prometheus.RecordTenantOperation("set_active")
	defer prometheus.TrackDBOperation("update")(time.Now())

	var tenant model.Tenant
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&tenant, tenantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("tenant %d: %w", tenantID, ErrNotFound)
			}
			return err
		}

		if err := tx.Model(&tenant).Update("active", active).Error; err != nil {
			return err
		}
		tenant.Active = active

		action := "deactivate_tenant"
		if active {
			action = "activate_tenant"
		}
		return appendAudit(tx, actor.AccountID, action, "tenant", &tenant.ID, meta, nil)
	})
	if err != nil {
		return nil, err
	}

	return &tenant, nil
}

// GetTenant returns a tenant visible to the actor. Admins only see their
// own tenant; existence of other tenants is not revealed.
func GetTenant(actor Actor, tenantID uint) (*model.Tenant, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	if actor.Role != role.SuperAdmin {
		if actor.TenantID == nil || *actor.TenantID != tenantID {
			return nil, ErrNotFound
		}
	}

	var tenant model.Tenant
	if err := database.GetDB().First(&tenant, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tenant %d: %w", tenantID, ErrNotFound)
		}
		return nil, err
	}
	return &tenant, nil
}
