package service

import (
	"errors"
	"fmt"
	"time"

	"opinian/internal/model"
	"opinian/internal/role"
	"opinian/pkg/database"
	"opinian/prometheus"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CreateAccountInput describes a managed account creation request.
// TenantName/TenantDescription are only consulted when an Admin account is
// being created, which auto-provisions a tenant; TenantID places other
// roles into an existing tenant.
type CreateAccountInput struct {
	Draft             AccountDraft
	Role              role.Role
	TenantID          *uint
	TenantName        string
	TenantDescription string
}

// CreateAccountResult reports what a managed creation produced
type CreateAccountResult struct {
	Account *model.Account
	Tenant  *model.Tenant
}

// Register creates a self-service account with role User and no tenant.
// The signup is recorded in the audit trail with the new account as actor.
func Register(draft AccountDraft, meta RequestMeta) (*model.Account, error) {
	prometheus.RegisterCounter.Inc()

	if err := draft.validate(); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(draft.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	account := model.Account{
		Username:     draft.Username,
		Email:        draft.Email,
		PasswordHash: string(hashed),
		FirstName:    draft.FirstName,
		LastName:     draft.LastName,
		Role:         string(role.User),
		Active:       true,
	}

	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("username or email: %w", ErrDuplicate)
			}
			return err
		}
		return appendAudit(tx, account.ID, "register", "account", &account.ID, meta, nil)
	})
	if err != nil {
		return nil, err
	}

	return &account, nil
}

// CreateAccount creates an account on behalf of a privileged actor. The role
// registry gates which roles the actor may create; creating an Admin
// delegates to tenant auto-provisioning.
func CreateAccount(actor Actor, input CreateAccountInput, meta RequestMeta) (*CreateAccountResult, error) {
	if !input.Role.Valid() {
		return nil, fmt.Errorf("unknown role %q: %w", input.Role, ErrValidation)
	}
	if !role.CanCreateRole(actor.Role, input.Role) {
		return nil, fmt.Errorf("role %s may not create %s accounts: %w", actor.Role, input.Role, ErrPermissionDenied)
	}

	// Admin accounts come with their own tenant; this is the one
	// auto-provisioning path.
	if input.Role == role.Admin {
		tenant, account, err := ProvisionTenantForNewAdmin(actor, input.TenantName, input.TenantDescription, input.Draft, meta)
		if err != nil {
			return nil, err
		}
		prometheus.RecordAccountOperation("create")
		return &CreateAccountResult{Account: account, Tenant: tenant}, nil
	}

	if err := input.Draft.validate(); err != nil {
		return nil, err
	}

	// Resolve the tenant the new account lands in. Admins always create
	// inside their own tenant; SuperAdmin must name one for non-SuperAdmin
	// roles.
	var tenantID *uint
	switch actor.Role {
	case role.Admin:
		if actor.TenantID == nil {
			return nil, ErrPermissionDenied
		}
		tenantID = actor.TenantID
	case role.SuperAdmin:
		if input.Role != role.SuperAdmin {
			if input.TenantID == nil {
				return nil, fmt.Errorf("tenant_id is required for role %s: %w", input.Role, ErrValidation)
			}
			tenantID = input.TenantID
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Draft.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	prometheus.RecordAccountOperation("create")
	defer prometheus.TrackDBOperation("insert")(time.Now())

	account := model.Account{
		Username:     input.Draft.Username,
		Email:        input.Draft.Email,
		PasswordHash: string(hashed),
		FirstName:    input.Draft.FirstName,
		LastName:     input.Draft.LastName,
		Role:         string(input.Role),
		TenantID:     tenantID,
		Active:       true,
	}

	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if tenantID != nil {
			var tenant model.Tenant
			if err := tx.First(&tenant, *tenantID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("tenant %d: %w", *tenantID, ErrNotFound)
				}
				return err
			}
		}

		if err := tx.Create(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("username or email: %w", ErrDuplicate)
			}
			return err
		}

		return appendAudit(tx, actor.AccountID, "create_user", "account", &account.ID, meta, map[string]interface{}{
			"role": account.Role,
		})
	})
	if err != nil {
		return nil, err
	}

	return &CreateAccountResult{Account: &account}, nil
}

// Authenticate verifies credentials and returns the account. Banned or
// inactive accounts cannot authenticate.
func Authenticate(username, password string) (*model.Account, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var account model.Account
	if err := database.GetDB().Where("username = ?", username).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrNotFound
	}

	if account.Banned || !account.Active {
		return nil, ErrBanned
	}

	return &account, nil
}

// SetBanned toggles the banned flag on an account. Admins may only ban
// accounts in their own tenant; cross-tenant accounts are reported as not
// found so existence is not leaked.
func SetBanned(actor Actor, accountID uint, banned bool, meta RequestMeta) (*model.Account, error) {
	if !role.HasCapability(actor.Role, role.UserManage) {
		return nil, ErrPermissionDenied
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	var account model.Account
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&account, accountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("account %d: %w", accountID, ErrNotFound)
			}
			return err
		}

		if actor.Role == role.Admin && !actor.sameTenant(account.TenantID) {
			return fmt.Errorf("account %d: %w", accountID, ErrNotFound)
		}

		if err := tx.Model(&account).Update("banned", banned).Error; err != nil {
			return err
		}
		account.Banned = banned

		action := "unban_user"
		if banned {
			action = "ban_user"
		}
		prometheus.RecordAccountOperation(action)
		return appendAudit(tx, actor.AccountID, action, "account", &account.ID, meta, nil)
	})
	if err != nil {
		return nil, err
	}

	return &account, nil
}

// AccountPatch carries the editable fields of an account. Nil fields stay
// unchanged.
type AccountPatch struct {
	FirstName *string
	LastName  *string
	Role      *role.Role
	Active    *bool
	Banned    *bool
}

// UpdateAccount edits an account's details and flags. Role changes are gated
// like creations: the actor must be allowed to create the new role.
func UpdateAccount(actor Actor, accountID uint, patch AccountPatch, meta RequestMeta) (*model.Account, error) {
	if !role.HasCapability(actor.Role, role.UserManage) {
		return nil, ErrPermissionDenied
	}
	if patch.Role != nil {
		if !patch.Role.Valid() {
			return nil, fmt.Errorf("unknown role %q: %w", *patch.Role, ErrValidation)
		}
		if !role.CanCreateRole(actor.Role, *patch.Role) {
			return nil, fmt.Errorf("role %s may not grant %s: %w", actor.Role, *patch.Role, ErrPermissionDenied)
		}
	}

	prometheus.RecordAccountOperation("update")
	defer prometheus.TrackDBOperation("update")(time.Now())

	var account model.Account
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&account, accountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("account %d: %w", accountID, ErrNotFound)
			}
			return err
		}

		if actor.Role == role.Admin && !actor.sameTenant(account.TenantID) {
			return fmt.Errorf("account %d: %w", accountID, ErrNotFound)
		}

		updates := map[string]interface{}{}
		if patch.FirstName != nil {
			updates["first_name"] = *patch.FirstName
		}
		if patch.LastName != nil {
			updates["last_name"] = *patch.LastName
		}
		if patch.Role != nil {
			updates["role"] = string(*patch.Role)
		}
		if patch.Active != nil {
			updates["active"] = *patch.Active
		}
		if patch.Banned != nil {
			updates["banned"] = *patch.Banned
		}
		if len(updates) == 0 {
			return fmt.Errorf("no fields to update: %w", ErrValidation)
		}

		if err := tx.Model(&account).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.First(&account, accountID).Error; err != nil {
			return err
		}

		return appendAudit(tx, actor.AccountID, "edit_user", "account", &account.ID, meta, nil)
	})
	if err != nil {
		return nil, err
	}

	return &account, nil
}

// ListAccounts returns accounts visible to the actor: all of them for
// SuperAdmin, the actor's own tenant for Admin.
func ListAccounts(actor Actor) ([]model.Account, error) {
	if !role.HasCapability(actor.Role, role.UserManage) {
		return nil, ErrPermissionDenied
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	query := database.GetDB().Model(&model.Account{}).Order("created_at DESC")
	if actor.Role == role.Admin {
		if actor.TenantID == nil {
			return nil, ErrPermissionDenied
		}
		query = query.Where("tenant_id = ?", *actor.TenantID)
	}

	var accounts []model.Account
	if err := query.Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}
