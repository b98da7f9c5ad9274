package identity

import (
	"context"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// UserService handles user management operations
type UserService struct {
	userRepo       identity.UserRepository
	tenantRepo     identity.TenantRepository
	eventPublisher shared.EventPublisher
}

// NewUserService creates a new UserService
func NewUserService(userRepo identity.UserRepository, tenantRepo identity.TenantRepository) *UserService {
	return &UserService{
		userRepo:   userRepo,
		tenantRepo: tenantRepo,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *UserService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *UserService) publishDomainEvents(ctx context.Context, u *identity.User) {
	if s.eventPublisher == nil {
		return
	}
	events := u.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	u.ClearDomainEvents()
}

// Create creates a new user in the tenant, honoring the tenant seat limit
func (s *UserService) Create(ctx context.Context, tenantID uuid.UUID, req CreateUserRequest) (*UserResponse, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	count, err := s.userRepo.CountForTenant(ctx, tenantID, shared.DefaultFilter())
	if err != nil {
		return nil, err
	}
	if !tenant.CanAddUser(int(count)) {
		return nil, shared.NewDomainError("USER_LIMIT_REACHED", "Tenant has reached its user limit")
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, tenantID, req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "User with this username already exists")
	}

	exists, err = s.userRepo.ExistsByEmail(ctx, tenantID, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "User with this email already exists")
	}

	var user *identity.User
	if req.Activate {
		user, err = identity.NewActiveUser(tenantID, req.Username, req.Email, req.Password, identity.Role(req.Role))
	} else {
		user, err = identity.NewUser(tenantID, req.Username, req.Email, req.Password, identity.Role(req.Role))
	}
	if err != nil {
		return nil, err
	}

	if req.DisplayName != "" {
		if err := user.SetDisplayName(req.DisplayName); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, user)

	response := ToUserResponse(user)
	return &response, nil
}

// GetByID retrieves a user by ID
func (s *UserService) GetByID(ctx context.Context, tenantID, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	response := ToUserResponse(user)
	return &response, nil
}

// List retrieves a list of users with filtering and pagination
func (s *UserService) List(ctx context.Context, tenantID uuid.UUID, filter UserListFilter) ([]UserResponse, int64, error) {
	domainFilter := buildUserFilter(filter)

	users, err := s.userRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.userRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]UserResponse, len(users))
	for i := range users {
		responses[i] = ToUserResponse(&users[i])
	}

	return responses, total, nil
}

// Update updates a user's email, display name or role
func (s *UserService) Update(ctx context.Context, tenantID, userID uuid.UUID, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != user.Email {
		exists, err := s.userRepo.ExistsByEmail(ctx, tenantID, *req.Email)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "User with this email already exists")
		}
		if err := user.SetEmail(*req.Email); err != nil {
			return nil, err
		}
	}

	if req.DisplayName != nil {
		if err := user.SetDisplayName(*req.DisplayName); err != nil {
			return nil, err
		}
	}

	if req.Role != nil {
		if err := user.SetRole(identity.Role(*req.Role)); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, user)

	response := ToUserResponse(user)
	return &response, nil
}

// ChangePassword changes a user's password after verifying the old one
func (s *UserService) ChangePassword(ctx context.Context, tenantID, userID uuid.UUID, req ChangePasswordRequest) error {
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		return err
	}

	if err := user.ChangePassword(req.OldPassword, req.NewPassword); err != nil {
		return err
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return err
	}

	s.publishDomainEvents(ctx, user)
	return nil
}

// ResetPassword sets a new password administratively and forces a change
// on next login
func (s *UserService) ResetPassword(ctx context.Context, tenantID, userID uuid.UUID, req ResetPasswordRequest) error {
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		return err
	}

	if err := user.SetPassword(req.NewPassword); err != nil {
		return err
	}
	user.ForcePasswordChange()

	if err := s.userRepo.Save(ctx, user); err != nil {
		return err
	}

	s.publishDomainEvents(ctx, user)
	return nil
}

// Activate activates a pending or deactivated user
func (s *UserService) Activate(ctx context.Context, tenantID, userID uuid.UUID) (*UserResponse, error) {
	return s.statusChange(ctx, tenantID, userID, (*identity.User).Activate)
}

// Deactivate deactivates a user, blocking future logins
func (s *UserService) Deactivate(ctx context.Context, tenantID, userID uuid.UUID) (*UserResponse, error) {
	return s.statusChange(ctx, tenantID, userID, (*identity.User).Deactivate)
}

// Lock locks a user account until an admin unlocks it
func (s *UserService) Lock(ctx context.Context, tenantID, userID uuid.UUID) (*UserResponse, error) {
	return s.statusChange(ctx, tenantID, userID, func(u *identity.User) error {
		return u.Lock(0)
	})
}

// Unlock clears a lockout before it expires
func (s *UserService) Unlock(ctx context.Context, tenantID, userID uuid.UUID) (*UserResponse, error) {
	return s.statusChange(ctx, tenantID, userID, (*identity.User).Unlock)
}

func (s *UserService) statusChange(ctx context.Context, tenantID, userID uuid.UUID, op func(*identity.User) error) (*UserResponse, error) {
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	if err := op(user); err != nil {
		return nil, err
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, user)

	response := ToUserResponse(user)
	return &response, nil
}

// Delete removes a user. The last admin of a tenant cannot be removed.
func (s *UserService) Delete(ctx context.Context, tenantID, userID uuid.UUID) error {
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		return err
	}

	if user.Role == identity.RoleAdmin {
		if err := s.ensureNotLastAdmin(ctx, tenantID, userID); err != nil {
			return err
		}
	}

	return s.userRepo.Delete(ctx, tenantID, userID)
}

// BulkActivate activates a set of users, reporting per-user outcomes
func (s *UserService) BulkActivate(ctx context.Context, tenantID uuid.UUID, req BulkUserRequest) (*BulkUserResult, error) {
	return s.bulk(ctx, tenantID, req, func(ctx context.Context, u *identity.User) error {
		if err := u.Activate(); err != nil {
			return err
		}
		return s.userRepo.Save(ctx, u)
	})
}

// BulkDeactivate deactivates a set of users, reporting per-user outcomes
func (s *UserService) BulkDeactivate(ctx context.Context, tenantID uuid.UUID, req BulkUserRequest) (*BulkUserResult, error) {
	return s.bulk(ctx, tenantID, req, func(ctx context.Context, u *identity.User) error {
		if u.Role == identity.RoleAdmin {
			if err := s.ensureNotLastAdmin(ctx, tenantID, u.ID); err != nil {
				return err
			}
		}
		if err := u.Deactivate(); err != nil {
			return err
		}
		return s.userRepo.Save(ctx, u)
	})
}

// BulkDelete removes a set of users, reporting per-user outcomes
func (s *UserService) BulkDelete(ctx context.Context, tenantID uuid.UUID, req BulkUserRequest) (*BulkUserResult, error) {
	return s.bulk(ctx, tenantID, req, func(ctx context.Context, u *identity.User) error {
		if u.Role == identity.RoleAdmin {
			if err := s.ensureNotLastAdmin(ctx, tenantID, u.ID); err != nil {
				return err
			}
		}
		return s.userRepo.Delete(ctx, tenantID, u.ID)
	})
}

func (s *UserService) bulk(ctx context.Context, tenantID uuid.UUID, req BulkUserRequest, op func(context.Context, *identity.User) error) (*BulkUserResult, error) {
	users, err := s.userRepo.FindByIDs(ctx, tenantID, req.UserIDs)
	if err != nil {
		return nil, err
	}

	found := make(map[uuid.UUID]*identity.User, len(users))
	for i := range users {
		found[users[i].ID] = &users[i]
	}

	result := &BulkUserResult{
		Succeeded: make([]uuid.UUID, 0, len(req.UserIDs)),
		Failed:    make([]BulkUserError, 0),
	}

	for _, id := range req.UserIDs {
		user, ok := found[id]
		if !ok {
			result.Failed = append(result.Failed, BulkUserError{UserID: id, Reason: "not found"})
			continue
		}
		if err := op(ctx, user); err != nil {
			result.Failed = append(result.Failed, BulkUserError{UserID: id, Reason: err.Error()})
			continue
		}
		s.publishDomainEvents(ctx, user)
		result.Succeeded = append(result.Succeeded, id)
	}

	return result, nil
}

// ensureNotLastAdmin rejects an operation that would leave the tenant
// without an active admin
func (s *UserService) ensureNotLastAdmin(ctx context.Context, tenantID, userID uuid.UUID) error {
	admins, err := s.userRepo.FindByRole(ctx, tenantID, identity.RoleAdmin, shared.DefaultFilter())
	if err != nil {
		return err
	}

	others := 0
	for i := range admins {
		if admins[i].ID != userID && admins[i].IsActive() {
			others++
		}
	}
	if others == 0 {
		return shared.NewDomainError("LAST_ADMIN", "Cannot remove the last admin of a tenant")
	}
	return nil
}

func buildUserFilter(filter UserListFilter) shared.Filter {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}

	if filter.Role != "" {
		domainFilter.Filters["role"] = filter.Role
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	return domainFilter
}
