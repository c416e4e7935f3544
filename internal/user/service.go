// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/templates/marketplace-backend/internal/auth"
	"github.com/carterperez-dev/templates/marketplace-backend/internal/core"
)

// Provisioner creates whatever per-role records a user needs, on the
// transaction that writes the user row.
type Provisioner interface {
	Provision(ctx context.Context, tx core.DBTX, userID string, role auth.Role) error
}

type Service struct {
	db          core.Beginner
	repo        Repository
	provisioner Provisioner
}

func NewService(db core.Beginner, repo Repository, provisioner Provisioner) *Service {
	return &Service{
		db:          db,
		repo:        repo,
		provisioner: provisioner,
	}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return user.info(), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}

	return user.info(), nil
}

// Register writes the user row and provisions its account in one
// transaction. Either both exist afterwards or neither does.
func (s *Service) Register(
	ctx context.Context,
	nu auth.NewUser,
) (*auth.UserInfo, error) {
	user := &User{
		ID:           uuid.New().String(),
		Email:        normalizeEmail(nu.Email),
		PasswordHash: nu.PasswordHash,
		Name:         strings.TrimSpace(nu.Name),
		Role:         nu.Role,
	}

	err := core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := NewRepository(tx).Create(ctx, user); err != nil {
			return err
		}
		return s.provisioner.Provision(ctx, tx, user.ID, user.Role)
	})
	if err != nil {
		return nil, err
	}

	return user.info(), nil
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateMe(
	ctx context.Context,
	p auth.Principal,
	req UpdateUserRequest,
) (*User, error) {
	user, err := s.repo.GetByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// UpdateUserRole is admin-only. Moving a user into a practitioner or clinic
// role provisions the matching draft account in the same transaction.
func (s *Service) UpdateUserRole(
	ctx context.Context,
	p auth.Principal,
	id string,
	role auth.Role,
) (*User, error) {
	if err := auth.RequireAdmin(p); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, fmt.Errorf("update role: invalid role %q: %w", role, core.ErrValidation)
	}
	if p.UserID == id {
		return nil, core.NewRuleError(core.ErrForbidden, "administrators cannot change their own role")
	}

	var user *User
	err := core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repo := NewRepository(tx)

		var err error
		user, err = repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if user.Role == role {
			return nil
		}

		user.Role = role
		if err := repo.Update(ctx, user); err != nil {
			return err
		}
		return s.provisioner.Provision(ctx, tx, user.ID, role)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) CountByRole(ctx context.Context) (map[auth.Role]int, error) {
	return s.repo.CountByRole(ctx)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ auth.UserProvider = (*Service)(nil)
