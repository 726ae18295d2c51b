package engine

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/erazemk/renova/internal/auth"
	"github.com/erazemk/renova/internal/model"
	"github.com/erazemk/renova/internal/store"
)

// UserInput holds the fields of a new user. Role defaults to volunteer.
type UserInput struct {
	Name     string `json:"name" validate:"required"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=admin volunteer"`
}

// Users returns every user in creation order.
func (e *Engine) Users() []model.User {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return slices.Clone(e.state.Users)
}

// User returns the user with the given id.
func (e *Engine) User(id string) (model.User, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	i := e.userIndex(id)
	if i < 0 {
		return model.User{}, false
	}
	return e.state.Users[i], true
}

// AddUser creates a staff account.
func (e *Engine) AddUser(ctx context.Context, actor model.Actor, in UserInput) (model.User, error) {
	if err := requireRole(actor, model.RoleAdmin); err != nil {
		return model.User{}, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	if err := e.check(in); err != nil {
		return model.User{}, err
	}
	if in.Role == "" {
		in.Role = model.RoleVolunteer
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return model.User{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	taken := slices.ContainsFunc(e.state.Users, func(u model.User) bool {
		return strings.EqualFold(u.Username, in.Username)
	})
	if taken {
		return model.User{}, ErrDuplicateUsername
	}

	user := model.User{
		ID:       e.newID(),
		Name:     in.Name,
		Username: in.Username,
		Password: hash,
		Role:     in.Role,
	}

	next := e.state
	next.Users = append(slices.Clone(e.state.Users), user)
	if err := e.commit(ctx, next, store.KeyUsers); err != nil {
		return model.User{}, err
	}

	e.log.Info("user created", "user", actor.Name, "username", user.Username, "role", user.Role)
	return user, nil
}

// DeleteUser removes the user with the given id. Deleting an unknown id
// does nothing.
func (e *Engine) DeleteUser(ctx context.Context, actor model.Actor, id string) error {
	if err := requireRole(actor, model.RoleAdmin); err != nil {
		return err
	}
	if id == actor.UserID {
		return ErrSelfDeletion
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.userIndex(id)
	if i < 0 {
		return nil
	}
	target := e.state.Users[i]

	if target.Role == model.RoleAdmin {
		admins := 0
		for _, u := range e.state.Users {
			if u.Role == model.RoleAdmin {
				admins++
			}
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}

	next := e.state
	next.Users = slices.Delete(slices.Clone(e.state.Users), i, i+1)
	if err := e.commit(ctx, next, store.KeyUsers); err != nil {
		return err
	}

	e.log.Info("user deleted", "user", actor.Name, "username", target.Username)
	return nil
}

// ChangePassword sets a new password for userID. Staff may change their
// own password; admins may change anyone's. An unknown userID does nothing.
func (e *Engine) ChangePassword(ctx context.Context, actor model.Actor, userID, password string) error {
	if err := requireRole(actor, model.RoleVolunteer); err != nil {
		return err
	}
	if actor.UserID != userID && actor.Role != model.RoleAdmin {
		return ErrForbidden
	}
	if err := model.ValidatePassword(password); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.userIndex(userID)
	if i < 0 {
		return nil
	}

	next := e.state
	next.Users = slices.Clone(e.state.Users)
	next.Users[i].Password = hash
	if err := e.commit(ctx, next, store.KeyUsers); err != nil {
		return err
	}

	e.log.Info("password changed", "user", actor.Name, "username", next.Users[i].Username)
	return nil
}

// Authenticate returns the user matching username (case-insensitively) and
// password. A plain-text password from an older install is upgraded to a
// bcrypt hash on a successful login.
func (e *Engine) Authenticate(ctx context.Context, username, password string) (model.User, error) {
	e.mu.RLock()
	i := slices.IndexFunc(e.state.Users, func(u model.User) bool { return strings.EqualFold(u.Username, username) })
	var user model.User
	if i >= 0 {
		user = e.state.Users[i]
	}
	e.mu.RUnlock()

	if i < 0 {
		return model.User{}, ErrInvalidCredentials
	}
	ok, rehash := auth.CheckPassword(user.Password, password)
	if !ok {
		return model.User{}, ErrInvalidCredentials
	}
	if rehash {
		e.upgradePassword(ctx, user, password)
	}
	return user, nil
}

// upgradePassword replaces a plain-text password with its hash unless it
// was changed in the meantime. Failures are logged, not returned.
func (e *Engine) upgradePassword(ctx context.Context, user model.User, password string) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		e.log.Warn("failed to hash legacy password", "username", user.Username, "error", err)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.userIndex(user.ID)
	if i < 0 || e.state.Users[i].Password != user.Password {
		return
	}

	next := e.state
	next.Users = slices.Clone(e.state.Users)
	next.Users[i].Password = hash
	if err := e.commit(ctx, next, store.KeyUsers); err != nil {
		e.log.Warn("failed to upgrade legacy password", "username", user.Username, "error", err)
		return
	}
	e.log.Info("upgraded legacy password", "username", user.Username)
}
