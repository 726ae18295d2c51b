package engine

import (
	"context"
	"fmt"
	"slices"

	"github.com/erazemk/renova/internal/audit"
	"github.com/erazemk/renova/internal/model"
	"github.com/erazemk/renova/internal/store"
)

// RecentLogs is the number of log entries shown on the dashboard.
const RecentLogs = 5

// Dashboard summarises the current state.
type Dashboard struct {
	TotalStock int              `json:"totalStock"`
	ItemsOut   int              `json:"itemsOut"`
	Users      int              `json:"users"`
	Recent     []model.LogEntry `json:"recent"`
}

// Dashboard returns the summary figures and the most recent activity.
func (e *Engine) Dashboard() Dashboard {
	e.mu.RLock()
	defer e.mu.RUnlock()

	d := Dashboard{
		ItemsOut: len(e.state.Loans),
		Users:    len(e.state.Users),
		Recent:   audit.Recent(e.state.Logs, RecentLogs),
	}
	for _, it := range e.state.Items {
		d.TotalStock += it.Quantity
	}
	return d
}

// Logs returns the activity log, most recent first.
func (e *Engine) Logs() []model.LogEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return slices.Clone(e.state.Logs)
}

// DeleteLog removes one log entry. Deleting an unknown id does nothing.
func (e *Engine) DeleteLog(ctx context.Context, actor model.Actor, id string) error {
	if err := requireRole(actor, model.RoleVolunteer); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	i := slices.IndexFunc(e.state.Logs, func(l model.LogEntry) bool { return l.ID == id })
	if i < 0 {
		return nil
	}

	next := e.state
	next.Logs = slices.Delete(slices.Clone(e.state.Logs), i, i+1)
	if err := e.commit(ctx, next, store.KeyLogs); err != nil {
		return err
	}

	e.log.Info("log entry deleted", "user", actor.Name, "id", id)
	return nil
}

// Reset restores the default inventory and clears all loans and logs.
// Users and settings are kept.
func (e *Engine) Reset(ctx context.Context, actor model.Actor) error {
	if err := requireRole(actor, model.RoleAdmin); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.state
	next.Items = model.DefaultItems()
	next.Loans = []model.Loan{}
	next.Logs = []model.LogEntry{}
	if err := e.commit(ctx, next, store.KeyInventory, store.KeyLoans, store.KeyLogs); err != nil {
		return err
	}

	e.log.Info("system reset", "user", actor.Name)
	return nil
}

// SettingsPatch holds branding changes. Nil fields are left alone; an
// empty string restores the default.
type SettingsPatch struct {
	OrgName        *string `json:"orgName"`
	AppLogo        *string `json:"appLogo"`
	LandingBgColor *string `json:"landingBgColor"`
	LandingBgImage *string `json:"landingBgImage"`
}

// Settings returns the stored branding.
func (e *Engine) Settings(ctx context.Context) (model.Settings, error) {
	s, err := store.GetSettings(ctx, e.db)
	if err != nil {
		return model.Settings{}, fmt.Errorf("loading settings: %w", err)
	}
	return s, nil
}

// UpdateSettings applies patch to the branding.
func (e *Engine) UpdateSettings(ctx context.Context, actor model.Actor, patch SettingsPatch) (model.Settings, error) {
	if err := requireRole(actor, model.RoleAdmin); err != nil {
		return model.Settings{}, err
	}
	if c := patch.LandingBgColor; c != nil && *c != "" {
		if err := e.validate.Var(*c, "hexcolor"); err != nil {
			return model.Settings{}, fmt.Errorf("%w: landingBgColor must be a hex color", ErrInvalidInput)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.Settings(ctx)
	if err != nil {
		return model.Settings{}, err
	}
	for dst, src := range map[*string]*string{
		&s.OrgName:        patch.OrgName,
		&s.AppLogo:        patch.AppLogo,
		&s.LandingBgColor: patch.LandingBgColor,
		&s.LandingBgImage: patch.LandingBgImage,
	} {
		if src != nil {
			*dst = *src
		}
	}

	if err := store.SaveSettings(ctx, e.db, s); err != nil {
		return model.Settings{}, fmt.Errorf("saving settings: %w", err)
	}

	e.log.Info("settings updated", "user", actor.Name, "org", s.DisplayName())
	return s, nil
}
