package engine

import (
	"context"
	"slices"
	"strings"

	"github.com/erazemk/renova/internal/audit"
	"github.com/erazemk/renova/internal/model"
	"github.com/erazemk/renova/internal/store"
)

// ItemInput holds the fields of a new item.
type ItemInput struct {
	Name        string `json:"name" validate:"required"`
	Category    string `json:"category" validate:"required,category"`
	Quantity    int    `json:"quantity" validate:"min=1"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// ItemPatch holds the fields to change on an item. Nil fields are left alone.
type ItemPatch struct {
	Name        *string `json:"name" validate:"omitnil,min=1"`
	Category    *string `json:"category" validate:"omitnil,category"`
	Quantity    *int    `json:"quantity" validate:"omitnil,min=1"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	Available   *bool   `json:"available"`
}

func (p ItemPatch) apply(it model.Item) model.Item {
	if p.Name != nil {
		it.Name = strings.TrimSpace(*p.Name)
	}
	if p.Category != nil {
		it.Category = *p.Category
	}
	if p.Quantity != nil {
		it.Quantity = *p.Quantity
	}
	if p.Location != nil {
		it.Location = *p.Location
	}
	if p.Description != nil {
		it.Description = *p.Description
	}
	if p.Image != nil {
		it.Image = *p.Image
	}
	if p.Available != nil {
		it.Available = *p.Available
	}
	return it
}

// ItemFilter narrows Items. Search matches names case-insensitively; an
// empty Category or "All" matches every category.
type ItemFilter struct {
	Search   string
	Category string
}

// CategoryAll matches every category in an ItemFilter.
const CategoryAll = "All"

func (f ItemFilter) match(it model.Item) bool {
	if f.Category != "" && f.Category != CategoryAll && it.Category != f.Category {
		return false
	}
	return strings.Contains(strings.ToLower(it.Name), strings.ToLower(f.Search))
}

// Items returns the items matching f in catalogue order.
func (e *Engine) Items(f ItemFilter) []model.Item {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := []model.Item{}
	for _, it := range e.state.Items {
		if f.match(it) {
			out = append(out, it)
		}
	}
	return out
}

// Item returns the item with the given id.
func (e *Engine) Item(id string) (model.Item, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	i := e.itemIndex(id)
	if i < 0 {
		return model.Item{}, ErrItemNotFound
	}
	return e.state.Items[i], nil
}

// AddItem catalogues a new, available item.
func (e *Engine) AddItem(ctx context.Context, actor model.Actor, in ItemInput) (model.Item, error) {
	if err := requireRole(actor, model.RoleVolunteer); err != nil {
		return model.Item{}, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := e.check(in); err != nil {
		return model.Item{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	item := model.Item{
		ID:          e.newID(),
		Name:        in.Name,
		Category:    in.Category,
		Quantity:    in.Quantity,
		Location:    in.Location,
		Description: in.Description,
		Image:       in.Image,
		Available:   true,
	}

	next := e.state
	next.Items = append(slices.Clone(e.state.Items), item)
	next, _ = e.record(next, actor, audit.Event{
		Action:   model.ActionAddInventory,
		ItemName: item.Name,
		Note:     "New item added",
	})

	if err := e.commit(ctx, next, store.KeyInventory, store.KeyLogs); err != nil {
		return model.Item{}, err
	}

	e.log.Info("item added", "user", actor.Name, "item", item.Name, "id", item.ID)
	return item, nil
}

// UpdateItem merges patch into the item with the given id.
func (e *Engine) UpdateItem(ctx context.Context, actor model.Actor, id string, patch ItemPatch) (model.Item, error) {
	if err := requireRole(actor, model.RoleVolunteer); err != nil {
		return model.Item{}, err
	}
	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		patch.Name = &trimmed
	}
	if err := e.check(patch); err != nil {
		return model.Item{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.itemIndex(id)
	if i < 0 {
		return model.Item{}, ErrItemNotFound
	}
	item := patch.apply(e.state.Items[i])

	next := e.state
	next.Items = slices.Clone(e.state.Items)
	next.Items[i] = item
	next, _ = e.record(next, actor, audit.Event{
		Action:   model.ActionEditItem,
		ItemName: item.Name,
		Note:     "Item details updated",
	})

	if err := e.commit(ctx, next, store.KeyInventory, store.KeyLogs); err != nil {
		return model.Item{}, err
	}

	e.log.Info("item updated", "user", actor.Name, "item", item.Name, "id", item.ID)
	return item, nil
}

// DeleteItem removes the item with the given id. Open loans of the item
// are kept; they carry their own snapshot of it.
func (e *Engine) DeleteItem(ctx context.Context, actor model.Actor, id string) error {
	if err := requireRole(actor, model.RoleVolunteer); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.itemIndex(id)
	if i < 0 {
		return ErrItemNotFound
	}
	item := e.state.Items[i]

	next := e.state
	next.Items = slices.Delete(slices.Clone(e.state.Items), i, i+1)
	next, _ = e.record(next, actor, audit.Event{
		Action:   model.ActionDeleteItem,
		ItemName: item.Name,
		Note:     "Item deleted",
	})

	if err := e.commit(ctx, next, store.KeyInventory, store.KeyLogs); err != nil {
		return err
	}

	e.log.Info("item deleted", "user", actor.Name, "item", item.Name, "id", item.ID)
	return nil
}

// ToggleAvailability flips whether the item can be borrowed. It writes no
// log entry.
func (e *Engine) ToggleAvailability(ctx context.Context, actor model.Actor, id string) (model.Item, error) {
	if err := requireRole(actor, model.RoleVolunteer); err != nil {
		return model.Item{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.itemIndex(id)
	if i < 0 {
		return model.Item{}, ErrItemNotFound
	}
	item := e.state.Items[i]
	item.Available = !item.Available

	next := e.state
	next.Items = slices.Clone(e.state.Items)
	next.Items[i] = item

	if err := e.commit(ctx, next, store.KeyInventory); err != nil {
		return model.Item{}, err
	}

	e.log.Info("item availability changed", "user", actor.Name, "item", item.Name, "available", item.Available)
	return item, nil
}
