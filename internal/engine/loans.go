package engine

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/erazemk/renova/internal/audit"
	"github.com/erazemk/renova/internal/imaging"
	"github.com/erazemk/renova/internal/model"
	"github.com/erazemk/renova/internal/store"
)

// BorrowInput describes a class borrowing an item.
type BorrowInput struct {
	ItemID    string `json:"itemId" validate:"required"`
	ClassName string `json:"className" validate:"required"`
	Reason    string `json:"reason" validate:"required"`
}

// Loans returns open loans whose class name contains className,
// case-insensitively. An empty className returns every loan.
func (e *Engine) Loans(className string) []model.Loan {
	e.mu.RLock()
	defer e.mu.RUnlock()

	needle := strings.ToLower(className)
	out := []model.Loan{}
	for _, l := range e.state.Loans {
		if strings.Contains(strings.ToLower(l.ClassName), needle) {
			out = append(out, l)
		}
	}
	return out
}

// Loan returns the open loan with the given id.
func (e *Engine) Loan(id string) (model.Loan, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	i := e.loanIndex(id)
	if i < 0 {
		return model.Loan{}, ErrLoanNotFound
	}
	return e.state.Loans[i], nil
}

// Borrow opens a loan of an available item. The loan keeps a copy of the
// item's name and image. The item stays available.
func (e *Engine) Borrow(ctx context.Context, actor model.Actor, in BorrowInput) (model.Loan, error) {
	in.ClassName = strings.TrimSpace(in.ClassName)
	in.Reason = strings.TrimSpace(in.Reason)
	if err := e.check(in); err != nil {
		return model.Loan{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.itemIndex(in.ItemID)
	if i < 0 {
		return model.Loan{}, ErrItemNotFound
	}
	item := e.state.Items[i]
	if !item.Available {
		return model.Loan{}, ErrItemUnavailable
	}

	loan := model.Loan{
		ID:         e.newID(),
		ItemID:     item.ID,
		ItemName:   item.Name,
		ItemImage:  item.Image,
		ClassName:  in.ClassName,
		BorrowDate: e.now(),
		Reason:     in.Reason,
	}

	next := e.state
	next.Loans = append(slices.Clone(e.state.Loans), loan)
	next, _ = e.record(next, actor, audit.Event{
		Action:   model.ActionBorrow,
		ItemName: item.Name,
		UserName: loan.ClassName,
		Note:     loan.Reason,
	})

	if err := e.commit(ctx, next, store.KeyLoans, store.KeyLogs); err != nil {
		return model.Loan{}, err
	}

	e.log.Info("item borrowed", "user", loan.ClassName, "item", item.Name, "loan", loan.ID)
	return loan, nil
}

// Return closes the loan with the given id. The optional image is stored
// on the log entry as a data URI.
func (e *Engine) Return(ctx context.Context, actor model.Actor, loanID, story string, image io.Reader) (model.LogEntry, error) {
	var imageURL string
	if image != nil {
		uri, err := imaging.DataURI(image)
		if err != nil {
			return model.LogEntry{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		imageURL = uri
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.loanIndex(loanID)
	if i < 0 {
		return model.LogEntry{}, ErrLoanNotFound
	}
	loan := e.state.Loans[i]

	next := e.state
	next.Loans = slices.Delete(slices.Clone(e.state.Loans), i, i+1)
	next, entry := e.record(next, actor, audit.Event{
		Action:   model.ActionReturn,
		ItemName: loan.ItemName,
		UserName: loan.ClassName,
		Note:     strings.TrimSpace(story),
		ImageURL: imageURL,
	})

	if err := e.commit(ctx, next, store.KeyLoans, store.KeyLogs); err != nil {
		return model.LogEntry{}, err
	}

	e.log.Info("item returned", "user", loan.ClassName, "item", loan.ItemName, "loan", loan.ID)
	return entry, nil
}
