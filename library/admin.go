package library

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"library-client/api"
	"library-client/pagination"
	"library-client/session"
)

// Users pages through registered users.
func (lm *LibraryManager) Users(ctx context.Context, q pagination.Query) (pagination.PageResult[User], error) {
	if _, err := lm.Require(session.RoleAdmin); err != nil {
		return pagination.PageResult[User]{}, err
	}
	users, err := fetchPage(ctx, lm, "/admin/users", wireUser.toUser, api.WithPage(q.Page, q.Size))
	if err != nil {
		return users, fmt.Errorf("load users: %w", err)
	}
	return users, nil
}

// DeleteUser removes an account and returns the service message.
func (lm *LibraryManager) DeleteUser(ctx context.Context, id int64) (string, error) {
	s, err := lm.Require(session.RoleAdmin)
	if err != nil {
		return "", err
	}
	if s.UserID == id {
		return "", fmt.Errorf("cannot delete the signed-in account")
	}
	var env envelope
	if err := lm.api.Delete(ctx, "/admin/users/"+itoa(id), &env); err != nil {
		return "", fmt.Errorf("delete user %d: %w", id, err)
	}
	if env.failed() {
		return "", env.err("delete failed")
	}
	return env.Message, nil
}

// AdminOverview is the admin dashboard summary.
type AdminOverview struct {
	Username     string
	PendingCount int64
	Books        int64
	Users        int64
	Borrows      int64
	Overdue      int64
}

// Overview gathers the admin dashboard counters. Counters that fail to load
// are shown as zero.
func (lm *LibraryManager) Overview(ctx context.Context) (AdminOverview, error) {
	s, err := lm.Require(session.RoleAdmin)
	if err != nil {
		return AdminOverview{}, err
	}
	ov := AdminOverview{Username: s.Username}
	if n, err := lm.PendingCount(ctx); err == nil {
		ov.PendingCount = n
	}

	var resp struct {
		envelope
		Data *struct {
			BookCount    flexInt `json:"bookCount"`
			UserCount    flexInt `json:"userCount"`
			BorrowCount  flexInt `json:"borrowCount"`
			OverdueCount flexInt `json:"overdueCount"`
		} `json:"data"`
	}
	if err := lm.api.Get(ctx, "/books/statistics", &resp); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return ov, err
		}
		lm.logger.Warn("load library statistics", zap.Error(err))
		return ov, nil
	}
	if !resp.ok() || resp.Data == nil {
		lm.logger.Warn("load library statistics", zap.String("message", resp.Message))
		return ov, nil
	}
	ov.Books = int64(resp.Data.BookCount)
	ov.Users = int64(resp.Data.UserCount)
	ov.Borrows = int64(resp.Data.BorrowCount)
	ov.Overdue = int64(resp.Data.OverdueCount)
	return ov, nil
}
