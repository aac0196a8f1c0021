package service

import (
	"context"
	"fmt"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/model"
)

// userDirectory resolves user ids to summaries for joined views. Ids that no
// longer resolve map to a summary carrying the id only.
type userDirectory map[string]model.UserSummary

func loadUsers(ctx context.Context, users UserStore, ids []string) (userDirectory, error) {
	dir := make(userDirectory, len(ids))
	if len(ids) == 0 {
		return dir, nil
	}
	found, err := users.GetUsers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	for i := range found {
		dir[found[i].ID] = found[i].Summary()
	}
	return dir, nil
}

func (d userDirectory) summary(id string) model.UserSummary {
	if s, ok := d[id]; ok {
		return s
	}
	return model.UserSummary{ID: id}
}

func (d userDirectory) find(id string) *model.UserSummary {
	s, ok := d[id]
	if !ok {
		return nil
	}
	return &s
}

// distinct returns ids without repeats, in first-seen order.
func distinct(ids ...[]string) []string {
	var set model.IDSet
	for _, group := range ids {
		for _, id := range group {
			set.Add(id)
		}
	}
	return set.Slice()
}
