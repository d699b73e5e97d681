package store

import (
	"context"
	"strconv"

	"github.com/morrisclay/cds-console/internal/model"
)

// GroupStore caches groups.
type GroupStore struct {
	*catalog[model.Group]
	svc GroupService
}

// NewGroupStore creates an empty group store.
func NewGroupStore(svc GroupService) *GroupStore {
	return &GroupStore{
		catalog: newCatalog(svc.ListGroups, func(g model.Group) string { return g.Name }, model.Group.Clone),
		svc:     svc,
	}
}

// Get returns a group with its members.
func (s *GroupStore) Get(ctx context.Context, name string) (model.Group, error) {
	return s.get(ctx, name, func(ctx context.Context) (model.Group, error) {
		g, err := s.svc.GetGroup(ctx, name)
		if err != nil {
			return model.Group{}, err
		}
		return *g, nil
	})
}

// Create creates a group.
func (s *GroupStore) Create(ctx context.Context, g model.Group) (model.Group, error) {
	created, err := s.svc.CreateGroup(ctx, g)
	if err != nil {
		return model.Group{}, err
	}
	s.stored(created.Name, *created)
	return *created, nil
}

// Update updates the group named oldName.
func (s *GroupStore) Update(ctx context.Context, oldName string, g model.Group) (model.Group, error) {
	updated, err := s.svc.UpdateGroup(ctx, oldName, g)
	if err != nil {
		return model.Group{}, err
	}
	s.stored(oldName, *updated)
	return *updated, nil
}

// Delete deletes a group.
func (s *GroupStore) Delete(ctx context.Context, name string) error {
	if err := s.svc.DeleteGroup(ctx, name); err != nil {
		return err
	}
	s.deleted(name)
	return nil
}

// ActionStore caches reusable actions.
type ActionStore struct {
	*catalog[model.Action]
	svc ActionService
}

// NewActionStore creates an empty action store.
func NewActionStore(svc ActionService) *ActionStore {
	return &ActionStore{
		catalog: newCatalog(svc.ListActions, func(a model.Action) string { return a.Name }, model.Action.Clone),
		svc:     svc,
	}
}

// Get returns an action.
func (s *ActionStore) Get(ctx context.Context, name string) (model.Action, error) {
	return s.get(ctx, name, func(ctx context.Context) (model.Action, error) {
		a, err := s.svc.GetAction(ctx, name)
		if err != nil {
			return model.Action{}, err
		}
		return *a, nil
	})
}

// Create creates an action.
func (s *ActionStore) Create(ctx context.Context, a model.Action) (model.Action, error) {
	created, err := s.svc.CreateAction(ctx, a)
	if err != nil {
		return model.Action{}, err
	}
	s.stored(created.Name, *created)
	return *created, nil
}

// Update updates the action named oldName.
func (s *ActionStore) Update(ctx context.Context, oldName string, a model.Action) (model.Action, error) {
	updated, err := s.svc.UpdateAction(ctx, oldName, a)
	if err != nil {
		return model.Action{}, err
	}
	s.stored(oldName, *updated)
	return *updated, nil
}

// Delete deletes an action.
func (s *ActionStore) Delete(ctx context.Context, name string) error {
	if err := s.svc.DeleteAction(ctx, name); err != nil {
		return err
	}
	s.deleted(name)
	return nil
}

func idKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// BroadcastStore caches broadcasts.
type BroadcastStore struct {
	*catalog[model.Broadcast]
	svc BroadcastService
}

// NewBroadcastStore creates an empty broadcast store.
func NewBroadcastStore(svc BroadcastService) *BroadcastStore {
	return &BroadcastStore{
		catalog: newCatalog(svc.ListBroadcasts, func(b model.Broadcast) string { return idKey(b.ID) }, nil),
		svc:     svc,
	}
}

// Get returns a broadcast.
func (s *BroadcastStore) Get(ctx context.Context, id int64) (model.Broadcast, error) {
	return s.get(ctx, idKey(id), func(ctx context.Context) (model.Broadcast, error) {
		b, err := s.svc.GetBroadcast(ctx, id)
		if err != nil {
			return model.Broadcast{}, err
		}
		return *b, nil
	})
}

// Unread returns the cached broadcasts not yet read nor archived.
func (s *BroadcastStore) Unread(ctx context.Context) ([]model.Broadcast, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return remove(all, func(b model.Broadcast) bool { return b.Read || b.Archived }), nil
}

// Create creates a broadcast.
func (s *BroadcastStore) Create(ctx context.Context, b model.Broadcast) (model.Broadcast, error) {
	created, err := s.svc.CreateBroadcast(ctx, b)
	if err != nil {
		return model.Broadcast{}, err
	}
	s.stored(idKey(created.ID), *created)
	return *created, nil
}

// Update updates a broadcast.
func (s *BroadcastStore) Update(ctx context.Context, b model.Broadcast) (model.Broadcast, error) {
	updated, err := s.svc.UpdateBroadcast(ctx, b)
	if err != nil {
		return model.Broadcast{}, err
	}
	s.stored(idKey(b.ID), *updated)
	return *updated, nil
}

// Delete deletes a broadcast.
func (s *BroadcastStore) Delete(ctx context.Context, id int64) error {
	if err := s.svc.DeleteBroadcast(ctx, id); err != nil {
		return err
	}
	s.deleted(idKey(id))
	return nil
}

// MarkRead marks a broadcast as read.
func (s *BroadcastStore) MarkRead(ctx context.Context, id int64) error {
	if err := s.svc.MarkBroadcastRead(ctx, id); err != nil {
		return err
	}
	key := idKey(id)
	if b, ok := s.Lookup(key); ok {
		b.Read = true
		s.Replace(key, b)
	}
	if b, ok := s.details.get(key); ok {
		b.Read = true
		s.details.put(key, b)
	}
	return nil
}

// WorkerModelStore caches worker models.
type WorkerModelStore struct {
	*catalog[model.WorkerModel]
	svc WorkerModelService
}

// NewWorkerModelStore creates an empty worker model store.
func NewWorkerModelStore(svc WorkerModelService) *WorkerModelStore {
	return &WorkerModelStore{
		catalog: newCatalog(svc.ListWorkerModels, func(m model.WorkerModel) string { return idKey(m.ID) }, nil),
		svc:     svc,
	}
}

// Get returns a worker model.
func (s *WorkerModelStore) Get(ctx context.Context, id int64) (model.WorkerModel, error) {
	return s.get(ctx, idKey(id), func(ctx context.Context) (model.WorkerModel, error) {
		m, err := s.svc.GetWorkerModel(ctx, id)
		if err != nil {
			return model.WorkerModel{}, err
		}
		return *m, nil
	})
}

// Create creates a worker model.
func (s *WorkerModelStore) Create(ctx context.Context, m model.WorkerModel) (model.WorkerModel, error) {
	created, err := s.svc.CreateWorkerModel(ctx, m)
	if err != nil {
		return model.WorkerModel{}, err
	}
	s.stored(idKey(created.ID), *created)
	return *created, nil
}

// Update updates a worker model.
func (s *WorkerModelStore) Update(ctx context.Context, m model.WorkerModel) (model.WorkerModel, error) {
	updated, err := s.svc.UpdateWorkerModel(ctx, m)
	if err != nil {
		return model.WorkerModel{}, err
	}
	s.stored(idKey(m.ID), *updated)
	return *updated, nil
}

// Delete deletes a worker model.
func (s *WorkerModelStore) Delete(ctx context.Context, id int64) error {
	if err := s.svc.DeleteWorkerModel(ctx, id); err != nil {
		return err
	}
	s.deleted(idKey(id))
	return nil
}

// RequirementStore caches the requirement types known to the API.
type RequirementStore struct {
	*Collection[string]
}

// NewRequirementStore creates an empty requirement store.
func NewRequirementStore(svc RequirementService) *RequirementStore {
	return &RequirementStore{
		Collection: NewCollection(svc.ListRequirementTypes, func(s string) string { return s }, nil),
	}
}

// Types returns the requirement types, fetching them on first use.
func (s *RequirementStore) Types(ctx context.Context) ([]string, error) {
	return s.List(ctx)
}
