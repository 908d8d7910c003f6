package wizard

import (
	"context"
	"errors"

	"github.com/hUstbit37/ipms-search-sub001/model"
	"github.com/hUstbit37/ipms-search-sub001/pkg/logger"
	"github.com/hUstbit37/ipms-search-sub001/service"
)

// EntityAPI is the backend resource an existing contract lives in.
type EntityAPI interface {
	GetEntity(ctx context.Context, id string) (*model.Entity, error)
	UpdateStep(ctx context.Context, id string, step model.Step, fields map[string]any) (*model.Entity, error)
	DeleteEntity(ctx context.Context, id string) error
}

// ServerBacked writes every step straight to the backend entity and patches
// the shared entity cache with what was sent.
type ServerBacked struct {
	api      EntityAPI
	cache    *service.EntityCache
	entityID string
}

func NewServerBacked(api EntityAPI, cache *service.EntityCache, entityID string) *ServerBacked {
	return &ServerBacked{api: api, cache: cache, entityID: entityID}
}

func (s *ServerBacked) Kind() string { return KindServer }


// LoadEntity returns the entity, from the cache while it is fresh.
func (s *ServerBacked) LoadEntity(ctx context.Context) (*model.Entity, error) {
	entity, err := s.cache.Load(ctx, s.entityID, s.api.GetEntity)
	if err != nil {
		return nil, &PersistenceError{Message: service.UserMessage(err), Err: err}
	}
	return entity, nil
}

func (s *ServerBacked) Load(ctx context.Context, dst model.Draft) (bool, error) {
	entity, err := s.LoadEntity(ctx)
	if err != nil {
		var perr *PersistenceError
		if errors.As(err, &perr) {
			perr.Step = dst.Step()
		}
		return false, err
	}
	ok, err := entity.Section(dst.Step(), dst)
	if err != nil {
		// A section the form cannot read leaves the form at its defaults.
		logger.Warn(ctx, "ignoring unreadable entity section", "section", dst.Step().Section(), "error", err)
		return false, nil
	}
	return ok, nil
}

// Save sends the step payload tagged with its step number. The cache is
// only touched once the backend accepted the update.
func (s *ServerBacked) Save(ctx context.Context, d model.Draft) error {
	fields, err := model.PayloadFields(d)
	if err != nil {
		return &PersistenceError{Step: d.Step(), Message: service.GenericErrorMessage, Err: err}
	}

	if _, err := s.api.UpdateStep(ctx, s.entityID, d.Step(), fields); err != nil {
		logger.Error(ctx, "failed to update entity step", "entity_id", s.entityID, "step", int(d.Step()), "error", err)
		return &PersistenceError{Step: d.Step(), Message: service.UserMessage(err), Err: err}
	}

	patched, err := s.cache.ApplyPatch(s.entityID, d.Step(), d.Payload())
	if err != nil {
		logger.Warn(ctx, "failed to patch cached entity", "entity_id", s.entityID, "error", err)
		s.cache.Invalidate(s.entityID)
	}
	logger.Debug(ctx, "entity step updated", "entity_id", s.entityID, "step", int(d.Step()), "cache_patched", patched)
	return nil
}

// Refresh drops the cached copy and fetches the entity again.
func (s *ServerBacked) Refresh(ctx context.Context) error {
	s.cache.Invalidate(s.entityID)
	_, err := s.LoadEntity(ctx)
	return err
}

// Delete removes the entity from the backend and the cache.
func (s *ServerBacked) Delete(ctx context.Context) error {
	if err := s.api.DeleteEntity(ctx, s.entityID); err != nil {
		return &PersistenceError{Message: service.UserMessage(err), Err: err}
	}
	s.cache.Invalidate(s.entityID)
	return nil
}
