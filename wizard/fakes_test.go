package wizard

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/hUstbit37/ipms-search-sub001/config"
	"github.com/hUstbit37/ipms-search-sub001/model"
	"github.com/hUstbit37/ipms-search-sub001/service"
)

type updateCall struct {
	id     string
	step   model.Step
	fields map[string]any
}

// fakeEntityAPI records calls and serves one entity.
type fakeEntityAPI struct {
	mu        sync.Mutex
	entity    *model.Entity
	getCalls  int
	updates   []updateCall
	deletes   []string
	getErr    error
	updateErr error
	block     chan struct{}
}

func (f *fakeEntityAPI) GetEntity(ctx context.Context, id string) (*model.Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.entity == nil {
		return nil, &service.APIError{StatusCode: 404}
	}
	return f.entity.Clone(), nil
}

func (f *fakeEntityAPI) UpdateStep(ctx context.Context, id string, step model.Step, fields map[string]any) (*model.Entity, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updateCall{id: id, step: step, fields: fields})
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return nil, nil
}

func (f *fakeEntityAPI) DeleteEntity(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	return nil
}

func (f *fakeEntityAPI) setEntity(e *model.Entity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entity = e
}

// brokenStore fails every operation.
type brokenStore struct{}

var errStorageDisabled = errors.New("storage disabled")

func (brokenStore) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errStorageDisabled
}

func (brokenStore) Set(ctx context.Context, key, value string) error {
	return errStorageDisabled
}

func (brokenStore) Delete(ctx context.Context, key string) error {
	return errStorageDisabled
}

func newCache() *service.EntityCache {
	return service.NewEntityCache(&config.CacheConfig{EntityTTLSeconds: 300})
}

func newLicenseWizard(t *testing.T, api *fakeEntityAPI) (*Wizard, *URLNavigator, *service.EntityCache) {
	t.Helper()
	u, _ := url.Parse("https://ipms.example.com/licenses/42/edit?step=1")
	nav := NewURLNavigator(u)
	cache := newCache()
	w := New("license", NewController("42", nav), NewServerBacked(api, cache, "42"))
	return w, nav, cache
}

func newTransferWizard(store service.DraftStore) (*Wizard, *URLNavigator) {
	u, _ := url.Parse("https://ipms.example.com/transfers/new")
	nav := NewURLNavigator(u)
	return New("transfer", NewController("", nav), NewLocalBacked(store, "acme:alice:")), nav
}

func validGeneralInfo() *model.GeneralInfo {
	return &model.GeneralInfo{Method: "HDCQ", Type: "EXCLUSIVE", DocNumber: "HD-001"}
}
