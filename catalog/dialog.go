package catalog

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hUstbit37/ipms-search-sub001/model"
	"github.com/hUstbit37/ipms-search-sub001/pkg/logger"
)

const DefaultDebounce = 300 * time.Millisecond

// Dialog is the IP selection dialog of the partners step. The selection is
// keyed by item id and survives closing and reopening once confirmed.
type Dialog struct {
	searcher Searcher
	ipType   model.IPType
	delay    time.Duration
	pageSize int

	// OnResults, when set, receives the outcome of each debounced search
	// that was not superseded by a newer one.
	OnResults func(items []model.IPItem, err error)

	mu        sync.Mutex
	open      bool
	seq       uint64
	timer     *time.Timer
	cancel    context.CancelFunc
	results   []model.IPItem
	selected  map[string]model.IPItem
	order     []string
	confirmed []model.IPItem
}

type Option func(*Dialog)

func WithDebounce(d time.Duration) Option {
	return func(dl *Dialog) { dl.delay = d }
}

func WithPageSize(n int) Option {
	return func(dl *Dialog) { dl.pageSize = n }
}

func NewDialog(searcher Searcher, ipType model.IPType, opts ...Option) *Dialog {
	d := &Dialog{
		searcher: searcher,
		ipType:   ipType,
		delay:    DefaultDebounce,
		pageSize: 20,
		selected: make(map[string]model.IPItem),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open shows the dialog seeded with the last confirmed selection, or with
// initial when nothing was confirmed in this session yet.
func (d *Dialog) Open(initial []model.IPItem) {
	d.mu.Lock()
	defer d.mu.Unlock()

	seed := d.confirmed
	if seed == nil {
		seed = initial
	}
	d.resetSelection(seed)
	d.results = nil
	d.open = true
}

func (d *Dialog) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

// SetType switches the catalog. Results are cleared, the selection is kept.
func (d *Dialog) SetType(t model.IPType) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ipType = t
	d.stopPendingLocked()
	d.results = nil
}

func (d *Dialog) Type() model.IPType {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ipType
}

// Search schedules a query after the debounce delay. Each call supersedes the
// previous one. A blank keyword cancels pending work and clears the results.
func (d *Dialog) Search(keyword string) {
	d.mu.Lock()
	d.stopPendingLocked()

	if strings.TrimSpace(keyword) == "" {
		d.results = nil
		cb := d.OnResults
		d.mu.Unlock()
		if cb != nil {
			cb(nil, nil)
		}
		return
	}

	seq := d.seq
	d.timer = time.AfterFunc(d.delay, func() { d.run(seq, keyword) })
	d.mu.Unlock()
}

// stopPendingLocked invalidates any scheduled or in-flight search.
func (d *Dialog) stopPendingLocked() {
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *Dialog) run(seq uint64, keyword string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d.mu.Lock()
	if seq != d.seq {
		d.mu.Unlock()
		return
	}
	d.cancel = cancel
	d.mu.Unlock()

	items, err := d.query(ctx, keyword)

	d.mu.Lock()
	if seq != d.seq {
		d.mu.Unlock()
		return
	}
	d.cancel = nil
	if err == nil {
		d.results = items
	}
	cb := d.OnResults
	d.mu.Unlock()

	if err != nil {
		logger.Warn(ctx, "ip catalog search failed", "keyword", keyword, "error", err)
	}
	if cb != nil {
		cb(items, err)
	}
}

// SearchNow runs the query immediately, bypassing the debounce.
func (d *Dialog) SearchNow(ctx context.Context, keyword string) ([]model.IPItem, error) {
	d.mu.Lock()
	d.stopPendingLocked()
	d.mu.Unlock()

	if strings.TrimSpace(keyword) == "" {
		d.mu.Lock()
		d.results = nil
		d.mu.Unlock()
		return nil, nil
	}

	items, err := d.query(ctx, keyword)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.results = items
	d.mu.Unlock()
	return items, nil
}

func (d *Dialog) query(ctx context.Context, keyword string) ([]model.IPItem, error) {
	d.mu.Lock()
	q := Query{Type: d.ipType, Keyword: keyword, Page: 1, PageSize: d.pageSize}
	d.mu.Unlock()

	res, err := Search(ctx, d.searcher, q)
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// Results returns the items of the latest completed search.
func (d *Dialog) Results() []model.IPItem {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]model.IPItem(nil), d.results...)
}

// Toggle adds the item when absent and removes it when present. It reports
// whether the item is selected afterwards.
func (d *Dialog) Toggle(item model.IPItem) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.selected[item.ID]; ok {
		delete(d.selected, item.ID)
		for i, id := range d.order {
			if id == item.ID {
				d.order = append(d.order[:i], d.order[i+1:]...)
				break
			}
		}
		return false
	}
	d.selected[item.ID] = item
	d.order = append(d.order, item.ID)
	return true
}

func (d *Dialog) IsSelected(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.selected[id]
	return ok
}

// Selected returns the running selection in the order items were picked.
func (d *Dialog) Selected() []model.IPItem {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selectedLocked()
}

func (d *Dialog) selectedLocked() []model.IPItem {
	out := make([]model.IPItem, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.selected[id])
	}
	return out
}

// Confirm closes the dialog and returns the full selection.
func (d *Dialog) Confirm() []model.IPItem {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopPendingLocked()
	d.confirmed = d.selectedLocked()
	d.open = false
	return append([]model.IPItem(nil), d.confirmed...)
}

// Dismiss closes the dialog and drops changes made since it was opened.
func (d *Dialog) Dismiss() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopPendingLocked()
	d.resetSelection(d.confirmed)
	d.results = nil
	d.open = false
}

func (d *Dialog) resetSelection(items []model.IPItem) {
	d.selected = make(map[string]model.IPItem, len(items))
	d.order = d.order[:0]
	for _, it := range items {
		if _, dup := d.selected[it.ID]; dup {
			continue
		}
		d.selected[it.ID] = it
		d.order = append(d.order, it.ID)
	}
}
