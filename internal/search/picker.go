package search

import (
	"context"
	"sync"
	"time"

	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/repository"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultPageSize = 30
	DefaultDebounce = 300 * time.Millisecond
)

// Fetcher loads one page of the exercise catalog.
type Fetcher interface {
	Search(ctx context.Context, q repository.ExerciseQuery) ([]domain.Exercise, error)
}

// Query is the input of the picker. An empty Muscle means every muscle.
type Query struct {
	Text   string `json:"q"`
	Muscle string `json:"muscle"`
}

// Snapshot is the visible state of a picker.
type Snapshot struct {
	Query   Query             `json:"query"`
	Page    int               `json:"page"`
	Items   []domain.Exercise `json:"items"`
	HasMore bool              `json:"hasMore"`
	Loading bool              `json:"loading"`
	Err     error             `json:"-"`
}

// Picker is the paginated, debounced exercise search of the authoring wizard.
//
// Every input change schedules a fetch after the debounce delay, replacing any
// fetch still waiting. Each schedule takes a new generation; a result whose
// generation is no longer current is discarded. Page 0 replaces the items,
// later pages append. HasMore is true when the filtered page came back full,
// which may report more rows than actually exist.
type Picker struct {
	fetcher  Fetcher
	pageSize int
	debounce time.Duration
	observe  func(time.Duration)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	gen     uint64
	timer   *time.Timer
	query   Query
	page    int
	items   []domain.Exercise
	hasMore bool
	loading bool
	err     error
	settled chan struct{}
	closed  bool
}

type Option func(*Picker)

// WithFetchObserver reports the duration of every fetch.
func WithFetchObserver(observe func(time.Duration)) Option {
	return func(p *Picker) { p.observe = observe }
}

func NewPicker(fetcher Fetcher, pageSize int, debounce time.Duration, opts ...Option) *Picker {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if debounce < 0 {
		debounce = DefaultDebounce
	}
	ctx, cancel := context.WithCancel(context.Background())
	settled := make(chan struct{})
	close(settled)

	p := &Picker{
		fetcher:  fetcher,
		pageSize: pageSize,
		debounce: debounce,
		ctx:      ctx,
		cancel:   cancel,
		hasMore:  true,
		items:    []domain.Exercise{},
		settled:  settled,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetQuery resets pagination and schedules the first page of q.
func (p *Picker) SetQuery(q Query) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.schedule(q, 0)
}

// Load schedules page of q. It is how a caller that owns the cursor drives
// the picker.
func (p *Picker) Load(q Query, page int) {
	if page < 0 {
		page = 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.schedule(q, page)
}

// NextPage schedules the next page unless a fetch is pending or the last page
// came back short. It reports whether a fetch was scheduled.
func (p *Picker) NextPage() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.canLoadMore() {
		return false
	}
	p.schedule(p.query, p.page+1)
	return true
}

// CanLoadMore reports whether NextPage would schedule a fetch.
func (p *Picker) CanLoadMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.canLoadMore()
}

func (p *Picker) canLoadMore() bool {
	return !p.closed && !p.loading && p.hasMore
}

// schedule must be called with p.mu held.
func (p *Picker) schedule(q Query, page int) {
	if p.closed {
		return
	}
	p.gen++
	gen := p.gen

	if p.timer != nil && p.timer.Stop() {
		p.wg.Done()
	}

	p.query = q
	p.page = page
	if page == 0 {
		p.hasMore = true
	}
	p.loading = true
	p.err = nil
	select {
	case <-p.settled:
		p.settled = make(chan struct{})
	default:
	}

	p.wg.Add(1)
	p.timer = time.AfterFunc(p.debounce, func() {
		defer p.wg.Done()
		p.fetch(gen, q, page)
	})
}

func (p *Picker) fetch(gen uint64, q Query, page int) {
	started := time.Now()
	items, err := p.fetcher.Search(p.ctx, repository.ExerciseQuery{
		Text:   q.Text,
		Muscle: q.Muscle,
		Offset: page * p.pageSize,
		Limit:  p.pageSize,
	})
	if p.observe != nil {
		p.observe(time.Since(started))
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || gen != p.gen {
		log.Tracef("picker: dropped stale page %d of %q", page, q.Text)
		return
	}

	p.loading = false
	if err != nil {
		p.err = err
		log.Warnf("picker: fetch page %d of %q: %s", page, q.Text, err)
	} else {
		filtered := FilterByMuscle(items, q.Muscle)
		p.hasMore = len(filtered) == p.pageSize
		if page == 0 {
			p.items = filtered
		} else {
			p.items = append(p.items, filtered...)
		}
	}
	close(p.settled)
}

// Snapshot returns the current state without waiting.
func (p *Picker) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot()
}

func (p *Picker) snapshot() Snapshot {
	items := make([]domain.Exercise, len(p.items))
	copy(items, p.items)
	return Snapshot{
		Query:   p.query,
		Page:    p.page,
		Items:   items,
		HasMore: p.hasMore,
		Loading: p.loading,
		Err:     p.err,
	}
}

// Wait blocks until the latest scheduled fetch has been applied, then returns
// the state.
func (p *Picker) Wait(ctx context.Context) (Snapshot, error) {
	p.mu.Lock()
	settled := p.settled
	p.mu.Unlock()

	select {
	case <-settled:
		return p.Snapshot(), nil
	case <-ctx.Done():
		return p.Snapshot(), ctx.Err()
	}
}

// Close drops any pending fetch and waits for running ones to return.
func (p *Picker) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.timer != nil && p.timer.Stop() {
		p.wg.Done()
	}
	select {
	case <-p.settled:
	default:
		close(p.settled)
	}
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
}
