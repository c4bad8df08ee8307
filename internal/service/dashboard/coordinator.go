package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/milktrack/internal/domain/models"
	"github.com/mamadbah2/milktrack/internal/repository"
	"github.com/mamadbah2/milktrack/internal/service/devices"
	"github.com/mamadbah2/milktrack/internal/service/stats"
)

// DefaultFeedLimit caps the raw feed and the remote collection subscription.
const DefaultFeedLimit = 50

// ErrStopped is returned for requests made after Stop or before Start.
var ErrStopped = errors.New("dashboard coordinator is not running")

// LocalBackend is the synchronous single-device store.
type LocalBackend interface {
	LoadAll() []models.CollectionRecord
	Farmers() []models.FarmerAggregate
	Append(input models.CollectionInput) (models.CollectionRecord, error)
	ClearAll() error
}

// RemoteBackend is the realtime multi-client store. Writes are acknowledged
// by the store; their effect only shows up through the subscriptions.
type RemoteBackend interface {
	AddCollection(ctx context.Context, input models.CollectionInput) (string, error)
	ClearAll(ctx context.Context) error
	SubscribeCollections(ctx context.Context, limit int) *repository.Subscription[[]models.CollectionRecord]
	SubscribeFarmers(ctx context.Context) *repository.Subscription[[]models.FarmerAggregate]
	SubscribeDevices(ctx context.Context) *repository.Subscription[[]models.DeviceStatus]
}

// Options configures a Coordinator.
type Options struct {
	Backend   models.Backend
	Local     LocalBackend
	Remote    RemoteBackend
	FeedLimit int
	Location  *time.Location
	Now       func() time.Time
}

// SubmitResult tells the caller whether the dashboard already reflects the
// submission. Remote submissions are applied later by the subscription.
type SubmitResult struct {
	CollectionID string
	Record       *models.CollectionRecord
	Applied      bool
}

// Coordinator owns the working set of one dashboard session. Every change to
// it runs on a single loop goroutine, one reaction at a time.
type Coordinator struct {
	backend   models.Backend
	local     LocalBackend
	remote    RemoteBackend
	feedLimit int
	loc       *time.Location
	now       func() time.Time
	logger    *zap.Logger

	events chan func()

	// Loop-owned state.
	records []models.CollectionRecord
	farmers []models.FarmerAggregate
	devices []models.DeviceStatus

	mu        sync.RWMutex
	view      models.DashboardView
	published []models.CollectionRecord
	listeners map[int]chan models.DashboardView
	nextID    int
	running   bool
	stopped   bool

	collections *repository.Subscription[[]models.CollectionRecord]
	farmerFeed  *repository.Subscription[[]models.FarmerAggregate]
	deviceFeed  *repository.Subscription[[]models.DeviceStatus]

	// lifecycle serializes Start and Stop.
	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewCoordinator validates opts and builds an idle coordinator.
func NewCoordinator(opts Options, logger *zap.Logger) (*Coordinator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch opts.Backend {
	case models.BackendLocal:
		if opts.Local == nil {
			return nil, errors.New("local backend selected without a local repository")
		}
	case models.BackendRemote:
		if opts.Remote == nil {
			return nil, errors.New("remote backend selected without a remote repository")
		}
	default:
		return nil, errors.New("unknown backend " + string(opts.Backend))
	}
	if opts.FeedLimit <= 0 {
		opts.FeedLimit = DefaultFeedLimit
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Coordinator{
		backend:   opts.Backend,
		local:     opts.Local,
		remote:    opts.Remote,
		feedLimit: opts.FeedLimit,
		loc:       opts.Location,
		now:       opts.Now,
		logger:    logger,
		events:    make(chan func()),
		listeners: make(map[int]chan models.DashboardView),
		done:      make(chan struct{}),
	}, nil
}

// Start loads or subscribes to the backend and starts the loop. For the
// local backend the first view is computed before Start returns. A stopped
// coordinator cannot be restarted.
func (c *Coordinator) Start(ctx context.Context) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return ErrStopped
	}
	if c.running {
		c.mu.Unlock()
		return errors.New("dashboard coordinator already started")
	}
	c.running = true
	c.mu.Unlock()

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	switch c.backend {
	case models.BackendLocal:
		c.records = c.local.LoadAll()
		c.farmers = c.local.Farmers()
		c.logger.Info("local working set loaded", zap.Int("collections", len(c.records)))
	case models.BackendRemote:
		c.collections = c.remote.SubscribeCollections(loopCtx, c.feedLimit)
		c.farmerFeed = c.remote.SubscribeFarmers(loopCtx)
		c.deviceFeed = c.remote.SubscribeDevices(loopCtx)
		c.logger.Info("remote subscriptions opened", zap.Int("feed_limit", c.feedLimit))
	}
	c.recompute()

	go c.loop(loopCtx)
	return nil
}

// Stop releases the three remote subscriptions together, ends the loop and
// closes every listener. It is final, whether or not Start ever ran.
func (c *Coordinator) Stop() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	started := c.running
	c.running = false
	c.mu.Unlock()

	if started {
		c.cancel()
		<-c.done
		c.releaseSubscriptions()
	}

	c.mu.Lock()
	for id, ch := range c.listeners {
		close(ch)
		delete(c.listeners, id)
	}
	c.mu.Unlock()
	c.logger.Info("dashboard coordinator stopped", zap.Bool("was_running", started))
}

func (c *Coordinator) releaseSubscriptions() {
	if c.collections == nil {
		return
	}
	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); c.collections.Release() }()
	go func() { defer wg.Done(); c.farmerFeed.Release() }()
	go func() { defer wg.Done(); c.deviceFeed.Release() }()
	wg.Wait()
}

func (c *Coordinator) loop(ctx context.Context) {
	defer close(c.done)

	var collections <-chan []models.CollectionRecord
	var farmers <-chan []models.FarmerAggregate
	var deviceStatus <-chan []models.DeviceStatus
	if c.collections != nil {
		collections = c.collections.C()
		farmers = c.farmerFeed.C()
		deviceStatus = c.deviceFeed.C()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-c.events:
			fn()
		case records, ok := <-collections:
			if !ok {
				collections = nil
				c.logger.Warn("collections subscription closed, dashboard keeps last snapshot")
				continue
			}
			c.records = records
			c.recompute()
		case list, ok := <-farmers:
			if !ok {
				farmers = nil
				c.logger.Warn("farmers subscription closed, dashboard keeps last snapshot")
				continue
			}
			c.farmers = list
			c.recompute()
		case list, ok := <-deviceStatus:
			if !ok {
				deviceStatus = nil
				c.logger.Warn("devices subscription closed, dashboard keeps last snapshot")
				continue
			}
			c.devices = list
			c.recompute()
		}
	}
}

// do runs fn on the loop and waits for it to finish.
func (c *Coordinator) do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	reaction := func() { result <- fn() }

	select {
	case c.events <- reaction:
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-c.done:
		return ErrStopped
	}
}

// Submit validates and stores a new collection. On the local backend the
// returned result is already reflected in View; on the remote backend it is
// not until the subscription delivers the new snapshot.
func (c *Coordinator) Submit(ctx context.Context, input models.CollectionInput) (SubmitResult, error) {
	if err := input.Validate(); err != nil {
		return SubmitResult{}, err
	}
	if !c.isRunning() {
		return SubmitResult{}, ErrStopped
	}

	if c.backend == models.BackendRemote {
		id, err := c.remote.AddCollection(ctx, input)
		if err != nil {
			c.logger.Error("remote submission failed", zap.Error(err))
			return SubmitResult{}, err
		}
		c.logger.Info("collection submitted", zap.String("collection_id", id), zap.String("farmer_id", input.FarmerID))
		return SubmitResult{CollectionID: id}, nil
	}

	var res SubmitResult
	err := c.do(ctx, func() error {
		rec, err := c.local.Append(input)
		if err != nil {
			return err
		}
		c.records = append([]models.CollectionRecord{rec}, c.records...)
		c.farmers = c.local.Farmers()
		c.recompute()
		res = SubmitResult{CollectionID: rec.ID, Record: &rec, Applied: true}
		return nil
	})
	if err != nil {
		c.logger.Error("local submission failed", zap.Error(err))
		return SubmitResult{}, err
	}
	c.logger.Info("collection recorded", zap.String("collection_id", res.CollectionID), zap.String("farmer_id", input.FarmerID))
	return res, nil
}

// ClearAll destroys every record and aggregate. Confirmation must have been
// obtained by the caller. Locally the empty state is visible on return;
// remotely it arrives through the subscriptions.
func (c *Coordinator) ClearAll(ctx context.Context) error {
	if !c.isRunning() {
		return ErrStopped
	}

	if c.backend == models.BackendRemote {
		if err := c.remote.ClearAll(ctx); err != nil {
			c.logger.Error("remote clear failed", zap.Error(err))
			return err
		}
		return nil
	}

	return c.do(ctx, func() error {
		if err := c.local.ClearAll(); err != nil {
			return err
		}
		c.records = nil
		c.farmers = nil
		c.recompute()
		c.logger.Info("local data cleared")
		return nil
	})
}

// Refresh recomputes with the current clock. Relative ages and the today
// window move even when no data changes.
func (c *Coordinator) Refresh(ctx context.Context) error {
	if !c.isRunning() {
		return ErrStopped
	}
	return c.do(ctx, func() error {
		c.recompute()
		return nil
	})
}

// View returns the latest published view. Its slices must not be modified.
func (c *Coordinator) View() models.DashboardView {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view
}

// Records returns a copy of the working set behind the current view.
func (c *Coordinator) Records() []models.CollectionRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.CollectionRecord, len(c.published))
	copy(out, c.published)
	return out
}

// Listen registers a consumer of published views. The channel holds at most
// the newest view; cancel unregisters it. After Stop the channel comes back
// closed.
func (c *Coordinator) Listen() (<-chan models.DashboardView, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan models.DashboardView, 1)
	if c.stopped {
		close(ch)
		return ch, func() {}
	}
	id := c.nextID
	c.nextID++
	c.listeners[id] = ch

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if existing, ok := c.listeners[id]; ok {
			close(existing)
			delete(c.listeners, id)
		}
	}
	return ch, cancel
}

func (c *Coordinator) isRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.running
}

// recompute rebuilds every derived view from the working set and publishes
// it. It only runs on the loop goroutine, or before the loop starts.
func (c *Coordinator) recompute() {
	now := c.now().In(c.loc)

	feed := c.records
	if len(feed) > c.feedLimit {
		feed = feed[:c.feedLimit]
	}
	feedCopy := make([]models.CollectionRecord, len(feed))
	copy(feedCopy, feed)

	view := models.DashboardView{
		Backend:      c.backend,
		GeneratedAt:  now,
		Stats:        stats.Compute(c.records, now),
		Farmers:      withDeposits(c.farmers),
		Devices:      devices.Track(c.records, now),
		DeviceStatus: append([]models.DeviceStatus(nil), c.devices...),
		Feed:         feedCopy,
		TotalRecords: len(c.records),
	}

	c.mu.Lock()
	c.view = view
	c.published = c.records
	for _, ch := range c.listeners {
		select {
		case ch <- view:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
	c.mu.Unlock()

	c.logger.Debug("dashboard recomputed",
		zap.Int("records", view.TotalRecords),
		zap.Int("today", view.Stats.Count),
		zap.Int("farmers", len(view.Farmers)))
}

// withDeposits keeps the farmers that have at least one deposit; profiles
// registered without deliveries carry no aggregate.
func withDeposits(list []models.FarmerAggregate) []models.FarmerAggregate {
	out := make([]models.FarmerAggregate, 0, len(list))
	for _, f := range list {
		if f.TotalDeposits > 0 {
			out = append(out, f)
		}
	}
	return out
}
