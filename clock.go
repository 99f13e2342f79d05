package maxitaxi

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/JakubNatonek/MaxiTaxi-sub000/internal/flows"
	"github.com/JakubNatonek/MaxiTaxi-sub000/store"
	"github.com/JakubNatonek/MaxiTaxi-sub000/token"
)

// sessionClock is the watchdog over the stored token. Two producers, the
// cron interval trigger and the debounced activity trigger, feed one
// serialized check queue, so overlapping triggers can never race on the
// store or issue a second refresh for the same expiry window.
type sessionClock struct {
	cfg     ClockConfig
	store   store.Store
	metrics *Metrics
	log     zerolog.Logger
	now     func() time.Time

	// refresh and forceLogout are wired to the engine after construction.
	refresh     func(context.Context) flows.RefreshResult
	forceLogout func(context.Context)

	state atomic.Int32

	cron   *cron.Cron
	cronID cron.EntryID

	debounceMu sync.Mutex
	debounce   *time.Timer

	checkCh  chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func newSessionClock(cfg ClockConfig, st store.Store, metrics *Metrics, log zerolog.Logger) *sessionClock {
	return &sessionClock{
		cfg:     cfg,
		store:   st,
		metrics: metrics,
		log:     log,
		now:     time.Now,
		cron:    cron.New(),
		checkCh: make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
	}
}

// Start launches the queue consumer and the interval trigger.
func (c *sessionClock) Start() error {
	id, err := c.cron.AddFunc(fmt.Sprintf("@every %s", c.cfg.CheckInterval), c.schedule)
	if err != nil {
		return fmt.Errorf("register interval trigger: %w", err)
	}
	c.cronID = id

	c.wg.Add(1)
	go c.run()
	c.cron.Start()
	return nil
}

// Stop halts both triggers and the consumer. Idempotent.
func (c *sessionClock) Stop() {
	c.stopOnce.Do(func() {
		c.cron.Stop()
		c.debounceMu.Lock()
		if c.debounce != nil {
			c.debounce.Stop()
		}
		c.debounceMu.Unlock()
		close(c.stopCh)
		c.wg.Wait()
	})
}

// NotifyActivity registers a user-interaction event. Rapid repeated events
// collapse into one scheduled check, the quiet-window timer resetting on
// each new event.
func (c *sessionClock) NotifyActivity() {
	c.debounceMu.Lock()
	defer c.debounceMu.Unlock()
	if c.debounce == nil {
		c.debounce = time.AfterFunc(c.cfg.ActivityDebounce, c.schedule)
		return
	}
	c.debounce.Reset(c.cfg.ActivityDebounce)
}

// schedule enqueues a check. A check already pending absorbs the trigger.
func (c *sessionClock) schedule() {
	select {
	case c.checkCh <- struct{}{}:
		c.metrics.Inc(MetricChecksScheduled)
	default:
		c.metrics.Inc(MetricChecksCoalesced)
	}
}

func (c *sessionClock) run() {
	defer c.wg.Done()
	for {
		select {
		case <-c.stopCh:
			return
		case <-c.checkCh:
			c.runCheck(context.Background())
		}
	}
}

// runCheck applies the decision policy and acts on the outcome. It executes
// on the single consumer goroutine only.
func (c *sessionClock) runCheck(ctx context.Context) {
	res := flows.RunCheck(ctx, flows.CheckDeps{
		Now:   c.now,
		Token: c.store.Token,
		ExpiryOf: func(tok string) (time.Time, error) {
			claims, err := token.Decode(tok)
			if err != nil {
				return time.Time{}, err
			}
			return claims.ExpiresAt(), nil
		},
		RefreshWindow: c.cfg.RefreshWindow,
	})

	switch res.Outcome {
	case flows.CheckOutcomeValid:
		c.setState(StateValid)

	case flows.CheckOutcomeExpiringSoon:
		c.setState(StateRefreshing)
		c.log.Info().Dur("time_to_expiry", res.TimeToExpiry).Msg("token expiring soon, refreshing")
		ref := c.refresh(ctx)
		if ref.Failure == flows.RefreshFailureNone {
			c.metrics.Inc(MetricRefreshSuccess)
			c.setState(StateValid)
			return
		}
		c.metrics.Inc(MetricRefreshFailure)
		c.log.Warn().Err(ref.Err).Int("status", ref.Status).Msg("refresh failed, forcing logout")
		c.setState(StateExpired)
		c.forceLogout(ctx)

	case flows.CheckOutcomeExpired, flows.CheckOutcomeMalformed:
		c.setState(StateExpired)
		c.log.Info().Msg("session expired, forcing logout")
		c.forceLogout(ctx)

	case flows.CheckOutcomeNoSession:
		// Only a transition into NoSession clears storage; steady-state
		// checks with no session stay quiet.
		if c.State() != StateNoSession {
			c.setState(StateNoSession)
			c.forceLogout(ctx)
		}

	case flows.CheckOutcomeStoreError:
		// Advisory trigger: a storage hiccup must not end the session.
		c.log.Warn().Err(res.Err).Msg("session check could not read store")
	}
}

// State describes the state operation and its observable behavior.
func (c *sessionClock) State() SessionState {
	return SessionState(c.state.Load())
}

func (c *sessionClock) setState(s SessionState) {
	c.state.Store(int32(s))
}
