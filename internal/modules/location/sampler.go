package location

import (
	"context"
	"sync"
	"time"

	"github.com/geopulse/core/internal/models"
	"github.com/geopulse/core/internal/modules/permissions"
	"github.com/geopulse/core/internal/modules/runner"
	"go.uber.org/zap"
)

// MetaSource reports the device posture attached to the user's most
// recent fix.
type MetaSource interface {
	DeviceMeta(uid string) models.DeviceMeta
}

// Config carries the sampling cadence and filters.
type Config struct {
	Interval          time.Duration
	MinDistanceMeters float64
	AcquireTimeout    time.Duration
	MaxSampleAge      time.Duration
}

func (c *Config) normalize() {
	if c.Interval <= 0 {
		c.Interval = 30 * time.Second
	}
	if c.AcquireTimeout <= 0 {
		c.AcquireTimeout = DefaultAcquireTimeout
	}
	if c.MaxSampleAge <= 0 {
		c.MaxSampleAge = DefaultMaxSampleAge
	}
}

// Sampler runs the periodic tracking session for a single user.
type Sampler struct {
	store    Store
	provider Provider
	meta     MetaSource
	perms    permissions.Checker
	runner   *runner.Runner
	log      *zap.Logger
	cfg      Config

	mu      sync.Mutex
	session Session
	last    *models.LocationSample
}

func NewSampler(store Store, provider Provider, meta MetaSource, perms permissions.Checker, log *zap.Logger, cfg Config) *Sampler {
	cfg.normalize()
	return &Sampler{
		store:    store,
		provider: provider,
		meta:     meta,
		perms:    perms,
		runner:   runner.New(log),
		log:      log.Named("sampler"),
		cfg:      cfg,
	}
}

// Start begins a tracking session for uid. It reports whether the user's
// session was already active; starting twice is a no-op, but a slot held
// by a different user is refused with ErrSessionBusy.
func (s *Sampler) Start(ctx context.Context, uid string) (alreadyActive bool, err error) {
	s.mu.Lock()
	if s.session.Active {
		owner := s.session.UID
		s.mu.Unlock()
		if owner != uid {
			return false, ErrSessionBusy
		}
		return true, nil
	}
	s.mu.Unlock()

	granted, err := s.perms.Check(ctx, uid, permissions.FineLocation)
	if err != nil {
		return false, err
	}
	if !granted {
		return false, ErrPermissionDenied
	}

	background, err := s.perms.Check(ctx, uid, permissions.BackgroundLocation)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	if s.session.Active {
		owner := s.session.UID
		s.mu.Unlock()
		if owner != uid {
			return false, ErrSessionBusy
		}
		return true, nil
	}
	s.session = Session{
		Active:            true,
		ForegroundOnly:    !background,
		IntervalMS:        s.cfg.Interval.Milliseconds(),
		MinDistanceMeters: s.cfg.MinDistanceMeters,
		StartedAt:         time.Now().UTC(),
		UID:               uid,
	}
	s.last = nil
	s.mu.Unlock()

	err = s.runner.Run(s.tick, runner.Options{
		Name:        "Location Tracking",
		Title:       "Location Tracking Active",
		Description: "Tracking your location in the background",
		Icon:        "ic_launcher",
		Color:       "#0b74de",
		Parameters:  runner.Parameters{Delay: s.cfg.Interval},
	})
	if err != nil {
		s.mu.Lock()
		s.session = Session{}
		s.mu.Unlock()
		return false, err
	}

	s.log.Info("tracking started",
		zap.String("uid", uid),
		zap.Bool("foregroundOnly", !background),
		zap.Duration("interval", s.cfg.Interval))
	return false, nil
}

// Stop ends the session. Stopping an idle sampler is a no-op.
func (s *Sampler) Stop() (wasActive bool) {
	s.mu.Lock()
	wasActive = s.session.Active
	uid := s.session.UID
	s.session = Session{}
	s.last = nil
	s.mu.Unlock()

	s.runner.Stop()
	if wasActive {
		s.log.Info("tracking stopped", zap.String("uid", uid))
	}
	return wasActive
}

func (s *Sampler) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Active && s.runner.IsRunning()
}

// SessionSnapshot returns a copy of the current session state.
func (s *Sampler) SessionSnapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// CurrentSample performs a one-shot acquisition outside any session,
// scoped to the requesting user's own fixes.
func (s *Sampler) CurrentSample(ctx context.Context, uid string, highAccuracy bool) (*models.LocationSample, error) {
	sample, err := s.provider.Acquire(ctx, AcquireOptions{
		UID:          uid,
		HighAccuracy: highAccuracy,
		Timeout:      s.cfg.AcquireTimeout,
		MaxAge:       s.cfg.MaxSampleAge,
	})
	if err != nil {
		return nil, err
	}
	if err := sample.Validate(); err != nil {
		return nil, err
	}
	return &sample, nil
}

func (s *Sampler) tick(ctx context.Context, _ runner.Parameters) {
	s.mu.Lock()
	uid := s.session.UID
	active := s.session.Active
	s.mu.Unlock()
	if !active {
		return
	}

	sample, err := s.provider.Acquire(ctx, AcquireOptions{
		UID:            uid,
		HighAccuracy:   true,
		Timeout:        s.cfg.AcquireTimeout,
		MaxAge:         s.cfg.MaxSampleAge,
		DistanceFilter: s.cfg.MinDistanceMeters,
	})
	if err != nil {
		s.log.Warn("location acquisition failed", zap.Error(err))
		return
	}
	s.observe(ctx, sample)
}

// observe applies the session filters and persists the sample. The
// session is re-checked at write time so a fix that arrives after Stop
// is discarded.
func (s *Sampler) observe(ctx context.Context, sample models.LocationSample) {
	if err := sample.Validate(); err != nil {
		s.log.Warn("dropping invalid sample", zap.Error(err))
		return
	}

	s.mu.Lock()
	sess := s.session
	last := s.last
	s.mu.Unlock()

	if !sess.Active {
		s.log.Debug("dropping sample, session stopped")
		return
	}

	meta := models.DeviceMeta{Platform: "unknown"}
	if s.meta != nil {
		meta = s.meta.DeviceMeta(sess.UID)
	}
	if sess.ForegroundOnly && meta.IsBackground {
		s.log.Debug("dropping background sample, foreground-only session",
			zap.String("uid", sess.UID))
		return
	}

	recordHistory := true
	if last != nil && s.cfg.MinDistanceMeters > 0 {
		moved := distanceMeters(last.Latitude, last.Longitude, sample.Latitude, sample.Longitude)
		if moved < s.cfg.MinDistanceMeters {
			recordHistory = false
		}
	}

	if err := s.store.WriteCurrent(ctx, sess.UID, sample); err != nil {
		s.log.Warn("current location write failed",
			zap.String("uid", sess.UID), zap.Error(err))
		return
	}
	s.runner.UpdateNotification("Location Tracking Active",
		"Last update: "+time.Now().Format("15:04:05"), 0)

	if !recordHistory {
		s.log.Debug("history suppressed, below distance filter",
			zap.String("uid", sess.UID),
			zap.Float64("minDistance", s.cfg.MinDistanceMeters))
		return
	}

	if err := s.store.AppendHistory(ctx, sess.UID, sample, meta); err != nil {
		s.log.Warn("history append failed",
			zap.String("uid", sess.UID), zap.Error(err))
		return
	}

	s.mu.Lock()
	if s.session.Active && s.session.UID == sess.UID {
		cp := sample
		s.last = &cp
	}
	s.mu.Unlock()
}
