package factory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartfactory/smartfactory/internal/storage"
	"github.com/smartfactory/smartfactory/internal/types"
)

// Device control actions
const (
	ActionStart     = "start"
	ActionStop      = "stop"
	ActionRestart   = "restart"
	ActionAutoStart = "auto_start_after_restart"
)

// DefaultRestartDelay is how long a restarting device stays idle
const DefaultRestartDelay = time.Second

// ControlResult confirms a control action
type ControlResult struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Stats summarizes device states across the floor
type Stats struct {
	TotalDevices   int `json:"totalDevices"`
	RunningDevices int `json:"runningDevices"`
	ErrorDevices   int `json:"errorDevices"`
	Efficiency     int `json:"efficiency"`
}

// Service implements device control and the aggregate floor views
type Service struct {
	areas        *storage.AreaStore
	devices      *storage.DeviceStore
	connections  *storage.ConnectionStore
	restartDelay time.Duration
	logger       zerolog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
}

// NewService creates the factory service. restartDelay <= 0 uses the default.
func NewService(areas *storage.AreaStore, devices *storage.DeviceStore, connections *storage.ConnectionStore, restartDelay time.Duration, logger zerolog.Logger) *Service {
	if restartDelay <= 0 {
		restartDelay = DefaultRestartDelay
	}
	return &Service{
		areas:        areas,
		devices:      devices,
		connections:  connections,
		restartDelay: restartDelay,
		logger:       logger.With().Str("component", "factory").Logger(),
		pending:      make(map[string]*time.Timer),
	}
}

// ControlDevice applies start, stop or restart to a device. Restart sets
// the device idle now and running again after the restart delay.
func (s *Service) ControlDevice(ctx context.Context, id, action string) (ControlResult, error) {
	var status, verb string
	switch action {
	case ActionStart:
		status, verb = types.DeviceRunning, "started"
	case ActionStop:
		status, verb = types.DeviceIdle, "stopped"
	case ActionRestart:
		status, verb = types.DeviceIdle, "restarting"
	default:
		return ControlResult{}, fmt.Errorf("unsupported action %q: %w", action, storage.ErrInvalid)
	}

	// a pending restart must not fire after this transition
	s.cancelRestart(id)
	old, err := s.devices.SetStatus(ctx, id, action, status)
	if err != nil {
		return ControlResult{}, err
	}
	if action == ActionRestart {
		s.scheduleRestart(id)
	}

	s.logger.Info().
		Str("device", id).
		Str("action", action).
		Str("old_status", old).
		Str("new_status", status).
		Msg("Device control")

	return ControlResult{
		Message: fmt.Sprintf("device %s %s", id, verb),
		Status:  status,
	}, nil
}

func (s *Service) scheduleRestart(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	var timer *time.Timer
	timer = time.AfterFunc(s.restartDelay, func() {
		s.mu.Lock()
		if s.pending[id] != timer {
			s.mu.Unlock()
			return
		}
		delete(s.pending, id)
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := s.devices.SetStatus(ctx, id, ActionAutoStart, types.DeviceRunning); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				s.logger.Debug().Str("device", id).Msg("Device removed before restart finished")
				return
			}
			s.logger.Error().Err(err).Str("device", id).Msg("Failed to finish device restart")
			return
		}
		s.logger.Info().Str("device", id).Msg("Device back online after restart")
	})
	s.pending[id] = timer
}

// cancelRestart drops a pending auto start, so a later start or stop wins
func (s *Service) cancelRestart(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.pending[id]; ok {
		t.Stop()
		delete(s.pending, id)
	}
}

// Close cancels pending restarts
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, t := range s.pending {
		t.Stop()
		delete(s.pending, id)
	}
}

// Stats counts devices by state. Efficiency is the running share in percent.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	devices, err := s.devices.List(ctx)
	if err != nil {
		return Stats{}, err
	}

	st := Stats{TotalDevices: len(devices)}
	for _, d := range devices {
		switch d.Status {
		case types.DeviceRunning:
			st.RunningDevices++
		case types.DeviceError:
			st.ErrorDevices++
		}
	}
	if st.TotalDevices > 0 {
		st.Efficiency = int(math.Round(float64(st.RunningDevices) / float64(st.TotalDevices) * 100))
	}
	return st, nil
}
