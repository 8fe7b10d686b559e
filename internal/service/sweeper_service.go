package service

import (
	"sync"
	"time"

	"github.com/pugmatch/pugmatch-backend/internal/models"
	"github.com/pugmatch/pugmatch-backend/pkg/logger"
)

// SweeperService periodically cancels waiting sessions that never
// filled up: a session idle longer than timeout since its last update
// is canceled system-side with the message "timed out".
type SweeperService struct {
	pugStore   PugStore
	pugService *PugService
	interval   time.Duration
	timeout    time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

func NewSweeperService(pugStore PugStore, pugService *PugService, interval, timeout time.Duration) *SweeperService {
	return &SweeperService{
		pugStore:   pugStore,
		pugService: pugService,
		interval:   interval,
		timeout:    timeout,
		stopChan:   make(chan struct{}),
	}
}

// Start launches the sweep loop.
func (s *SweeperService) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	logger.Info("Starting pug sweeper", "interval", s.interval, "timeout", s.timeout)

	s.wg.Add(1)
	go s.sweepLoop()
}

// Stop halts the sweep loop and waits for it to exit.
func (s *SweeperService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopChan)
	s.wg.Wait()
	logger.Info("Pug sweeper stopped")
}

func (s *SweeperService) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stopChan:
			return
		}
	}
}

// Sweep runs one pass over waiting sessions.
func (s *SweeperService) Sweep() {
	waiting, err := s.pugStore.ListPugs(models.PugFilter{
		States: []models.PugState{models.PugStateWaiting},
	})
	if err != nil {
		logger.Error("Sweep failed to list waiting pugs", "error", err)
		return
	}

	cutoff := time.Now().Add(-s.timeout)
	canceled := 0

	for _, pug := range waiting {
		if pug.UpdatedAt.After(cutoff) {
			continue
		}
		if _, err := s.pugService.Cancel(pug.ID, nil, "timed out"); err != nil {
			logger.Error("Sweep failed to cancel pug", "pugId", pug.ID, "error", err)
			continue
		}
		canceled++
	}

	if canceled > 0 {
		logger.Info("Sweep canceled idle pugs", "count", canceled)
	}
}
