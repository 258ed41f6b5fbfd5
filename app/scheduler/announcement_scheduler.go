// Package scheduler
package scheduler

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	businessflow "github.com/arazmand/jarchi/business_flow"
	"github.com/arazmand/jarchi/repository"
	"github.com/arazmand/jarchi/utils"
	"gopkg.in/natefinch/lumberjack.v2"
)

// AnnouncementScheduler periodically picks up announcements whose scheduled
// time has passed and hands them to the dispatch flow. The dispatch flow owns
// the claim, so two scheduler instances racing on the same row is harmless.
type AnnouncementScheduler struct {
	announcementRepo repository.AnnouncementRepository
	dispatchFlow     businessflow.DispatchFlow
	channelFlow      businessflow.ChannelFlow
	logger           *log.Logger
	interval         time.Duration
	refreshInterval  time.Duration
}

func NewAnnouncementScheduler(
	announcementRepo repository.AnnouncementRepository,
	dispatchFlow businessflow.DispatchFlow,
	channelFlow businessflow.ChannelFlow,
	interval time.Duration,
	refreshInterval time.Duration,
) *AnnouncementScheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	if refreshInterval <= 0 {
		refreshInterval = time.Hour
	}

	s := &AnnouncementScheduler{
		announcementRepo: announcementRepo,
		dispatchFlow:     dispatchFlow,
		channelFlow:      channelFlow,
		interval:         interval,
		refreshInterval:  refreshInterval,
	}
	s.initSchedulerLogger()

	return s
}

// initSchedulerLogger configures a logger writing to both stdout and a
// rotating file under data/ (or /data in containers)
func (s *AnnouncementScheduler) initSchedulerLogger() {
	candidates := []string{
		filepath.Join("data"),
		"/data",
	}
	for _, dir := range candidates {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			continue
		}
		rotator := &lumberjack.Logger{
			Filename:   filepath.Join(dir, "scheduler.log"),
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		mw := io.MultiWriter(os.Stdout, rotator)
		s.logger = log.New(mw, "scheduler ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
		return
	}
	// Fallback to stdout only
	s.logger = log.Default()
	s.logger.Printf("scheduler: failed to initialize file logger, using stdout")
}

// Start launches the scheduler loops in background goroutines and returns a stop function
func (s *AnnouncementScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	go s.startMemberCountWorker(ctx)

	return cancel
}

func (s *AnnouncementScheduler) runOnce(ctx context.Context) {
	due, err := s.announcementRepo.ListDueScheduled(ctx, utils.UTCNow())
	if err != nil {
		s.logger.Printf("scheduler: list due announcements failed: %v", err)
		return
	}
	if len(due) == 0 {
		return
	}
	s.logger.Printf("scheduler: %d announcements due for dispatch", len(due))

	metadata := businessflow.NewClientMetadata("scheduler", "announcement-scheduler")
	for _, a := range due {
		result, err := s.dispatchFlow.SendAnnouncement(ctx, a.UUID.String(), metadata)
		if err != nil {
			// Already-sent means another instance claimed it first; not an error worth noise
			if businessflow.IsAnnouncementAlreadySent(err) {
				continue
			}
			s.logger.Printf("scheduler: dispatch announcement uuid=%s failed: %v", a.UUID, err)
			continue
		}
		s.logger.Printf("scheduler: dispatched announcement uuid=%s delivered=%d failed=%d", a.UUID, result.Delivered, result.Failed)
	}
}

// startMemberCountWorker refreshes stored channel member counts on a slow cadence
func (s *AnnouncementScheduler) startMemberCountWorker(ctx context.Context) {
	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.channelFlow.RefreshMemberCounts(ctx); err != nil {
				s.logger.Printf("scheduler: refresh member counts failed: %v", err)
			}
		}
	}
}
