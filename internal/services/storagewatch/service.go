// Package storagewatch re-reads the storage listings whenever one of them is
// rewritten on disk.
package storagewatch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/hpc-usage-report/internal/logger"
	"github.com/j-veylop/hpc-usage-report/internal/models"
	"github.com/j-veylop/hpc-usage-report/internal/services/usage"
)

// Event represents a storage watch event.
type Event struct {
	Type  EventType
	Error error
	Usage models.MonthlyUsage
	Path  string
}

// EventType defines the type of storage watch event.
type EventType int

const (
	EventStorageLoaded EventType = iota
	EventStorageChanged
	EventError
)

const debounceInterval = 100 * time.Millisecond

// Service watches a set of listing files and reproduces storage usage when
// any of them changes.
type Service struct {
	mu            sync.Mutex
	generator     usage.Generator
	month         models.Month
	files         map[string]struct{}
	watcher       *fsnotify.Watcher
	eventChan     chan Event
	stopChan      chan struct{}
	debounceTimer *time.Timer
	lastPath      string
}

// New creates a watcher over paths, reads the current usage once and starts
// watching. The month only labels the produced usage.
func New(generator usage.Generator, month models.Month, paths []string) (*Service, error) {
	s := &Service{
		generator: generator,
		month:     month,
		files:     make(map[string]struct{}, len(paths)),
		eventChan: make(chan Event, 100),
		stopChan:  make(chan struct{}),
	}
	for _, p := range paths {
		if p != "" {
			s.files[filepath.Clean(p)] = struct{}{}
		}
	}

	s.reload(EventStorageLoaded, "")

	if err := s.startWatcher(); err != nil {
		return nil, err
	}
	return s, nil
}

// Events returns the event channel.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// startWatcher watches the parent directory of every listing so that files
// replaced by rename are seen.
func (s *Service) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.watcher = watcher

	dirs := make(map[string]struct{})
	for p := range s.files {
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			if closeErr := watcher.Close(); closeErr != nil {
				logger.Error("failed to close watcher", "error", closeErr)
			}
			return err
		}
	}

	go s.watchLoop()
	return nil
}

// watchLoop handles file system events with debouncing.
func (s *Service) watchLoop() {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			if _, watched := s.files[filepath.Clean(event.Name)]; !watched {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				s.mu.Lock()
				s.lastPath = event.Name
				if s.debounceTimer != nil {
					s.debounceTimer.Stop()
				}
				s.debounceTimer = time.AfterFunc(debounceInterval, func() {
					s.mu.Lock()
					path := s.lastPath
					s.mu.Unlock()
					s.reload(EventStorageChanged, path)
				})
				s.mu.Unlock()
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.sendEvent(Event{Type: EventError, Error: err})

		case <-s.stopChan:
			return
		}
	}
}

func (s *Service) reload(kind EventType, path string) {
	result, err := s.generator.Produce(context.Background(), s.month)
	if err != nil {
		logger.Warn("failed to read storage listings", "path", path, "error", err)
		s.sendEvent(Event{Type: EventError, Error: err, Path: path})
		return
	}
	s.sendEvent(Event{Type: kind, Usage: result, Path: path})
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest event
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the file watcher and cleans up resources.
func (s *Service) Close() error {
	close(s.stopChan)

	s.mu.Lock()
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.mu.Unlock()

	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
