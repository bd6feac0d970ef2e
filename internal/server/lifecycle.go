// Package server runs the process's long-lived services under one
// context with signal handling.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service is a long-running component. Run blocks until the work is done
// or ctx is cancelled.
type Service interface {
	Run(ctx context.Context) error
}

// ServiceFunc adapts a function into the Service interface.
type ServiceFunc func(ctx context.Context) error

// Run calls f.
func (f ServiceFunc) Run(ctx context.Context) error { return f(ctx) }

// DefaultShutdownTimeout bounds how long Run waits for services to return
// after cancellation.
const DefaultShutdownTimeout = 5 * time.Second

// Lifecycle runs services concurrently. The first service to return, a
// termination signal, or parent cancellation stops them all.
type Lifecycle struct {
	logger          *zap.Logger
	services        []namedService
	shutdownTimeout time.Duration
	mu              sync.Mutex
}

type namedService struct {
	name    string
	service Service
}

// NewLifecycle creates a new Lifecycle manager.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{
		logger:          logger,
		shutdownTimeout: DefaultShutdownTimeout,
	}
}

// Add registers a named service.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, namedService{name: name, service: svc})
}

type exit struct {
	name string
	err  error
}

// Run starts all services and blocks until one returns, SIGINT or SIGTERM
// arrives, or ctx is cancelled; then it cancels the rest and waits for
// them up to the shutdown timeout.
//
// Postcondition: Returns the first service error, or nil.
func (l *Lifecycle) Run(ctx context.Context) error {
	start := time.Now()
	l.mu.Lock()
	services := append([]namedService(nil), l.services...)
	l.mu.Unlock()
	if len(services) == 0 {
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	exits := make(chan exit, len(services))
	for _, ns := range services {
		go func() {
			l.logger.Info("starting service", zap.String("service", ns.name))
			err := ns.service.Run(ctx)
			exits <- exit{name: ns.name, err: err}
		}()
	}

	var first error
	record := func(e exit) {
		if e.err != nil {
			l.logger.Error("service failed", zap.String("service", e.name), zap.Error(e.err))
			if first == nil {
				first = fmt.Errorf("service %s: %w", e.name, e.err)
			}
			return
		}
		l.logger.Info("service finished", zap.String("service", e.name))
	}

	remaining := len(services)
	select {
	case e := <-exits:
		remaining--
		record(e)
	case <-ctx.Done():
		l.logger.Info("shutdown requested", zap.Error(context.Cause(ctx)))
	}
	cancel()

	timeout := time.After(l.shutdownTimeout)
	for remaining > 0 {
		select {
		case e := <-exits:
			remaining--
			record(e)
		case <-timeout:
			l.logger.Warn("services did not stop in time", zap.Int("remaining", remaining))
			return first
		}
	}

	l.logger.Info("shutdown complete", zap.Duration("uptime", time.Since(start)))
	return first
}
