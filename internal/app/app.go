package app

import (
	"context"
	"errors"
	"fmt"
	"github.com/rs/zerolog/log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"
)

//go:generate mockgen -destination=./app_mock.go -package=app -source=app.go

// Dependency is the interface that wraps the basic methods of a dependency required for the application.
type Dependency interface {
	// Start is anything a dependency needs to do before it's ready to be used
	Start() error
	// Stop is anything a dependency needs to do before it's ready to be stopped
	Stop() error
	// Name is the name of the dependency. It is used for logging and identification purposes, only.
	Name() string
}

// Command is the unit of work the application runs once its dependencies are started. It must
// return soon after ctx is cancelled.
type Command func(ctx context.Context) error

type App struct {
	serviceName string
	// deps is the list of dependencies that the application will start, in order.
	deps []Dependency
	// osSignalChan receives the signals that cancel the running command.
	osSignalChan chan os.Signal
	// stopCalled is an atomic bool. It allows stop to be called once
	stopCalled *atomic.Bool
	// runCalled allows Run to be called once
	runCalled *atomic.Bool
	// stopTimeout is the amount of time the application will wait for dependencies to stop before exiting.
	stopTimeout time.Duration
}

type Config struct {
	ServiceName string
	StopTimeout time.Duration
}

func (c *Config) validate() error {
	var errs []error
	if c.ServiceName == "" {
		errs = append(errs, errors.New("service name is required"))
	}
	if c.StopTimeout <= 0 {
		errs = append(errs, errors.New("stop timeout is required"))
	}
	return errors.Join(errs...)
}

// CreateApp creates a new application with the provided dependencies.
func CreateApp(cfg *Config, deps ...Dependency) (*App, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &App{
		serviceName:  cfg.ServiceName,
		deps:         deps,
		stopTimeout:  cfg.StopTimeout,
		stopCalled:   &atomic.Bool{},
		runCalled:    &atomic.Bool{},
		osSignalChan: make(chan os.Signal, 1), // first signal we get cancels the command
	}, nil
}

// Run starts all dependencies, runs cmd and stops the dependencies again. An interrupt or
// termination signal cancels the context passed to cmd; Run still waits for cmd to return.
func (a *App) Run(ctx context.Context, cmd Command) error {
	if !a.runCalled.CompareAndSwap(false, true) {
		return errors.New("run has already been called")
	}

	started, err := a.start()
	if err != nil {
		log.Error().Err(err).Msg("Dependency failed to start")
		return errors.Join(err, a.stop(a.deps[:started]))
	}

	cmdCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic in command of %s: %v", a.serviceName, r)
			}
		}()
		done <- cmd(cmdCtx)
	}()

	signal.Notify(a.osSignalChan, os.Interrupt, syscall.SIGTERM)
	var cmdErr error
	select {
	case cmdErr = <-done:
	case sig := <-a.osSignalChan:
		log.Info().Msg("OS Signal received: " + sig.String() + " cancelling command...")
		cancel()
		cmdErr = <-done
	}
	signal.Stop(a.osSignalChan)

	if err := a.stop(a.deps); err != nil {
		log.Error().Msg("Error stopping application: " + err.Error())
		return errors.Join(cmdErr, err)
	}
	return cmdErr
}

// start starts the dependencies in order and returns how many of them are running.
func (a *App) start() (int, error) {
	for i, dep := range a.deps {
		log.Debug().Msg("Starting dependency: " + dep.Name())
		if err := dep.Start(); err != nil {
			return i, fmt.Errorf("failure in Start() for dependency %s: %w", dep.Name(), err)
		}
	}
	return len(a.deps), nil
}

// stop attempts a graceful shutdown of each dependency, in reverse order.
func (a *App) stop(deps []Dependency) error {
	if !a.stopCalled.CompareAndSwap(false, true) {
		return errors.New("stop has already been called")
	}

	ctxTo, cancel := context.WithTimeout(context.Background(), a.stopTimeout)
	defer cancel()

	stopped := make(chan error, 1)
	go func() {
		var errs []error
		for i := len(deps) - 1; i >= 0; i-- {
			dep := deps[i]
			log.Debug().Msg("Stopping dependency: " + dep.Name())
			if err := dep.Stop(); err != nil {
				errs = append(errs, fmt.Errorf("failure in Stop() for dependency %s: %w", dep.Name(), err))
			}
		}
		stopped <- errors.Join(errs...)
	}()

	select {
	case err := <-stopped:
		return err
	case <-ctxTo.Done():
		return ctxTo.Err()
	}
}
