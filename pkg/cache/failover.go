package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// remoteStore is the combined contract a shared backend must satisfy.
type remoteStore interface {
	Store
	Pinger
}

// Failover routes calls to a shared remote store while it is healthy and
// falls back to the local in-process store when it is not. A connection
// error flips the wrapper into degraded mode; a background probe re-pings
// the remote and clears the flag once it responds again, so the request
// path never waits on a reconnect.
type Failover struct {
	remote   remoteStore // nil when no remote configured
	local    Store
	degraded atomic.Bool
	onChange func(degraded bool)
	stop     chan struct{}
}

// NewFailover wraps remote and local stores. remote may be nil, in which
// case all traffic stays local. onChange is invoked on every degrade or
// recover transition (may be nil).
func NewFailover(remote remoteStore, local Store, probeInterval time.Duration, onChange func(bool)) *Failover {
	f := &Failover{
		remote:   remote,
		local:    local,
		onChange: onChange,
		stop:     make(chan struct{}),
	}
	if remote != nil {
		if probeInterval <= 0 {
			probeInterval = 15 * time.Second
		}
		go f.probe(probeInterval)
	}
	return f
}

// Degraded reports whether calls are currently routed to the local store.
func (f *Failover) Degraded() bool {
	return f.remote == nil || f.degraded.Load()
}

func (f *Failover) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !f.Degraded() {
		if err := f.remote.Set(ctx, key, value, ttl); err == nil {
			return nil
		} else if !f.markDegraded(err) {
			return err
		}
	}
	return f.local.Set(ctx, key, value, ttl)
}

func (f *Failover) Get(ctx context.Context, key string, dest interface{}) error {
	if !f.Degraded() {
		err := f.remote.Get(ctx, key, dest)
		if err == nil || errors.Is(err, ErrMiss) {
			return err
		}
		if !f.markDegraded(err) {
			return err
		}
	}
	return f.local.Get(ctx, key, dest)
}

func (f *Failover) Delete(ctx context.Context, keys ...string) error {
	if !f.Degraded() {
		if err := f.remote.Delete(ctx, keys...); err == nil {
			return nil
		} else if !f.markDegraded(err) {
			return err
		}
	}
	return f.local.Delete(ctx, keys...)
}

func (f *Failover) Exists(ctx context.Context, keys ...string) (bool, error) {
	if !f.Degraded() {
		ok, err := f.remote.Exists(ctx, keys...)
		if err == nil {
			return ok, nil
		}
		if !f.markDegraded(err) {
			return false, err
		}
	}
	return f.local.Exists(ctx, keys...)
}

// Close stops the background probe.
func (f *Failover) Close() error {
	close(f.stop)
	return nil
}

// markDegraded flips into degraded mode for connection-class errors.
// Returns true when the call should be retried against the local store.
func (f *Failover) markDegraded(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if f.degraded.CompareAndSwap(false, true) && f.onChange != nil {
		f.onChange(true)
	}
	return true
}

func (f *Failover) probe(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-f.stop:
			return
		case <-ticker.C:
			if !f.degraded.Load() {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			err := f.remote.Ping(ctx)
			cancel()
			if err == nil {
				if f.degraded.CompareAndSwap(true, false) && f.onChange != nil {
					f.onChange(false)
				}
			}
		}
	}
}
