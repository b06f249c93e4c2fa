package services

import (
	"context"
	"log"
	"sync"
)

// Notifier is the external connectivity-change source. Subscribe registers
// a callback for connectivity observations and returns an unsubscribe
// function.
type Notifier interface {
	Subscribe(fn func(connected bool)) (unsubscribe func())
}

// SyncRunner triggers one reconciliation pass.
type SyncRunner interface {
	Run(ctx context.Context) error
}

// ConnectivityListener bridges the notifier to the reconciliation engine:
// only an offline-to-online transition triggers a pass. Repeated online
// observations and any transition to offline are ignored.
type ConnectivityListener struct {
	notifier Notifier
	runner   SyncRunner

	mu          sync.Mutex
	online      bool
	unsubscribe func()
}

// NewConnectivityListener creates a listener. Call Start to subscribe.
func NewConnectivityListener(notifier Notifier, runner SyncRunner) *ConnectivityListener {
	return &ConnectivityListener{notifier: notifier, runner: runner}
}

// Start subscribes to the notifier. The listener starts out assuming
// offline, so the first online observation triggers a pass — this drains
// any log left over from a previous session.
func (l *ConnectivityListener) Start() {
	l.unsubscribe = l.notifier.Subscribe(l.onChange)
}

// Stop unsubscribes from the notifier.
func (l *ConnectivityListener) Stop() {
	if l.unsubscribe != nil {
		l.unsubscribe()
		l.unsubscribe = nil
	}
}

func (l *ConnectivityListener) onChange(connected bool) {
	l.mu.Lock()
	wasOnline := l.online
	l.online = connected
	l.mu.Unlock()

	if !connected || wasOnline {
		return
	}
	go func() {
		if err := l.runner.Run(context.Background()); err != nil {
			log.Printf("Reconciliation failed: %v", err)
		}
	}()
}
