package connectivity

import (
	"net"
	"sync"
	"time"
)

// Monitor watches reachability of a probe address and notifies subscribers
// on transitions. It is the in-process stand-in for a platform connectivity
// notifier: subscribers receive the state observed on their first probe and
// every change after that, never repeats.
type Monitor struct {
	addr     string
	interval time.Duration

	// dial is swapped out in tests.
	dial func(addr string, timeout time.Duration) bool

	mu      sync.Mutex
	subs    map[int]func(connected bool)
	nextID  int
	state   bool
	probed  bool
	started bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewMonitor creates a monitor that dials addr every interval.
func NewMonitor(addr string, interval time.Duration) *Monitor {
	return &Monitor{
		addr:     addr,
		interval: interval,
		dial:     tcpDial,
		subs:     make(map[int]func(bool)),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

func tcpDial(addr string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// Subscribe registers a callback and returns an unsubscribe function. If a
// probe has already run, the callback immediately receives the last
// observed state.
func (m *Monitor) Subscribe(fn func(connected bool)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	probed, state := m.probed, m.state
	m.mu.Unlock()

	if probed {
		fn(state)
	}
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// Start begins probing in the background. A stopped monitor may be started
// again.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	// Stop closes both channels, so each run gets a fresh pair.
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	m.mu.Unlock()
	go m.loop()
}

// Stop halts probing and waits for the loop to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.started = false
	m.mu.Unlock()
	close(m.stopCh)
	<-m.doneCh
}

func (m *Monitor) loop() {
	defer close(m.doneCh)

	m.observe(m.dial(m.addr, m.interval))
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.observe(m.dial(m.addr, m.interval))
		}
	}
}

func (m *Monitor) observe(connected bool) {
	m.mu.Lock()
	changed := !m.probed || m.state != connected
	m.probed = true
	m.state = connected
	var fns []func(bool)
	if changed {
		fns = make([]func(bool), 0, len(m.subs))
		for _, fn := range m.subs {
			fns = append(fns, fn)
		}
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(connected)
	}
}
