package database

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tododocker/todo-backend/pkg/logger"
	"github.com/tododocker/todo-backend/pkg/metrics"
	"go.mongodb.org/mongo-driver/mongo"
)

var errNoClient = errors.New("no database client")

// Manager owns the shared MongoDB client and answers whether the database is
// reachable right now. The client, database and collection references are set
// by Connect/Attach and only read afterwards; the connected flag is advisory
// and re-validated by every IsConnected call unless a probe cache is enabled.
type Manager struct {
	mu         sync.RWMutex
	client     *mongo.Client
	database   *mongo.Database
	collection *mongo.Collection

	connected atomic.Bool
	lastProbe atomic.Int64 // unix nanos of the last real probe

	connectTimeout time.Duration
	pingTimeout    time.Duration
	cacheTTL       time.Duration
	now            func() time.Time
}

type Option func(*Manager)

// WithConnectTimeout bounds client construction and server selection.
func WithConnectTimeout(d time.Duration) Option {
	return func(m *Manager) { m.connectTimeout = d }
}

// WithPingTimeout bounds a single liveness probe.
func WithPingTimeout(d time.Duration) Option {
	return func(m *Manager) { m.pingTimeout = d }
}

// WithProbeCache lets IsConnected reuse a probe result younger than ttl.
// Zero disables caching.
func WithProbeCache(ttl time.Duration) Option {
	return func(m *Manager) { m.cacheTTL = ttl }
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		connectTimeout: 10 * time.Second,
		pingTimeout:    2 * time.Second,
		now:            time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Connect creates a client for uri, selects databaseName/collectionName and
// probes the server. Failures are logged and reported as false.
//
// A client that was built but failed its first probe is kept, so a database
// that comes up later is picked up by the next IsConnected call.
func (m *Manager) Connect(ctx context.Context, uri, databaseName, collectionName string) bool {
	logger.Infof("connecting to MongoDB (database=%q collection=%q)", databaseName, collectionName)
	client, err := NewClient(ctx, uri, m.connectTimeout)
	if err != nil {
		logger.Errorf("failed to connect to MongoDB: %v", err)
		m.record(false)
		return false
	}
	return m.Attach(ctx, client, databaseName, collectionName)
}

// Attach adopts an existing client and probes it. A different client held
// from an earlier Connect/Attach is disconnected.
func (m *Manager) Attach(ctx context.Context, client *mongo.Client, databaseName, collectionName string) bool {
	m.mu.Lock()
	old := m.client
	m.client = client
	m.database = client.Database(databaseName)
	m.collection = m.database.Collection(collectionName)
	m.mu.Unlock()

	if old != nil && old != client {
		if err := old.Disconnect(ctx); err != nil {
			logger.Warnf("disconnect replaced MongoDB client: %v", err)
		}
	}

	if err := m.probe(ctx); err != nil {
		logger.Errorf("failed to connect to MongoDB: %v", err)
		return false
	}
	logger.Infof("successfully connected to MongoDB")
	return true
}

// IsConnected reports whether the database answered a ping. Without a client
// it returns false immediately; otherwise it performs a synchronous probe
// (or reuses a fresh cached one when WithProbeCache is set).
func (m *Manager) IsConnected(ctx context.Context) bool {
	if m.Client() == nil {
		return false
	}
	if m.cacheTTL > 0 {
		if last := m.lastProbe.Load(); last != 0 && m.now().Sub(time.Unix(0, last)) < m.cacheTTL {
			metrics.DatabaseProbes.WithLabelValues("cached").Inc()
			return m.connected.Load()
		}
	}
	return m.probe(ctx) == nil
}

// Watch probes the database every interval until ctx is done. Combined with
// WithProbeCache it keeps request paths off the network.
func (m *Manager) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if m.Client() != nil {
				_ = m.probe(ctx)
			}
		}
	}
}

func (m *Manager) probe(ctx context.Context) error {
	client := m.Client()
	if client == nil {
		m.record(false)
		return errNoClient
	}
	if m.pingTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.pingTimeout)
		defer cancel()
	}
	err := client.Ping(ctx, nil)
	was := m.record(err == nil)
	switch {
	case err != nil && was:
		logger.Errorf("database connection lost: %v", err)
	case err != nil:
		logger.Debugf("database probe failed: %v", err)
	case !was:
		logger.Infof("database reachable")
	}
	return err
}

// record stores a probe result and returns the previous connected state.
func (m *Manager) record(ok bool) bool {
	was := m.connected.Swap(ok)
	m.lastProbe.Store(m.now().UnixNano())
	metrics.ObserveProbe(ok)
	return was
}

// Connected returns the last recorded probe result without probing.
func (m *Manager) Connected() bool { return m.connected.Load() }

func (m *Manager) Client() *mongo.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client
}

func (m *Manager) Database() *mongo.Database {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.database
}

func (m *Manager) Collection() *mongo.Collection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collection
}

// Close disconnects the client. The manager reports disconnected afterwards.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	client := m.client
	m.client, m.database, m.collection = nil, nil, nil
	m.mu.Unlock()
	m.connected.Store(false)
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}
