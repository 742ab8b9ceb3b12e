package server

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dreamware/kvstored/internal/protocol"
	"github.com/dreamware/kvstored/internal/store"
	"github.com/dreamware/kvstored/internal/wal"
)

// Server owns the listener, the map, and the WAL, and implements their
// startup/shutdown lifecycle.
type Server struct {
	exec           *Executor
	maxConnections int64

	listener net.Listener
	conns    atomic.Int64

	wg       sync.WaitGroup
	shutdown atomic.Bool
}

// Options configures a new Server.
type Options struct {
	Map            *store.ShardedMap
	Log            *wal.WAL
	MaxKeySize     int
	MaxValueSize   int
	MaxConnections int
}

// New constructs a Server. It does not replay the WAL or bind a listener;
// call Recover and then Serve.
func New(opts Options) *Server {
	return &Server{
		exec: &Executor{
			Map:        opts.Map,
			Log:        opts.Log,
			MaxKeySize: opts.MaxKeySize,
			MaxValue:   opts.MaxValueSize,
		},
		maxConnections: int64(opts.MaxConnections),
	}
}

// Recover replays the WAL directly into the map, bypassing re-append. It
// must be called before Serve, and never again afterward: replay assumes
// exclusive access with no handlers running.
func (s *Server) Recover() error {
	return s.exec.Log.Replay(
		func(key, value []byte) { s.exec.Map.Insert(key, value) },
		func(key []byte) { s.exec.Map.Erase(key) },
	)
}

// Serve binds addr and accepts connections until Shutdown is called. It
// blocks until the listener closes, returning nil on a clean shutdown.
func (s *Server) Serve(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", addr, err)
	}
	s.listener = ln

	log.Printf("kvstored listening on %s", addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.shutdown.Load() {
				return nil
			}
			return fmt.Errorf("server: accept: %w", err)
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

// handleConn admits the connection against the configured connection limit,
// then runs a read-execute-reply loop until EOF or I/O error.
func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	if s.conns.Add(1) > s.maxConnections {
		s.conns.Add(-1)
		return
	}
	defer s.conns.Add(-1)

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = line[:len(line)-1] // strip the trailing \n; CR is not stripped

		reply := s.dispatch(line)

		if _, err := fmt.Fprintf(conn, "%s\n", reply); err != nil {
			return
		}
	}
}

// dispatch parses one line and executes it, translating parse errors into
// ERROR replies.
func (s *Server) dispatch(line string) string {
	cmd, err := protocol.Parse(line)
	if err != nil {
		return "ERROR " + err.Error()
	}
	return s.exec.Execute(cmd)
}

// Shutdown stops accepting new connections, closes the listener, waits up
// to drainTimeout for in-flight handlers to finish, and closes the WAL.
// Callers should allow at least a second of drain time.
func (s *Server) Shutdown(drainTimeout time.Duration) error {
	s.shutdown.Store(true)
	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			return fmt.Errorf("server: close listener: %w", err)
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(drainTimeout):
		log.Printf("server: drain timeout after %s, closing WAL with handlers still active", drainTimeout)
	}

	return s.exec.Log.Close()
}

// ConnectionCount returns the current number of accepted, active connections.
func (s *Server) ConnectionCount() int64 {
	return s.conns.Load()
}

// ItemCount returns the map's current item count, for periodic stats
// reporting.
func (s *Server) ItemCount() int64 {
	return s.exec.Map.Size()
}
