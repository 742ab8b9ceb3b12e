// Command kvstored is the kvstored process entry point: it opens the
// write-ahead log, recovers state from it, binds the TCP listener, and
// serves the text protocol until an interrupt or termination signal
// triggers graceful shutdown.
//
// Usage:
//
//	kvstored [config-file]
//
// config-file is an optional positional argument naming a key=value config
// file (see internal/config); if omitted, kv_config.conf in the working
// directory is read, and if the file does not exist, defaults apply. There
// are no recognized environment variables.
//
// Exit codes:
//   - 0: clean shutdown via signal
//   - 1: WAL open or recovery failure
//   - 1: listener bind failure
package main

import (
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dreamware/kvstored/internal/config"
	"github.com/dreamware/kvstored/internal/server"
	"github.com/dreamware/kvstored/internal/store"
	"github.com/dreamware/kvstored/internal/wal"
)

// logFatal is a variable so tests in this package (if any are added later)
// can intercept a fatal exit instead of killing the test process.
var logFatal = log.Fatalf

// statsInterval is how often the periodic stats line is logged; the source
// printed a connection/item count every 10 seconds.
const statsInterval = 10 * time.Second

func main() {
	configPath := "kv_config.conf"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logFatal("config: %v", err)
		return
	}

	log.Printf("kvstored starting: %d shards, port %d, wal %s", cfg.NumSegments, cfg.ServerPort, cfg.WALFile)

	walLog, err := wal.Open(cfg.WALFile, wal.Options{
		Sync:         cfg.SyncWAL,
		MaxKeySize:   cfg.MaxKeySize,
		MaxValueSize: cfg.MaxValueSize,
	})
	if err != nil {
		logFatal("wal open: %v", err)
		return
	}

	srv := server.New(server.Options{
		Map:            store.New(cfg.NumSegments),
		Log:            walLog,
		MaxKeySize:     cfg.MaxKeySize,
		MaxValueSize:   cfg.MaxValueSize,
		MaxConnections: cfg.MaxConnections,
	})

	if err := srv.Recover(); err != nil {
		logFatal("wal recover: %v", err)
		return
	}

	addr := net.JoinHostPort("", strconv.Itoa(cfg.ServerPort))

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(addr)
	}()

	stopStats := make(chan struct{})
	go printStats(srv, stopStats)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("kvstored: shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			logFatal("server: %v", err)
			return
		}
	}

	close(stopStats)
	if err := srv.Shutdown(5 * time.Second); err != nil {
		log.Printf("kvstored: shutdown error: %v", err)
	}
	log.Println("kvstored stopped")
}

// printStats logs connection and item counts on a fixed interval; this is
// the supplemental feature the source's main loop performed inline.
func printStats(srv *server.Server, stop <-chan struct{}) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			log.Print(statsLine(srv))
		case <-stop:
			return
		}
	}
}

func statsLine(srv *server.Server) string {
	return fmt.Sprintf("kvstored: connections=%d items=%d", srv.ConnectionCount(), srv.ItemCount())
}
