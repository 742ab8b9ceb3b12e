package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds every server-tunable value recognized by the config file
// format. Fields carry the package defaults until overridden.
type Config struct {
	NumSegments      int
	InitialBucketSize int
	WALFile          string
	WALBufferSize    int
	SyncWAL          bool
	ServerPort       int
	MaxKeySize       int
	MaxValueSize     int
	MaxConnections   int
}

// Default returns kvstored's baseline configuration.
func Default() Config {
	return Config{
		NumSegments:       64,
		InitialBucketSize: 16,
		WALFile:           "kv_store.wal",
		WALBufferSize:     8192,
		SyncWAL:           true,
		ServerPort:        6379,
		MaxKeySize:        1024,
		MaxValueSize:      65536,
		MaxConnections:    1000,
	}
}

// Load reads path as a key=value text file, overriding Default()'s fields
// for every recognized key present. A missing file is not an error: it
// yields the defaults unchanged, same as the source this format came from.
func Load(path string) (Config, error) {
	cfg := Default()

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if err := cfg.apply(key, value); err != nil {
			return cfg, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	return cfg, nil
}

// apply sets the field named by key to value, ignoring keys it doesn't
// recognize.
func (c *Config) apply(key, value string) error {
	switch key {
	case "num_segments":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("num_segments: %w", err)
		}
		c.NumSegments = n
	case "initial_bucket_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("initial_bucket_size: %w", err)
		}
		c.InitialBucketSize = n
	case "wal_file":
		c.WALFile = value
	case "wal_buffer_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("wal_buffer_size: %w", err)
		}
		c.WALBufferSize = n
	case "sync_wal":
		c.SyncWAL = value == "true" || value == "1"
	case "server_port":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("server_port: %w", err)
		}
		c.ServerPort = n
	case "max_key_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("max_key_size: %w", err)
		}
		c.MaxKeySize = n
	case "max_value_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("max_value_size: %w", err)
		}
		c.MaxValueSize = n
	case "max_connections":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("max_connections: %w", err)
		}
		c.MaxConnections = n
	}
	return nil
}
