package server

import (
	"bufio"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/kvstored/internal/store"
	"github.com/dreamware/kvstored/internal/wal"
)

// testServer starts a Server on an ephemeral port and returns it along with
// its address; the server is shut down automatically in test cleanup.
func testServer(t *testing.T, maxConnections int) (*Server, string) {
	t.Helper()
	walPath := filepath.Join(t.TempDir(), "test.wal")
	w, err := wal.Open(walPath, wal.Options{Sync: true, MaxKeySize: 1024, MaxValueSize: 65536})
	require.NoError(t, err)

	s := New(Options{
		Map:            store.New(8),
		Log:            w,
		MaxKeySize:     1024,
		MaxValueSize:   65536,
		MaxConnections: maxConnections,
	})
	require.NoError(t, s.Recover())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	go func() {
		_ = s.Serve(addr)
	}()

	require.Eventually(t, func() bool {
		conn, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	t.Cleanup(func() { s.Shutdown(time.Second) })
	return s, addr
}

func dial(t *testing.T, addr string) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, bufio.NewReader(conn)
}

func sendLine(t *testing.T, conn net.Conn, reader *bufio.Reader, line string) string {
	t.Helper()
	_, err := conn.Write([]byte(line + "\n"))
	require.NoError(t, err)
	reply, err := reader.ReadString('\n')
	require.NoError(t, err)
	return reply[:len(reply)-1]
}

func TestServerEndToEndPutGetExistsSize(t *testing.T) {
	_, addr := testServer(t, 10)
	conn, reader := dial(t, addr)

	assert.Equal(t, "OK", sendLine(t, conn, reader, `PUT "a" "1"`))
	assert.Equal(t, "1", sendLine(t, conn, reader, `GET "a"`))
	assert.Equal(t, "true", sendLine(t, conn, reader, `EXISTS "a"`))
	assert.Equal(t, "1", sendLine(t, conn, reader, "SIZE"))
}

func TestServerUnknownVerb(t *testing.T) {
	_, addr := testServer(t, 10)
	conn, reader := dial(t, addr)

	reply := sendLine(t, conn, reader, "FROBNICATE a")
	assert.Contains(t, reply, "ERROR")
}

func TestServerSequentialRequestsOnOneConnection(t *testing.T) {
	_, addr := testServer(t, 10)
	conn, reader := dial(t, addr)

	assert.Equal(t, "OK", sendLine(t, conn, reader, `PUT k v1`))
	assert.Equal(t, "OK", sendLine(t, conn, reader, `PUT k v2`))
	assert.Equal(t, "1", sendLine(t, conn, reader, "SIZE"))
	assert.Equal(t, "v2", sendLine(t, conn, reader, `GET k`))
}

func TestServerMaxConnectionsClosesExtraSocket(t *testing.T) {
	_, addr := testServer(t, 1)

	conn1, reader1 := dial(t, addr)
	assert.Equal(t, "OK", sendLine(t, conn1, reader1, `PUT a 1`))

	conn2, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn2.Close()

	conn2.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 16)
	n, err := conn2.Read(buf)
	assert.True(t, n == 0 || err != nil, "second connection over max_connections should get no reply")
}

func TestServerRecoverReplaysBeforeServing(t *testing.T) {
	walPath := filepath.Join(t.TempDir(), "test.wal")
	w, err := wal.Open(walPath, wal.Options{Sync: true, MaxKeySize: 1024, MaxValueSize: 65536})
	require.NoError(t, err)
	require.NoError(t, w.Append(wal.OpPut, []byte("x"), []byte("y")))
	require.NoError(t, w.Close())

	w2, err := wal.Open(walPath, wal.Options{Sync: true, MaxKeySize: 1024, MaxValueSize: 65536})
	require.NoError(t, err)

	s := New(Options{
		Map:            store.New(4),
		Log:            w2,
		MaxKeySize:     1024,
		MaxValueSize:   65536,
		MaxConnections: 10,
	})
	require.NoError(t, s.Recover())

	assert.Equal(t, int64(1), s.ItemCount())
}
