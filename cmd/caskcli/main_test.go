package main

import (
	"bytes"
	"io"
	"net"
	"path/filepath"
	"strings"
	"testing"

	"caskdb"
	"caskdb/rpc"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestREPL(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	opts := caskdb.DefaultOptions
	opts.Path = filepath.Join(t.TempDir(), "caskdb.data")
	opts.Logger = logger
	db, err := caskdb.Open(opts)
	require.NoError(t, err)
	defer db.Close()

	srv, err := rpc.NewServer(db, logger)
	require.NoError(t, err)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go srv.Serve(listener)
	defer srv.Close()

	client, err := rpc.Dial(listener.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	in := strings.NewReader(strings.Join([]string{
		`put city "new york"`,
		`get city`,
		`bogus`,
		``,
		`del city`,
		`get city`,
		`exit`,
		`get never`,
	}, "\n"))
	var out bytes.Buffer
	repl(client, in, &out)

	lines := strings.Split(strings.TrimSpace(strings.ReplaceAll(out.String(), "> ", "")), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "OK", lines[0])
	assert.Contains(t, lines[1], "new")
	assert.Contains(t, lines[2], "parse error")
	assert.Equal(t, "OK", lines[3])
	assert.Equal(t, "(nil)", lines[4])

	_, found, err := db.Get([]byte("never"))
	require.NoError(t, err)
	assert.False(t, found)
}
