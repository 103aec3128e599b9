// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package serialport

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipePort(t *testing.T, timeout, chunk time.Duration) (*Port, net.Conn) {
	t.Helper()
	a, b := net.Pipe()
	p := NewPort(a, timeout, chunk)
	t.Cleanup(func() {
		p.Close()
		b.Close()
	})
	return p, b
}

func TestReceiveAvailableJoinsChunks(t *testing.T) {
	p, remote := pipePort(t, time.Second, 200*time.Millisecond)

	go func() {
		remote.Write([]byte("@@Ha"))
		time.Sleep(20 * time.Millisecond)
		remote.Write([]byte("body\r\n"))
	}()

	got, err := p.ReceiveAvailable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "@@Habody\r\n", string(got))
}

func TestReceiveAvailableTimeout(t *testing.T) {
	p, _ := pipePort(t, 50*time.Millisecond, 10*time.Millisecond)

	_, err := p.ReceiveAvailable(context.Background())
	assert.True(t, errors.Is(err, ErrTimeout), "got %v", err)
}

func TestReceiveAvailableHonoursContext(t *testing.T) {
	p, _ := pipePort(t, time.Minute, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.ReceiveAvailable(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSendWrites(t *testing.T) {
	p, remote := pipePort(t, time.Second, 50*time.Millisecond)

	got := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := remote.Read(buf)
		got <- buf[:n]
	}()

	require.NoError(t, p.Send([]byte("@@Cj29\r\n")))
	select {
	case b := <-got:
		assert.Equal(t, "@@Cj29\r\n", string(b))
	case <-time.After(time.Second):
		t.Fatal("remote never saw the command")
	}
}

func TestReceiveAfterRemoteClose(t *testing.T) {
	p, remote := pipePort(t, time.Second, 50*time.Millisecond)
	remote.Close()

	_, err := p.ReceiveAvailable(context.Background())
	assert.True(t, errors.Is(err, io.EOF), "got %v", err)
}

func TestCloseIsIdempotent(t *testing.T) {
	p, _ := pipePort(t, time.Second, 50*time.Millisecond)
	require.NoError(t, p.Close())
	assert.NoError(t, p.Close())
}
