// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package serialport is the byte transport to the receiver. A command is
// written, and the answer is whatever streams back until the line goes quiet.
package serialport

import (
	"context"
	"io"
	"sync"
	"time"

	serial "github.com/jacobsa/go-serial/serial"
	"github.com/pkg/errors"
)

// ErrTimeout is returned when nothing at all arrives within the read timeout.
var ErrTimeout = errors.New("serialport: timeout")

// Transport is what the receiver session needs from a port.
type Transport interface {
	Send(data []byte) error
	ReceiveAvailable(ctx context.Context) ([]byte, error)
	Close() error
}

const readSize = 128

// Port wraps a stream with response-reader semantics: an overall timeout
// until the first byte, then a shorter gap that ends the response.
type Port struct {
	name         string
	rwc          io.ReadWriteCloser
	timeout      time.Duration
	chunkTimeout time.Duration

	// serial reads with VMIN=0 report io.EOF when the line is idle
	idleEOF bool

	data      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// Open opens a serial device 8N1 at the given baud rate.
func Open(name string, baud int, timeout, chunkTimeout time.Duration) (*Port, error) {
	opts := serial.OpenOptions{
		PortName:              name,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		ParityMode:            serial.PARITY_NONE,
		MinimumReadSize:       0,
		InterCharacterTimeout: 100,
	}
	rwc, err := serial.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s at %d baud", name, baud)
	}
	p := newPort(name, rwc, timeout, chunkTimeout)
	p.idleEOF = true
	go p.readInput()
	return p, nil
}

// NewPort wraps any stream. It starts a reader goroutine that lives until
// Close.
func NewPort(rwc io.ReadWriteCloser, timeout, chunkTimeout time.Duration) *Port {
	p := newPort("stream", rwc, timeout, chunkTimeout)
	go p.readInput()
	return p
}

func newPort(name string, rwc io.ReadWriteCloser, timeout, chunkTimeout time.Duration) *Port {
	return &Port{
		name:         name,
		rwc:          rwc,
		timeout:      timeout,
		chunkTimeout: chunkTimeout,
		data:         make(chan []byte),
		done:         make(chan struct{}),
	}
}

func (p *Port) readInput() {
	defer close(p.data)
	for {
		tmp := make([]byte, readSize)
		n, err := p.rwc.Read(tmp)
		if n > 0 {
			select {
			case p.data <- tmp[:n]:
			case <-p.done:
				return
			}
		}
		if err == io.EOF && p.idleEOF {
			select {
			case <-p.done:
				return
			default:
				continue
			}
		}
		if err != nil {
			return
		}
	}
}

// Send discards anything left over from a previous exchange, then writes.
func (p *Port) Send(data []byte) error {
	p.drain()
	if _, err := p.rwc.Write(data); err != nil {
		return errors.Wrapf(err, "write %s", p.name)
	}
	return nil
}

func (p *Port) drain() {
	for {
		select {
		case _, ok := <-p.data:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// ReceiveAvailable collects bytes until none arrive for the chunk timeout.
// It returns ErrTimeout if nothing arrives within the overall timeout, and
// io.EOF once the stream has ended.
func (p *Port) ReceiveAvailable(ctx context.Context) ([]byte, error) {
	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	var buf []byte
	for {
		select {
		case chunk, ok := <-p.data:
			if !ok {
				if len(buf) > 0 {
					return buf, nil
				}
				return nil, io.EOF
			}
			buf = append(buf, chunk...)
			timer.Reset(p.chunkTimeout)

		case <-timer.C:
			if len(buf) > 0 {
				return buf, nil
			}
			return nil, errors.Wrapf(ErrTimeout, "read %s after %s", p.name, p.timeout)

		case <-ctx.Done():
			return buf, ctx.Err()
		}
	}
}

// Close stops the reader goroutine and closes the underlying stream.
func (p *Port) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		err = p.rwc.Close()
	})
	return err
}
