// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package oncore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/oncore_monitor/internal/gps"
)

func TestEncodeStatusSnapshotCommand(t *testing.T) {
	got := Encode(CmdStatusSnapshot)

	assert.Equal(t, []byte{0x40, 0x40, 0x48, 0x61, 0x00, '2', '9', '\r', '\n'}, got)
	assert.Equal(t, "@@Ha\x0029\r\n", string(got))
}

func TestEncodeUsesLowercaseHex(t *testing.T) {
	// 0x40^0x40^0x43^0x6a = 0x29, 0x40^0x40^0x43^0x69^0x01 = 0x2b
	assert.Equal(t, "@@Cj29\r\n", string(Encode(CmdReceiverID)))
	assert.Equal(t, "@@Ci\x012b\r\n", string(Encode(CmdNMEAMode)))
}

func TestEncodeBinaryAppendsRawChecksum(t *testing.T) {
	got := EncodeBinary(CmdStatusSnapshot)
	assert.Equal(t, []byte("@@Ha\x00\x29\r\n"), got)
}

func TestDecodeChecksumRoundTrip(t *testing.T) {
	commands := []string{
		CmdStatusSnapshot,
		CmdNMEAMode,
		CmdReceiverID,
		"",
		"@@Aa\x0c\x1f\x07",
		"\xff\xfe\x80",
	}
	for _, c := range commands {
		ck, err := DecodeChecksum(Encode(c))
		require.NoError(t, err, "command %q", c)
		assert.Equal(t, Checksum([]byte(c)), ck, "command %q", c)
	}
}

func TestDecodeChecksumRejectsBadInput(t *testing.T) {
	_, err := DecodeChecksum([]byte("\r\n"))
	assert.True(t, errors.Is(err, gps.ErrTruncated))

	_, err = DecodeChecksum([]byte("@@Cj29\n\n"))
	assert.True(t, errors.Is(err, gps.ErrBadFrame))

	_, err = DecodeChecksum([]byte("@@Cjzz\r\n"))
	assert.True(t, errors.Is(err, gps.ErrBadFrame))
}
