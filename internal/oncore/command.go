// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package oncore

import (
	"encoding/hex"
	"fmt"

	"github.com/relabs-tech/oncore_monitor/internal/gps"
)

// Binary commands understood by the receiver.
const (
	CmdStatusSnapshot = "@@Ha\x00" // full status message, polled once
	CmdNMEAMode       = "@@Ci\x01" // switch output to NMEA-0183
	CmdReceiverID     = "@@Cj"     // receiver identification text
)

// NMEA-mode text commands. They are sent verbatim.
const (
	NMEARequestRMC   = "$PMOTG,RMC,0000\r\n"
	NMEAReturnBinary = "$PMOTG,FOR,0\r\n"
)

// Response message IDs, as they appear after the "@@" header.
const (
	IDStatusSnapshot = "Ha"
	IDReceiverID     = "Cj"
)

const terminator = "\r\n"

// Checksum returns the XOR of every byte in b.
func Checksum(b []byte) byte {
	var ck byte
	for _, c := range b {
		ck ^= c
	}
	return ck
}

// Encode frames a command for the wire: the command bytes, the XOR checksum
// written as two lowercase hex characters, then CR LF.
func Encode(command string) []byte {
	ck := Checksum([]byte(command))
	out := make([]byte, 0, len(command)+2+len(terminator))
	out = append(out, command...)
	out = append(out, fmt.Sprintf("%02x", ck)...)
	out = append(out, terminator...)
	return out
}

// EncodeBinary frames a command with the checksum as a single raw byte.
func EncodeBinary(command string) []byte {
	out := make([]byte, 0, len(command)+1+len(terminator))
	out = append(out, command...)
	out = append(out, Checksum([]byte(command)))
	out = append(out, terminator...)
	return out
}

// DecodeChecksum reads back the hex checksum from a command built by Encode.
func DecodeChecksum(encoded []byte) (byte, error) {
	n := len(encoded)
	if n < 2+len(terminator) {
		return 0, gps.Truncated(2+len(terminator), n)
	}
	if string(encoded[n-2:]) != terminator {
		return 0, gps.BadFrame("missing CR LF terminator")
	}
	var ck [1]byte
	if _, err := hex.Decode(ck[:], encoded[n-4:n-2]); err != nil {
		return 0, gps.BadFrame(fmt.Sprintf("checksum %q is not hex", encoded[n-4:n-2]))
	}
	return ck[0], nil
}
