// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package oncore

import (
	"encoding/binary"
	"fmt"

	"github.com/relabs-tech/oncore_monitor/internal/gps"
)

// Byte offsets into the @@Ha body (header and trailer already stripped).
const (
	offMonth = 0
	offDay   = 1
	offYear  = 2

	offHour   = 4
	offMinute = 5
	offSecond = 6
	offNanos  = 7

	offFilteredPosition   = 11
	offUnfilteredPosition = 27
	positionLen           = 16

	offSpeed3D = 43
	offSpeed2D = 45
	offHeading = 47

	offDOP = 49

	offVisible = 51
	offTracked = 52

	offChannels   = 53
	channelStride = 6

	offReceiverStatus = 125
	offReserved       = 127

	offOscBias   = 129
	offOscOffset = 131
	offOscTemp   = 135

	offUTC = 137

	offGMTSign   = 138
	offGMTHour   = 139
	offGMTMinute = 140

	offIDTag = 141
	idTagLen = 6

	// BodyLen is the minimum length of a decodable body.
	BodyLen = offIDTag + idTagLen
)

// Offsets inside one channel record.
const (
	chanSVID     = 0
	chanMode     = 1
	chanStrength = 2
	chanIODE     = 3
	chanStatus   = 4
)

// bitField is a run of bits inside a status word.
type bitField struct {
	shift uint
	width uint
}

func (f bitField) get(w uint16) uint16 {
	return (w >> f.shift) & (1<<f.width - 1)
}

func (f bitField) flag(w uint16) bool { return f.get(w) != 0 }

// Channel status word layout.
var (
	chanAccuracy     = bitField{0, 4}
	chanUnhealthy    = bitField{4, 1}
	chanAntiSpoof    = bitField{5, 1}
	chanMomentum     = bitField{6, 1}
	chanUsedForFix   = bitField{7, 1}
	chanParityError  = bitField{8, 1}
	chanInvalidData  = bitField{9, 1}
	chanDifferential = bitField{10, 1}
	chanUsedForTime  = bitField{11, 1}
	chanNarrowBand   = bitField{12, 1}
)

// Receiver status word layout. Bits 11-12 are not decoded.
var (
	rxCodeLocation    = bitField{0, 1}
	rxAntennaSense    = bitField{1, 2}
	rxInsufficientVis = bitField{3, 1}
	rxAutosurvey      = bitField{4, 1}
	rxPositionLock    = bitField{5, 1}
	rxDifferentialFix = bitField{6, 1}
	rxColdStart       = bitField{7, 1}
	rxFilterReset     = bitField{8, 1}
	rxFastAcquisition = bitField{9, 1}
	rxNarrowBand      = bitField{10, 1}
	rxStatusPhrase    = bitField{13, 3}
	rxUTCOffsetValue  = bitField{0, 6}
)

// UTC parameter byte layout.
const (
	utcModeBit          = 7
	utcOffsetDecodedBit = 6
)

// Decode parses an @@Ha body into a ReceiverSnapshot. Bytes past BodyLen
// are ignored. On error the returned snapshot is the zero value.
func Decode(body []byte) (ReceiverSnapshot, error) {
	if len(body) < BodyLen {
		return ReceiverSnapshot{}, gps.Truncated(BodyLen, len(body))
	}

	var s ReceiverSnapshot
	be := binary.BigEndian

	s.Date = Date{
		Month: body[offMonth],
		Day:   body[offDay],
		Year:  be.Uint16(body[offYear:]),
	}
	s.Time = Time{
		Hour:       body[offHour],
		Minute:     body[offMinute],
		Second:     body[offSecond],
		Nanosecond: be.Uint32(body[offNanos:]),
	}
	s.FilteredPosition = decodePosition(body[offFilteredPosition : offFilteredPosition+positionLen])
	s.UnfilteredPosition = decodePosition(body[offUnfilteredPosition : offUnfilteredPosition+positionLen])
	s.Velocity = Velocity{
		Speed3DCms:         be.Uint16(body[offSpeed3D:]),
		Speed2DCms:         be.Uint16(body[offSpeed2D:]),
		HeadingDecidegrees: be.Uint16(body[offHeading:]),
	}
	s.DOPTenths = be.Uint16(body[offDOP:])
	s.SatellitesVisible = body[offVisible]
	s.SatellitesTracked = body[offTracked]

	// Always twelve, whatever SatellitesTracked says.
	for i := 0; i < ChannelCount; i++ {
		base := offChannels + i*channelStride
		ch, err := decodeChannel(i, body[base:base+channelStride])
		if err != nil {
			return ReceiverSnapshot{}, err
		}
		s.Channels[i] = ch
	}

	statusWord := be.Uint16(body[offReceiverStatus:])
	rs, err := decodeReceiverStatus(statusWord)
	if err != nil {
		return ReceiverSnapshot{}, err
	}
	s.ReceiverStatus = rs

	s.Oscillator = Oscillator{
		BiasNs:         be.Uint16(body[offOscBias:]),
		OffsetRaw:      be.Uint32(body[offOscOffset:]),
		TemperatureRaw: be.Uint16(body[offOscTemp:]),
	}

	// The offset value is taken from the receiver status word, not from the
	// UTC byte. Receivers in the field report it this way; keep it.
	utc := body[offUTC]
	s.UTC = UTCParameters{
		Mode:          utc>>utcModeBit&1 == 1,
		OffsetDecoded: utc>>utcOffsetDecodedBit&1 == 1,
		OffsetValue:   uint8(rxUTCOffsetValue.get(statusWord)),
	}

	s.GMTOffset = GMTOffset{
		Sign:   GMTPlus,
		Hour:   body[offGMTHour],
		Minute: body[offGMTMinute],
	}
	if body[offGMTSign] != 0 {
		s.GMTOffset.Sign = GMTMinus
	}

	tag, err := asciiField("id_tag", body[offIDTag:offIDTag+idTagLen])
	if err != nil {
		return ReceiverSnapshot{}, err
	}
	s.IDTag = tag

	return s, nil
}

func decodePosition(b []byte) Position {
	be := binary.BigEndian
	return Position{
		LatitudeMas:  int32(be.Uint32(b[0:])),
		LongitudeMas: int32(be.Uint32(b[4:])),
		GPSHeightCm:  int32(be.Uint32(b[8:])),
		MSLHeightCm:  int32(be.Uint32(b[12:])),
	}
}

func decodeChannel(i int, b []byte) (ChannelRecord, error) {
	ch := ChannelRecord{
		SVID:              b[chanSVID],
		ModeIndex:         b[chanMode],
		SignalStrengthRaw: b[chanStrength],
		IODE:              b[chanIODE],
		Status:            DecodeChannelStatus(binary.BigEndian.Uint16(b[chanStatus:])),
	}
	if _, err := ModeName(int(ch.ModeIndex)); err != nil {
		return ChannelRecord{}, gps.OutOfRange(fmt.Sprintf("channel[%d].mode", i), int(ch.ModeIndex))
	}
	if _, err := AccuracyBand(int(ch.Status.AccuracyIndex)); err != nil {
		return ChannelRecord{}, gps.OutOfRange(fmt.Sprintf("channel[%d].accuracy", i), int(ch.Status.AccuracyIndex))
	}
	return ch, nil
}

// DecodeChannelStatus unpacks a channel status word.
func DecodeChannelStatus(w uint16) ChannelStatus {
	return ChannelStatus{
		AccuracyIndex:           uint8(chanAccuracy.get(w)),
		Unhealthy:               chanUnhealthy.flag(w),
		AntiSpoof:               chanAntiSpoof.flag(w),
		MomentumAlert:           chanMomentum.flag(w),
		UsedForFix:              chanUsedForFix.flag(w),
		ParityError:             chanParityError.flag(w),
		InvalidData:             chanInvalidData.flag(w),
		DifferentialCorrections: chanDifferential.flag(w),
		UsedForTime:             chanUsedForTime.flag(w),
		NarrowBand:              chanNarrowBand.flag(w),
	}
}

func decodeReceiverStatus(w uint16) (ReceiverStatus, error) {
	rs := ReceiverStatus{
		CodeLocation:        CodeLocation(rxCodeLocation.get(w)),
		AntennaSense:        AntennaSense(rxAntennaSense.get(w)),
		InsufficientVisible: rxInsufficientVis.flag(w),
		Autosurvey:          rxAutosurvey.flag(w),
		PositionLock:        rxPositionLock.flag(w),
		DifferentialFix:     rxDifferentialFix.flag(w),
		ColdStart:           rxColdStart.flag(w),
		FilterReset:         rxFilterReset.flag(w),
		FastAcquisition:     rxFastAcquisition.flag(w),
		NarrowBand:          rxNarrowBand.flag(w),
		StatusPhraseIndex:   uint8(rxStatusPhrase.get(w)),
	}
	if int(rs.CodeLocation) >= len(CodeLocationNames) {
		return ReceiverStatus{}, gps.OutOfRange("code_location", int(rs.CodeLocation))
	}
	if int(rs.AntennaSense) >= len(AntennaSenseNames) {
		return ReceiverStatus{}, gps.OutOfRange("antenna_sense", int(rs.AntennaSense))
	}
	if _, err := StatusPhrase(int(rs.StatusPhraseIndex)); err != nil {
		return ReceiverStatus{}, err
	}
	return rs, nil
}

func asciiField(field string, b []byte) (string, error) {
	for _, c := range b {
		if c >= 0x80 {
			return "", gps.InvalidText(field)
		}
	}
	return string(b), nil
}
