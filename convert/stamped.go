// Copyright 2026 The seg Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package convert

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/bpowers/seg"
	"github.com/bpowers/seg/internal/unsafestring"
)

const (
	stampSize      = 8
	payloadLenSize = 4
	stampedHeader  = stampSize + payloadLenSize

	// noPayload is the payload length recorded when a value carries a
	// timestamp but no payload. It is unrelated to the segment tombstone.
	noPayload = -1
)

// MaxPayloadLen is the largest payload a Stamped value can carry; its
// length is stored as a signed 32 bit integer.
const MaxPayloadLen = math.MaxInt32

// ErrMalformedValue is returned when stored bytes can't be decoded.
var ErrMalformedValue = errors.New("convert: malformed value")

// Stamped is a timestamp together with an optional payload. The payload
// is absent, rather than empty, for entries that only record when
// something happened.
type Stamped = seg.Entry[time.Time, []byte]

// NewStamped returns a Stamped carrying payload.
func NewStamped(ts time.Time, payload []byte) Stamped {
	return seg.NewEntry(ts, payload)
}

// NewStampedNoPayload returns a Stamped without a payload.
func NewStampedNoPayload(ts time.Time) Stamped {
	return seg.NewTombstone[time.Time, []byte](ts)
}

// StringTimestamp converts string keys and Stamped values.
//
// Keys are their UTF-8 bytes. Values are laid out as
//
//	[8 byte big-endian unix millis][4 byte big-endian payload length, or -1][payload]
//
// Timestamps are truncated to millisecond precision, and payloads are
// limited to MaxPayloadLen bytes.
type StringTimestamp struct{}

var _ Converter[string, Stamped] = StringTimestamp{}

// KeyToBytes returns the bytes backing k without copying; they must not
// be modified.
func (StringTimestamp) KeyToBytes(k string) []byte {
	return unsafestring.ToBytes(k)
}

// KeyFromBytes copies b into a string.
func (StringTimestamp) KeyFromBytes(b []byte) (string, error) {
	return string(b), nil
}

func encodePayloadLen(n int64) uint32 {
	if n < 0 || n > MaxPayloadLen {
		panic(fmt.Sprintf("convert: %d byte payload exceeds MaxPayloadLen", n))
	}
	return uint32(n)
}

// ValueToBytes encodes v. It panics if the payload is longer than
// MaxPayloadLen.
func (StringTimestamp) ValueToBytes(v Stamped) []byte {
	payload, ok := v.Value()
	if !ok {
		buf := make([]byte, stampedHeader)
		binary.BigEndian.PutUint64(buf[:stampSize], uint64(v.Key().UnixMilli()))
		// -1 in two's complement
		binary.BigEndian.PutUint32(buf[stampSize:stampedHeader], ^uint32(0))
		return buf
	}
	payloadLen := encodePayloadLen(int64(len(payload)))
	buf := make([]byte, stampedHeader+len(payload))
	binary.BigEndian.PutUint64(buf[:stampSize], uint64(v.Key().UnixMilli()))
	binary.BigEndian.PutUint32(buf[stampSize:stampedHeader], payloadLen)
	copy(buf[stampedHeader:], payload)
	return buf
}

// ValueFromBytes decodes a value. The payload is copied out of b, so it
// stays valid after the segment b was read from is unmapped.
func (StringTimestamp) ValueFromBytes(b []byte) (Stamped, error) {
	if len(b) < stampedHeader {
		return Stamped{}, fmt.Errorf("%d byte value shorter than its %d byte header: %w", len(b), stampedHeader, ErrMalformedValue)
	}
	ts := time.UnixMilli(int64(binary.BigEndian.Uint64(b[:stampSize])))
	payloadLen := int64(int32(binary.BigEndian.Uint32(b[stampSize:stampedHeader])))
	rest := b[stampedHeader:]
	if payloadLen == noPayload {
		if len(rest) != 0 {
			return Stamped{}, fmt.Errorf("%d trailing bytes after a value without payload: %w", len(rest), ErrMalformedValue)
		}
		return NewStampedNoPayload(ts), nil
	}
	if payloadLen < 0 || payloadLen != int64(len(rest)) {
		return Stamped{}, fmt.Errorf("payload length %d, have %d bytes: %w", payloadLen, len(rest), ErrMalformedValue)
	}
	return NewStamped(ts, append([]byte{}, rest...)), nil
}
