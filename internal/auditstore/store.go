// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package auditstore persists the hits it is given to an ordered
// on-disk key-value store, for post-run debugging of why a read was or
// wasn't classified; the driver passes each read's hits after
// hit.Reduce. It is optional: Put and Close are valid no-ops on a nil
// *Store, so a run without -audit pays no cost beyond the check.
//
// The key encoding and kv.Options wiring mirror ins's internal/store:
// a fixed-field big-endian binary key that kv orders directly, so
// ByReadPosition doesn't need to touch the stored value at all.
package auditstore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"modernc.org/kv"

	"github.com/kortschak/chopper/hit"
)

var order = binary.BigEndian

// MarshalHitKey encodes h as an ordered binary key: Ref, RefStart,
// RefEnd, Query, QueryStart, QueryEnd, Score.
func MarshalHitKey(h hit.Hit) []byte {
	var (
		buf bytes.Buffer
		b   [8]byte
	)
	writeString := func(s string) {
		order.PutUint64(b[:], uint64(len(s)))
		buf.Write(b[:])
		buf.WriteString(s)
	}
	writeInt := func(n int) {
		order.PutUint64(b[:], uint64(int64(n)))
		buf.Write(b[:])
	}
	writeString(h.Ref)
	writeInt(h.RefStart)
	writeInt(h.RefEnd)
	writeString(h.Query)
	writeInt(h.QueryStart)
	writeInt(h.QueryEnd)
	order.PutUint64(b[:], math.Float64bits(h.Score))
	buf.Write(b[:])
	return buf.Bytes()
}

// UnmarshalHitKey reverses MarshalHitKey.
func UnmarshalHitKey(data []byte) hit.Hit {
	const n64 = 8
	readString := func() string {
		n := order.Uint64(data[:n64])
		data = data[n64:]
		s := string(data[:n])
		data = data[n:]
		return s
	}
	readInt := func() int {
		n := int(int64(order.Uint64(data[:n64])))
		data = data[n64:]
		return n
	}
	var h hit.Hit
	h.Ref = readString()
	h.RefStart = readInt()
	h.RefEnd = readInt()
	h.Query = readString()
	h.QueryStart = readInt()
	h.QueryEnd = readInt()
	h.Score = math.Float64frombits(order.Uint64(data[:n64]))
	return h
}

// ByReadPosition is a kv compare function ordering audited hits by
// read name then position, the order a reviewer scans a read's hits
// in.
func ByReadPosition(x, y []byte) int {
	if bytes.Equal(x, y) {
		return 0
	}
	rx, ry := UnmarshalHitKey(x), UnmarshalHitKey(y)
	switch {
	case rx.Ref < ry.Ref:
		return -1
	case rx.Ref > ry.Ref:
		return 1
	}
	switch {
	case rx.RefStart < ry.RefStart:
		return -1
	case rx.RefStart > ry.RefStart:
		return 1
	}
	switch {
	case rx.RefEnd < ry.RefEnd:
		return -1
	case rx.RefEnd > ry.RefEnd:
		return 1
	}
	switch {
	case rx.Query < ry.Query:
		return -1
	case rx.Query > ry.Query:
		return 1
	}
	return 0
}

// Store is an on-disk append-only log of every hit passed to Put,
// keyed by ByReadPosition.
type Store struct {
	db *kv.DB
}

// Open creates or opens the audit store at path.
func Open(path string) (*Store, error) {
	db, err := kv.Create(path, &kv.Options{Compare: ByReadPosition})
	if err != nil {
		db, err = kv.Open(path, &kv.Options{Compare: ByReadPosition})
	}
	if err != nil {
		return nil, fmt.Errorf("auditstore: %w", err)
	}
	return &Store{db: db}, nil
}

// Put records h. A nil *Store is a valid no-op receiver.
func (s *Store) Put(h hit.Hit) error {
	if s == nil {
		return nil
	}
	if err := s.db.Set(MarshalHitKey(h), nil); err != nil {
		return fmt.Errorf("auditstore: %w", err)
	}
	return nil
}

// Close closes the store. A nil *Store is a valid no-op receiver.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// Walk calls fn for every recorded hit in key order, stopping at the
// first error fn returns.
func (s *Store) Walk(fn func(hit.Hit) error) error {
	it, err := s.db.SeekFirst()
	if err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("auditstore: %w", err)
	}
	for {
		k, _, err := it.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("auditstore: %w", err)
		}
		if err := fn(UnmarshalHitKey(k)); err != nil {
			return err
		}
	}
}
