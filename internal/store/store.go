// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

// Package store persists users, conversations, messages, notifications and
// posts in BadgerDB.
//
// Records are JSON documents under typed key prefixes. Secondary indexes
// (participant lists, the conversation pair index, id lookups) are plain keys
// written in the same transaction as the record they point at, so every
// multi-key change is atomic. Write conflicts between concurrent
// transactions are retried.
//
// Key layout:
//
//	user:<userId>                      User
//	following:<userId>:<targetId>      follow edge
//	follower:<targetId>:<userId>       reverse follow edge
//	conv:<convId>                      Conversation
//	conv_user:<userId>:<convId>        participant index
//	conv_pair:<userA>:<userB>          pair index (ids sorted) -> convId
//	msg:<convId>:<seq>                 Message, seq is zero padded
//	msg_id:<msgId>                     -> msg key
//	notif:<recipientId>:<seq>          Notification
//	notif_id:<notifId>                 -> notif key
//	post:<postId>                      Post
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/socialrelay/internal/cache"
	"github.com/tomtom215/socialrelay/internal/config"
	"github.com/tomtom215/socialrelay/internal/logging"
	"github.com/tomtom215/socialrelay/internal/metrics"
	"github.com/tomtom215/socialrelay/internal/models"
)

const (
	userPrefix      = "user:"
	followingPrefix = "following:"
	followerPrefix  = "follower:"
	convPrefix      = "conv:"
	convUserPrefix  = "conv_user:"
	convPairPrefix  = "conv_pair:"
	msgPrefix       = "msg:"
	msgIDPrefix     = "msg_id:"
	notifPrefix     = "notif:"
	notifIDPrefix   = "notif_id:"
	postPrefix      = "post:"

	seqKey       = "seq:records"
	seqBandwidth = 1000

	// maxBatch bounds the number of records rewritten by one bulk
	// transaction so it stays below badger's transaction size limit.
	maxBatch = 500

	gcDiscardRatio = 0.5
)

// Options configures Open.
type Options struct {
	Path              string
	InMemory          bool
	SyncWrites        bool
	TxnRetries        int
	UserCacheCapacity int
	UserCacheTTL      time.Duration
}

// OptionsFromConfig builds Options from the service configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Path:              cfg.Store.Path,
		InMemory:          cfg.Store.InMemory,
		SyncWrites:        cfg.Store.SyncWrites,
		TxnRetries:        cfg.Store.TxnRetries,
		UserCacheCapacity: cfg.Cache.UserCapacity,
		UserCacheTTL:      cfg.Cache.UserTTL,
	}
}

// Store is the badger-backed persistence layer. It is safe for concurrent use.
type Store struct {
	db      *badger.DB
	seq     *badger.Sequence
	retries int
	users   *cache.LRU[string, models.UserSummary]
}

// Open opens (or creates) the database described by opts.
func Open(opts Options) (*Store, error) {
	bopts := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts = bopts.WithSyncWrites(opts.SyncWrites).
		WithLogger(newBadgerLogger(logging.WithComponent("badger")))

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("%w: open badger: %w", models.ErrStore, err)
	}

	seq, err := db.GetSequence([]byte(seqKey), seqBandwidth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: open sequence: %w", models.ErrStore, err)
	}

	return &Store{
		db:      db,
		seq:     seq,
		retries: max(opts.TxnRetries, 0),
		users:   cache.New[string, models.UserSummary](opts.UserCacheCapacity, opts.UserCacheTTL),
	}, nil
}

// OpenInMemory opens a throwaway in-memory store.
func OpenInMemory() (*Store, error) {
	return Open(Options{InMemory: true, TxnRetries: 8})
}

// Close releases the sequence lease and closes the database.
func (s *Store) Close() error {
	var errs []error
	if err := s.seq.Release(); err != nil {
		errs = append(errs, fmt.Errorf("release sequence: %w", err))
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close badger: %w", err))
	}
	return errors.Join(errs...)
}

// Ping reports whether the database accepts reads.
func (s *Store) Ping(ctx context.Context) error {
	return s.view(ctx, "ping", func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(seqKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// RunGC rewrites value log files until badger reports nothing left to
// reclaim. In-memory databases have no value log and return nil.
func (s *Store) RunGC() error {
	if s.db.Opts().InMemory {
		return nil
	}
	start := time.Now()
	defer metrics.RecordStoreOperation("value_log_gc", start)

	for {
		err := s.db.RunValueLogGC(gcDiscardRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: run value log gc: %w", models.ErrStore, err)
		}
	}
}

// nextSeq returns a zero padded, strictly increasing sequence number.
func (s *Store) nextSeq() (string, error) {
	n, err := s.seq.Next()
	if err != nil {
		return "", fmt.Errorf("%w: next sequence: %w", models.ErrStore, err)
	}
	return fmt.Sprintf("%020d", n), nil
}

// update runs fn in a read-write transaction, retrying on write conflicts.
func (s *Store) update(ctx context.Context, op string, fn func(txn *badger.Txn) error) error {
	start := time.Now()
	defer metrics.RecordStoreOperation(op, start)

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %s: %w", models.ErrStore, op, err)
		}
		err := s.db.Update(fn)
		if errors.Is(err, badger.ErrConflict) && attempt < s.retries {
			metrics.StoreConflictRetries.WithLabelValues(op).Inc()
			continue
		}
		return classify(op, err)
	}
}

// view runs fn in a read-only transaction.
func (s *Store) view(ctx context.Context, op string, fn func(txn *badger.Txn) error) error {
	start := time.Now()
	defer metrics.RecordStoreOperation(op, start)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s: %w", models.ErrStore, op, err)
	}
	return classify(op, s.db.View(fn))
}

// classify maps badger errors onto the domain error classes. Errors that
// already carry a class pass through untouched.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case models.IsDomainError(err):
		return err
	case errors.Is(err, badger.ErrKeyNotFound):
		return fmt.Errorf("%w: %s", models.ErrNotFound, op)
	default:
		return fmt.Errorf("%w: %s: %w", models.ErrStore, op, err)
	}
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", models.ErrNotFound, kind, id)
}

func getJSON(txn *badger.Txn, key string, v any) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set([]byte(key), data)
}

func exists(txn *badger.Txn, key string) (bool, error) {
	_, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// scanPrefix calls fn for each key under prefix in key order, or in reverse
// key order when reverse is set. fn returns false to stop.
func scanPrefix(txn *badger.Txn, prefix string, reverse bool, fn func(item *badger.Item) (bool, error)) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	opts.Reverse = reverse
	it := txn.NewIterator(opts)
	defer it.Close()

	seek := []byte(prefix)
	if reverse {
		seek = append([]byte(prefix), 0xFF)
	}
	for it.Seek(seek); it.ValidForPrefix([]byte(prefix)); it.Next() {
		more, err := fn(it.Item())
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

// lastSegment returns the part of a key after its final colon.
func lastSegment(key []byte) string {
	k := string(key)
	return k[strings.LastIndexByte(k, ':')+1:]
}

// badgerLogger routes badger's internal logging into zerolog.
type badgerLogger struct {
	l zerolog.Logger
}

//nolint:gocritic // zerolog.Logger is designed to be passed by value
func newBadgerLogger(l zerolog.Logger) *badgerLogger {
	return &badgerLogger{l: l}
}

func (b *badgerLogger) Errorf(f string, v ...interface{}) {
	b.l.Error().Msg(strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (b *badgerLogger) Warningf(f string, v ...interface{}) {
	b.l.Warn().Msg(strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (b *badgerLogger) Infof(f string, v ...interface{}) {
	b.l.Debug().Msg(strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (b *badgerLogger) Debugf(f string, v ...interface{}) {
	b.l.Trace().Msg(strings.TrimSpace(fmt.Sprintf(f, v...)))
}
