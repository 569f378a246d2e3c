package provider

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/seenimoa/companydash/internal/infra"
	"github.com/seenimoa/companydash/pkg/models"
)

// Memo wraps a Source and remembers its results per session, ticker, range
// and view for the lifetime of the session. Concurrent identical fetches are
// collapsed into one call. Store failures never fail a fetch.
type Memo struct {
	src   Source
	store infra.Store
	ttl   time.Duration
	group singleflight.Group
}

// NewMemo creates a memo over src that keeps entries in store for ttl.
func NewMemo(src Source, store infra.Store, ttl time.Duration) *Memo {
	return &Memo{src: src, store: store, ttl: ttl}
}

// Name returns the wrapped source's name.
func (m *Memo) Name() string { return m.src.Name() }

// Fetch returns the memoized result for the request's session, fetching from
// the wrapped source on a miss. Without a session id it passes through.
func (m *Memo) Fetch(ctx context.Context, req Request) (*models.MarketData, error) {
	session, ok := SessionFrom(ctx)
	if !ok {
		return m.src.Fetch(ctx, req)
	}
	key := MemoKey(session, req)
	log := zerolog.Ctx(ctx)

	if b, hit, err := m.store.Get(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("memo lookup failed")
	} else if hit {
		var md models.MarketData
		if err := json.Unmarshal(b, &md); err == nil {
			log.Debug().Str("key", key).Msg("memo hit")
			return &md, nil
		}
		log.Warn().Str("key", key).Msg("discarding undecodable memo entry")
	}

	v, err, _ := m.group.Do(key, func() (any, error) {
		md, err := m.src.Fetch(ctx, req)
		if err != nil {
			return nil, err
		}
		if b, err := json.Marshal(md); err == nil {
			if err := m.store.Set(ctx, key, b, m.ttl); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("memo store failed")
			}
		}
		return md, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.MarketData), nil
}

// MemoKey builds the memo key for a session and request.
func MemoKey(session string, req Request) string {
	return strings.Join([]string{
		"session", session,
		strings.ToUpper(strings.TrimSpace(req.Ticker)),
		string(req.Range),
		string(req.View),
	}, ":")
}

var _ Source = (*Memo)(nil)
