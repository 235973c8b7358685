package op

import (
	"crypto/rand"
	"encoding/hex"
	"sync"

	"github.com/bestruirui/argus/internal/model"
)

var realtimeCache model.RealtimeStats
var realtimeCacheLock sync.RWMutex

var realtimeSubscribers = make(map[chan model.RealtimeStats]struct{})
var realtimeSubscribersLock sync.RWMutex

var realtimeStreamTokens = make(map[string]struct{})
var realtimeStreamTokensLock sync.RWMutex

func RealtimeGet() model.RealtimeStats {
	realtimeCacheLock.RLock()
	defer realtimeCacheLock.RUnlock()
	return realtimeCache
}

// RealtimeSet replaces the cached snapshot and fans it out to stream
// subscribers. Slow subscribers miss updates instead of blocking the refresh.
func RealtimeSet(stats model.RealtimeStats) {
	realtimeCacheLock.Lock()
	realtimeCache = stats
	realtimeCacheLock.Unlock()

	realtimeSubscribersLock.RLock()
	defer realtimeSubscribersLock.RUnlock()
	for ch := range realtimeSubscribers {
		select {
		case ch <- stats:
		default:
		}
	}
}

func RealtimeSubscribe() chan model.RealtimeStats {
	ch := make(chan model.RealtimeStats, 10)
	realtimeSubscribersLock.Lock()
	realtimeSubscribers[ch] = struct{}{}
	realtimeSubscribersLock.Unlock()
	return ch
}

func RealtimeUnsubscribe(ch chan model.RealtimeStats) {
	realtimeSubscribersLock.Lock()
	delete(realtimeSubscribers, ch)
	realtimeSubscribersLock.Unlock()
	close(ch)
}

// Stream tokens are one-shot: the SSE endpoint cannot carry an Authorization
// header, so an authenticated client first trades its JWT for a token.
func RealtimeStreamTokenCreate() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(bytes)

	realtimeStreamTokensLock.Lock()
	realtimeStreamTokens[token] = struct{}{}
	realtimeStreamTokensLock.Unlock()

	return token, nil
}

func RealtimeStreamTokenVerify(token string) bool {
	realtimeStreamTokensLock.RLock()
	_, ok := realtimeStreamTokens[token]
	realtimeStreamTokensLock.RUnlock()
	return ok
}

func RealtimeStreamTokenRevoke(token string) {
	realtimeStreamTokensLock.Lock()
	delete(realtimeStreamTokens, token)
	realtimeStreamTokensLock.Unlock()
}
