// Package idhash computes deterministic identifiers used as persistence keys.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"equity-strategy-lab/internal/domain"
)

// ComputeConfigHash hashes the parameters that affect search results, so
// stored strategies from different configurations never collide.
// Formula: SHA256(holdPeriod|minTrades|wWin|wSharpe|trainBars|testBars|stepBars)
// Returns hex-encoded hash (64 characters).
func ComputeConfigHash(holdPeriod, minTrades int, weights domain.EdgeScoreWeights, trainBars, testBars, stepBars int) string {
	data := fmt.Sprintf("%d|%d|%g|%g|%d|%d|%d",
		holdPeriod,
		minTrades,
		weights.WinPct,
		weights.Sharpe,
		trainBars,
		testBars,
		stepBars,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeResultID computes a deterministic identifier for one persisted
// strategy result. Formula: SHA256(symbol|stackKey|configHash|runAtUnixMs).
func ComputeResultID(symbol, stackKey, configHash string, runAt time.Time) string {
	data := fmt.Sprintf("%s|%s|%s|%d", symbol, stackKey, configHash, runAt.UnixMilli())

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
