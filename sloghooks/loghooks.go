package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/quartzeda/gencache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	TierHitEvery  uint64
	TierMissEvery uint64
	SelfHealEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	hitCtr      atomic.Uint64
	missCtr     atomic.Uint64
	selfHealCtr atomic.Uint64
}

var _ gencache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) TierHit(tier string, key gencache.Key) {
	if h.l == nil || !sample(h.opts.TierHitEvery, &h.hitCtr) {
		return
	}
	h.l.Debug("gencache.tier_hit",
		"tier", tier,
		"key", h.redact(key.String()))
}

func (h *Hooks) TierMiss(tier string, key gencache.Key) {
	if h.l == nil || !sample(h.opts.TierMissEvery, &h.missCtr) {
		return
	}
	h.l.Debug("gencache.tier_miss",
		"tier", tier,
		"key", h.redact(key.String()))
}

func (h *Hooks) Fallback(key gencache.Key) {
	if h.l == nil {
		return
	}
	h.l.Debug("gencache.fallback",
		"key", h.redact(key.String()))
}

func (h *Hooks) WriteBackRejected(tier, storageKey string) {
	if h.l == nil {
		return
	}
	h.l.Warn("gencache.write_back_rejected",
		"tier", tier,
		"key", h.redact(storageKey))
}

func (h *Hooks) SelfHeal(tier, storageKey, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("gencache.self_heal",
		"tier", tier,
		"key", h.redact(storageKey),
		"reason", reason)
}

func (h *Hooks) TranscodeFailure(key gencache.Key, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("gencache.transcode_failure",
		"key", h.redact(key.String()),
		"err", err)
}

func (h *Hooks) GeneratorPanic(key gencache.Key, recovered any) {
	if h.l == nil {
		return
	}
	h.l.Error("gencache.generator_panic",
		"key", h.redact(key.String()),
		"recovered", recovered)
}
