// Package otp issues six digit verification codes.
package otp

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/dtroode/docchat-server/internal/model"
)

const (
	// Digits is the length of every issued code.
	Digits = 6

	lowest = 100000
	span   = 900000
)

// Draws at or above bound are rejected so every code is equally likely.
const bound = math.MaxUint32 - (math.MaxUint32 % span)

var _ model.OTPIssuer = (*Generator)(nil)

// Generator issues codes drawn uniformly from 100000-999999.
type Generator struct {
	ttl    time.Duration
	random io.Reader
	now    func() time.Time
}

// NewGenerator creates a Generator reading from random and stamping expiry with now.
func NewGenerator(ttl time.Duration, random io.Reader, now func() time.Time) *Generator {
	return &Generator{ttl: ttl, random: random, now: now}
}

// NewDefaultGenerator creates a Generator backed by crypto/rand and the wall clock.
func NewDefaultGenerator(ttl time.Duration) *Generator {
	return NewGenerator(ttl, rand.Reader, time.Now)
}

// TTL returns how long an issued code stays valid.
func (g *Generator) TTL() time.Duration {
	return g.ttl
}

// Issue returns a fresh code expiring ttl after now.
func (g *Generator) Issue() (model.Challenge, error) {
	n, err := g.draw()
	if err != nil {
		return model.Challenge{}, fmt.Errorf("failed to generate otp: %w", err)
	}

	return model.Challenge{
		Code:      strconv.FormatUint(uint64(n)+lowest, 10),
		ExpiresAt: g.now().Add(g.ttl),
	}, nil
}

func (g *Generator) draw() (uint32, error) {
	var buf [4]byte
	for {
		if _, err := io.ReadFull(g.random, buf[:]); err != nil {
			return 0, err
		}
		if v := binary.BigEndian.Uint32(buf[:]); v < bound {
			return v % span, nil
		}
	}
}
