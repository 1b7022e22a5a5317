// Package gameid generates table identifiers: UUIDv7 values encoded as 26
// characters of lowercase Crockford base32, so they sort by creation time.
package gameid

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
)

// Base32 alphabet used by TypeID (Crockford's base32)
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Generator builds identifiers from a clock and a source of random bytes.
type Generator struct {
	clock quartz.Clock
	rand  io.Reader
}

// NewGenerator returns a generator. A nil clock or reader falls back to the
// wall clock and crypto/rand.
func NewGenerator(clock quartz.Clock, r io.Reader) *Generator {
	if clock == nil {
		clock = quartz.NewReal()
	}
	if r == nil {
		r = rand.Reader
	}
	return &Generator{clock: clock, rand: r}
}

// Generate returns a new identifier using the wall clock and crypto/rand.
func Generate() string {
	id, err := NewGenerator(nil, nil).Generate()
	if err != nil {
		panic("gameid: " + err.Error())
	}
	return id
}

// Generate returns a new identifier.
func (g *Generator) Generate() (string, error) {
	u, err := uuid.NewRandomFromReader(g.rand)
	if err != nil {
		return "", fmt.Errorf("gameid: %w", err)
	}
	ms := g.clock.Now().UnixMilli()
	u[0] = byte(ms >> 40)
	u[1] = byte(ms >> 32)
	u[2] = byte(ms >> 24)
	u[3] = byte(ms >> 16)
	u[4] = byte(ms >> 8)
	u[5] = byte(ms)
	u[6] = (u[6] & 0x0f) | 0x70
	return Encode(u), nil
}

// Encode writes a UUID as 26 base32 characters, most significant bits first.
func Encode(u uuid.UUID) string {
	var b strings.Builder
	b.Grow(26)
	// 128 bits are padded to 130 with two leading zero bits.
	for i := range 26 {
		bit := i*5 - 2
		var v byte
		for j := range 5 {
			if k := bit + j; k >= 0 && u[k/8]&(0x80>>(k%8)) != 0 {
				v |= 0x10 >> j
			}
		}
		b.WriteByte(alphabet[v])
	}
	return b.String()
}

// Decode parses an identifier back into its UUID.
func Decode(id string) (uuid.UUID, error) {
	var u uuid.UUID
	if err := Validate(id); err != nil {
		return u, err
	}
	for i := range 26 {
		v := byte(strings.IndexByte(alphabet, id[i]))
		bit := i*5 - 2
		for j := range 5 {
			if k := bit + j; k >= 0 && v&(0x10>>j) != 0 {
				u[k/8] |= 0x80 >> (k % 8)
			}
		}
	}
	return u, nil
}

// Time returns the creation time embedded in an identifier.
func Time(id string) (time.Time, error) {
	u, err := Decode(id)
	if err != nil {
		return time.Time{}, err
	}
	var ms int64
	for _, b := range u[:6] {
		ms = ms<<8 | int64(b)
	}
	return time.UnixMilli(ms), nil
}

// Validate checks that id is 26 lowercase base32 characters encoding at
// most 128 bits.
func Validate(id string) error {
	if len(id) != 26 {
		return fmt.Errorf("gameid: must be exactly 26 characters, got %d", len(id))
	}
	if id[0] > '7' {
		return fmt.Errorf("gameid: first character must be 0-7, got %c", id[0])
	}
	for i := range len(id) {
		if strings.IndexByte(alphabet, id[i]) < 0 {
			return fmt.Errorf("gameid: invalid character %c at position %d", id[i], i)
		}
	}
	return nil
}
