// Package phh exports logged hands in the Poker Hand History (PHH) TOML
// format, one section per hand in a .phhs session file.
package phh

import "time"

// PHH variant codes for the table types the engine deals.
const (
	VariantNoLimitHoldem = "NT"
	VariantPotLimitOmaha = "PO"
)

// HandHistory is one hand. Slices are indexed by PHH player number, p1
// being the small blind.
type HandHistory struct {
	Variant           string    `toml:"variant"`
	Table             string    `toml:"table,omitempty"`
	SeatCount         int       `toml:"seat_count,omitempty"`
	Seats             []int     `toml:"seats,omitempty"`
	Antes             []int64   `toml:"antes"`
	BlindsOrStraddles []int64   `toml:"blinds_or_straddles"`
	MinBet            int64     `toml:"min_bet"`
	StartingStacks    []int64   `toml:"starting_stacks"`
	FinishingStacks   []int64   `toml:"finishing_stacks,omitempty"`
	Winnings          []int64   `toml:"winnings,omitempty"`
	Actions           []string  `toml:"actions"`
	Players           []string  `toml:"players,omitempty"`
	HandID            string    `toml:"hand"`
	Event             string    `toml:"event,omitempty"`
	Time              string    `toml:"time,omitempty"`
	TimeZone          string    `toml:"time_zone,omitempty"`
	Day               int       `toml:"day,omitempty"`
	Month             int       `toml:"month,omitempty"`
	Year              int       `toml:"year,omitempty"`
	Metadata          *Metadata `toml:"metadata,omitempty"`

	Timestamp time.Time `toml:"-"`
}

// Metadata carries engine details PHH has no field for.
type Metadata struct {
	HandNumber int64  `toml:"hand_number"`
	TableType  string `toml:"table_type"`
	Bounty     int64  `toml:"bounty,omitempty"`
}
