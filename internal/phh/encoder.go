package phh

import (
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/lox/pokerengine/internal/game"
	"github.com/lox/pokerengine/poker"
)

// Encode writes the hand history to the provided writer in PHH TOML format.
func Encode(w io.Writer, hand *HandHistory) error {
	if hand == nil {
		return fmt.Errorf("phh: hand history is nil")
	}

	enc := toml.NewEncoder(w)
	// Use tabs for arrays to match human expectations
	enc.Indent = "\t"
	return enc.Encode(hand)
}

// EncodeToBytes encodes and returns the result as bytes.
func EncodeToBytes(hand *HandHistory) ([]byte, error) {
	var buf strings.Builder
	if err := Encode(&buf, hand); err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}

// EncodeSession writes hands as numbered sections of a .phhs file, starting
// after section last. It returns the number of the final section written.
func EncodeSession(w io.Writer, last int, hands []*HandHistory) (int, error) {
	for i, hand := range hands {
		section := last + 1
		if _, err := fmt.Fprintf(w, "[%d]\n", section); err != nil {
			return last, err
		}
		if err := Encode(w, hand); err != nil {
			return last, fmt.Errorf("phh: section %d: %w", section, err)
		}
		sep := "\n"
		if i < len(hands)-1 {
			sep = "\n\n"
		}
		if _, err := io.WriteString(w, sep); err != nil {
			return last, err
		}
		last = section
	}
	return last, nil
}

// FormatAction converts an engine event to a PHH action string for player
// index idx (0 is p1). It returns false for events PHH captures elsewhere,
// such as blinds and antes.
func FormatAction(idx int, e game.Event) (string, bool) {
	player := fmt.Sprintf("p%d", idx+1)
	switch args := e.Args.(type) {
	case game.CardsArgs:
		switch e.Type {
		case game.EventDeal:
			return fmt.Sprintf("d dh %s %s", player, poker.FormatCards(args.Cards)), true
		case game.EventReveal:
			return fmt.Sprintf("%s sm %s", player, poker.FormatCards(args.Cards)), true
		}
	case game.BetArgs:
		if args.Amount <= 0 {
			return "", false
		}
		return fmt.Sprintf("%s cbr %d", player, args.Amount), true
	case game.NewStreetArgs:
		return "d db " + poker.FormatCards(args.Cards), true
	}

	switch e.Type {
	case game.EventFold:
		return player + " f", true
	case game.EventCheck, game.EventCall:
		return player + " cc", true
	case game.EventPost, game.EventPostDead, game.EventAnte:
		return "", false
	case game.EventTimeout:
		return fmt.Sprintf("# %s timeout", player), true
	}
	return "", false
}
