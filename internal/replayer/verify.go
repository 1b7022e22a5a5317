package replayer

import (
	"fmt"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/lox/pokerengine/internal/game"
)

// MismatchError reports a hand whose replayed end state, with the next
// hand's preamble applied, does not hash to the next hand's snapshot.
type MismatchError struct {
	Hand int64
	Want uint64
	Got  uint64
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("replayer: state after hand %d is %016x, next snapshot is %016x", e.Hand, e.Got, e.Want)
}

// Fingerprint hashes a snapshot's structure. Sequence numbers are ignored.
func Fingerprint(s game.Snapshot) (uint64, error) {
	h, err := hashstructure.Hash(s, hashstructure.FormatV2, nil)
	if err != nil {
		return 0, fmt.Errorf("replayer: fingerprint: %w", err)
	}
	return h, nil
}

// Verify replays every hand from the start and checks each against the log
// and against the snapshot of the hand after it. The replayer is left at the
// end of the last hand.
func (r *Replayer) Verify() error {
	if err := r.load(0); err != nil {
		return err
	}
	for {
		if err := r.PlayHand(); err != nil {
			return err
		}
		h := r.Hand()
		if r.idx+1 >= len(r.hands) {
			r.logger.Info().Int("hands", len(r.hands)).Msg("Replay verified")
			return nil
		}

		next := &r.hands[r.idx+1]
		end, err := game.Apply(r.ctrl.Snapshot(), next.Preamble...)
		if err != nil {
			return fmt.Errorf("replayer: apply preamble of hand %d: %w", next.Number, err)
		}
		want, _ := next.Snapshot()
		wantHash, err := Fingerprint(want)
		if err != nil {
			return err
		}
		gotHash, err := Fingerprint(end)
		if err != nil {
			return err
		}
		if wantHash != gotHash {
			r.logger.Debug().RawJSON("want", want.MarshalIndent()).RawJSON("got", end.MarshalIndent()).Msg("Snapshot mismatch")
			return &MismatchError{Hand: h.Number, Want: wantHash, Got: gotHash}
		}
		if err := r.NextHand(); err != nil {
			return err
		}
	}
}
