package game

func (c *Controller) seated(a Action) (*Player, error) {
	p := c.s.playerByID(a.PlayerID)
	if p == nil {
		return nil, invalid(a, ReasonNotSeated, "player %s is not seated", a.PlayerID)
	}
	return p, nil
}

func (c *Controller) takeSeat(a Action) error {
	t := c.s.table
	if c.s.playerByID(a.PlayerID) != nil {
		return invalid(a, ReasonAlreadySeated, "player %s already seated", a.PlayerID)
	}
	if a.PlayerID == "" {
		return invalid(a, ReasonNotSeated, "player id is required")
	}
	seat := a.Seat
	if seat < 0 {
		empty := c.Accessor().EmptySeats()
		if len(empty) == 0 {
			return invalid(a, ReasonTableFull, "all %d seats taken", t.NumSeats)
		}
		seat = empty[0]
	}
	if seat >= t.NumSeats {
		return invalid(a, ReasonIllegalAction, "seat %d does not exist", seat)
	}
	if c.s.playerAt(seat) != nil {
		return invalid(a, ReasonSeatTaken, "seat %d is taken", seat)
	}

	chips, err := c.rules.buyIn(c, a)
	if err != nil {
		return err
	}
	username := a.Username
	if username == "" {
		username = a.PlayerID
	}
	subj := Subject{Kind: SubjectPlayer, ID: a.PlayerID, Seat: seat}
	if err := c.emit(subj, EventTakeSeat, TakeSeatArgs{Seat: seat, Username: username, IsBot: a.Source == SourceBot}); err != nil {
		return err
	}
	p := c.s.playerByID(a.PlayerID)
	if err := c.playerEvent(p, EventBuy, AmountArgs{Amount: chips}); err != nil {
		return err
	}
	if t.Format == Ring && t.HandNumber > 0 {
		if err := c.playerEvent(p, EventMissedBlinds, MissedBlindsArgs{BB: true}); err != nil {
			return err
		}
	}
	if err := c.playerEvent(p, EventSitInPending, StateArgs{State: SitInPending}); err != nil {
		return err
	}
	return c.rules.settleBuyIn(c, a, chips)
}

func (c *Controller) leaveSeat(a Action) error {
	p, err := c.seated(a)
	if err != nil {
		return err
	}
	if err := c.rules.canLeave(c, a, p); err != nil {
		return err
	}

	acc := c.Accessor()
	if acc.HandInProgress() && p.DealtIn {
		if p.State == LeaveSeatPending {
			return invalid(a, ReasonNoChange, "%s is already leaving", p)
		}
		toAct := acc.NextToAct() == p
		if err := c.playerEvent(p, EventSitOut, StateArgs{State: LeaveSeatPending}); err != nil {
			return err
		}
		if toAct {
			return c.playerEvent(p, EventFold, AutoArgs{})
		}
		return nil
	}
	return c.rules.cashOut(c, p)
}

func (c *Controller) sitOut(a Action) error {
	p, err := c.seated(a)
	if err != nil {
		return err
	}
	switch p.State {
	case SittingOut, TourneySittingOut, LeaveSeatPending:
		return invalid(a, ReasonNoChange, "%s is already %s", p, p.State)
	}
	return c.playerEvent(p, EventSitOut, StateArgs{State: c.rules.sitOutState()})
}

func (c *Controller) sitIn(a Action) error {
	p, err := c.seated(a)
	if err != nil {
		return err
	}
	switch p.State {
	case SittingIn, SitInPending:
		return invalid(a, ReasonNoChange, "%s is already %s", p, p.State)
	}
	if p.Stack == 0 && !p.InHand() {
		return invalid(a, ReasonBadAmount, "%s has no chips", p)
	}
	// Players still holding cards resume immediately; the rest wait for the
	// next deal.
	if p.DealtIn || p.State == TourneySittingOut {
		return c.playerEvent(p, EventSitIn, StateArgs{State: SittingIn})
	}
	return c.playerEvent(p, EventSitInPending, StateArgs{State: SitInPending})
}

func (c *Controller) sitInAtBlinds(a Action) error {
	p, err := c.seated(a)
	if err != nil {
		return err
	}
	if c.s.table.Format != Ring {
		return invalid(a, ReasonTournament, "tournament players are always dealt in")
	}
	if p.State != SittingOut {
		return invalid(a, ReasonNoChange, "%s is %s", p, p.State)
	}
	if p.Stack == 0 {
		return invalid(a, ReasonBadAmount, "%s has no chips", p)
	}
	return c.playerEvent(p, EventSitInPending, StateArgs{State: SitInAtBlindsPending})
}

func (c *Controller) setAutoRebuy(a Action) error {
	p, err := c.seated(a)
	if err != nil {
		return err
	}
	t := c.s.table
	if t.Format != Ring {
		return invalid(a, ReasonTournament, "no rebuys in a freezeout")
	}
	if a.Amount != 0 && (a.Amount < t.MinBuyin || a.Amount > t.MaxBuyin) {
		return invalid(a, ReasonBadAmount, "auto rebuy %d outside %d-%d", a.Amount, t.MinBuyin, t.MaxBuyin)
	}
	if a.Amount == p.AutoRebuy {
		return invalid(a, ReasonNoChange, "auto rebuy already %d", a.Amount)
	}
	return c.playerEvent(p, EventSetAutoRebuy, AmountArgs{Amount: a.Amount})
}
