package schedule

// Painter turns a drag gesture over slot indices into slot flag changes.
//
// A gesture starts at an anchor and paints the inclusive range between the
// anchor and the pointer with the negation of the anchor's value at Begin.
// Every Extend recomputes the whole range from the pre-gesture snapshot, so
// moving the pointer back towards the anchor restores the slots it leaves.
type Painter struct {
	active  bool
	anchor  int
	target  bool
	base    Slots
	current Slots
}

// Begin starts a gesture at index on top of slots. The anchor slot is
// painted immediately, so Begin followed by End toggles exactly one slot.
func (p *Painter) Begin(slots Slots, index int) error {
	if err := ValidateSlot(index); err != nil {
		return err
	}

	p.active = true
	p.anchor = index
	p.base = slots
	p.target = !slots[index]
	p.paint(index)
	return nil
}

// Extend moves the pointer to index. It does nothing without an active
// gesture.
func (p *Painter) Extend(index int) error {
	if err := ValidateSlot(index); err != nil {
		return err
	}
	if !p.active {
		return nil
	}

	p.paint(index)
	return nil
}

func (p *Painter) paint(index int) {
	lo, hi := p.anchor, index
	if lo > hi {
		lo, hi = hi, lo
	}

	p.current = p.base
	for i := lo; i <= hi; i++ {
		p.current[i] = p.target
	}
}

// End finishes the gesture and returns the painted slots. ok is false when
// no gesture was active.
func (p *Painter) End() (slots Slots, ok bool) {
	if !p.active {
		return Slots{}, false
	}
	p.active = false
	return p.current, true
}

// Leave is called when the pointer leaves the editing surface. Whatever was
// painted up to the last in-bounds index is kept and the gesture stops.
func (p *Painter) Leave() (Slots, bool) {
	return p.End()
}

// Active reports whether a gesture is in progress.
func (p *Painter) Active() bool {
	return p.active
}

// Current returns the slots as painted so far.
func (p *Painter) Current() Slots {
	return p.current
}
