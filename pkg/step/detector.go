package step

import (
	"github.com/teslashibe/go-dancepad/pkg/skeleton"
)

// Event is a single foot strike. It is consumed in the frame it is
// emitted and never stored.
type Event struct {
	Side     skeleton.Side
	Part     Part
	Strength float64 // normalized 0-1 contact confidence
	Joint    skeleton.Joint
	Frame    uint64
}

// ContactState is the two-slot history of one monitored flag.
type ContactState struct {
	Current  int
	Previous int
}

// Advance shifts Current into Previous and stores mask as Current.
func (c *ContactState) Advance(mask int) {
	c.Previous = c.Current
	c.Current = mask
}

// Detect applies the rising-edge rule for one flag. It returns an event
// only when part's bit is set in mask and clear in previous.
func Detect(mask, previous int, side skeleton.Side, part Part) (Event, bool) {
	flag := part.Flag()
	if mask&flag == 0 || previous&flag != 0 {
		return Event{}, false
	}
	return Event{Side: side, Part: part, Strength: 1}, true
}

type slot struct {
	side  skeleton.Side
	part  Part
	joint skeleton.Joint
	state ContactState
}

// Detector tracks heel and toe contact for both feet, each in its own slot.
type Detector struct {
	slots [4]slot
	frame uint64
}

// NewDetector creates a Detector reading contact from the ankle joints.
func NewDetector() *Detector {
	return &Detector{
		slots: [4]slot{
			{side: skeleton.Left, part: Heel, joint: skeleton.LeftFoot},
			{side: skeleton.Left, part: Toe, joint: skeleton.LeftFoot},
			{side: skeleton.Right, part: Heel, joint: skeleton.RightFoot},
			{side: skeleton.Right, part: Toe, joint: skeleton.RightFoot},
		},
	}
}

// Update reads this frame's foot contact masks, advances every slot, and
// returns the rising edges. A foot missing from the frame counts as no
// contact so the next touchdown still produces an edge.
func (d *Detector) Update(samples []skeleton.JointSample) []Event {
	d.frame++

	var events []Event
	for i := range d.slots {
		sl := &d.slots[i]

		mask, confidence := 0, 0
		if s, ok := skeleton.SampleFor(samples, sl.joint); ok {
			mask, confidence = s.ContactMask, s.Confidence
		}

		sl.state.Advance(mask & sl.part.Flag())

		ev, ok := Detect(sl.state.Current, sl.state.Previous, sl.side, sl.part)
		if !ok {
			continue
		}
		ev.Joint = sl.joint
		ev.Frame = d.frame
		if confidence > 0 {
			ev.Strength = Normalize(confidence)
		}
		events = append(events, ev)
	}
	return events
}

// State returns the contact history for one foot part.
func (d *Detector) State(side skeleton.Side, part Part) ContactState {
	for _, sl := range d.slots {
		if sl.side == side && sl.part == part {
			return sl.state
		}
	}
	return ContactState{}
}

// Frame returns the number of frames processed.
func (d *Detector) Frame() uint64 {
	return d.frame
}

// Reset clears all history, e.g. after the avatar is reloaded.
func (d *Detector) Reset() {
	for i := range d.slots {
		d.slots[i].state = ContactState{}
	}
	d.frame = 0
}
