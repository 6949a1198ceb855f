package dancepad

// HoleStatus is a read-only view of one hole for the dashboard.
type HoleStatus struct {
	ID        int        `json:"id"`
	State     string     `json:"state"`
	Direction string     `json:"direction"`
	Center    [3]float64 `json:"center"`
	Occupants []string   `json:"occupants"`
	Latched   bool       `json:"latched"`
	Kickable  bool       `json:"kickable"`
	Value     int        `json:"value"`
	Triggers  int        `json:"triggers"`
	Color     [4]float64 `json:"color"`
}

// Status returns the status of every hole.
func (e *Engine) Status() []HoleStatus {
	out := make([]HoleStatus, 0, len(e.holes))
	for _, h := range e.holes {
		c := h.Center()
		st := HoleStatus{
			ID:        h.ID,
			State:     h.state.String(),
			Direction: h.Direction.String(),
			Center:    [3]float64{c.X, c.Y, c.Z},
			Occupants: []string{},
			Latched:   h.latched,
			Kickable:  h.target.Kickable,
			Value:     h.target.Value,
			Triggers:  h.triggers,
			Color:     [4]float64{h.color.R, h.color.G, h.color.B, h.color.A},
		}
		for _, j := range h.Occupants() {
			st.Occupants = append(st.Occupants, j.String())
		}
		out = append(out, st)
	}
	return out
}
