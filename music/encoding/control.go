package encoding

import (
	"github.com/kiteco/perfrnn/golib/errors"
)

// ValueEncoding quantizes a scalar control value into classes.
type ValueEncoding interface {
	NumClasses() int
	// Encode fails for values the encoding has no class for.
	Encode(v float64) (int, error)
}

// Control is the tuple of control values attached to one event.
type Control struct {
	// Disabled is only read by OptionalControls.
	Disabled bool
	Values   []float64
}

// ControlEncoder turns a control sequence into per-position input vectors.
type ControlEncoder interface {
	InputSize() int
	EventsToInput(controls []Control, i int) ([]float64, error)
}

// ControlSequence concatenates the one-hot encodings of every value in a control tuple.
type ControlSequence struct {
	Encodings []ValueEncoding
}

// InputSize implements ControlEncoder
func (c ControlSequence) InputSize() int {
	var n int
	for _, e := range c.Encodings {
		n += e.NumClasses()
	}
	return n
}

// EventsToInput implements ControlEncoder
func (c ControlSequence) EventsToInput(controls []Control, i int) ([]float64, error) {
	values := controls[i].Values
	if len(values) != len(c.Encodings) {
		return nil, errors.Errorf("control tuple has %d values, expected %d", len(values), len(c.Encodings))
	}

	in := make([]float64, 0, c.InputSize())
	for j, e := range c.Encodings {
		class, err := e.Encode(values[j])
		if err != nil {
			return nil, errors.Wrapf(err, "control %d of event %d", j, i)
		}
		in = append(in, OneHot(class, e.NumClasses())...)
	}
	return in, nil
}

// OptionalControls prefixes the wrapped encoding with a disable flag. Disabled controls encode as zeros.
type OptionalControls struct {
	Controls ControlEncoder
}

// InputSize implements ControlEncoder
func (o OptionalControls) InputSize() int {
	return 1 + o.Controls.InputSize()
}

// EventsToInput implements ControlEncoder
func (o OptionalControls) EventsToInput(controls []Control, i int) ([]float64, error) {
	if controls[i].Disabled {
		in := make([]float64, o.InputSize())
		in[0] = 1
		return in, nil
	}
	rest, err := o.Controls.EventsToInput(controls, i)
	if err != nil {
		return nil, err
	}
	return append([]float64{0}, rest...), nil
}
