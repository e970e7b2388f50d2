package encoding

// Record is one training example.
type Record struct {
	Key    string      `json:"key,omitempty"`
	Inputs [][]float64 `json:"inputs"`
	Labels []int       `json:"labels"`
	// Tags holds one one-hot vector per conditioning component.
	Tags             [][]float64 `json:"tags,omitempty"`
	Conditioned      bool        `json:"conditioned,omitempty"`
	ControlsDisabled bool        `json:"controls_disabled,omitempty"`
}

// SampleTag implements pipeline.Sample
func (*Record) SampleTag() {}

// Len is the number of steps in the example.
func (r *Record) Len() int {
	return len(r.Labels)
}
