package asserts

// Values obtains values used inside an assertion expression so that the
// expression does not need to be re-interpreted if the assertion fails.
// Calling C records the passed-in value and returns it untouched; during
// diagnostic replay the recorded values are dequeued in call order instead
// of being recomputed, which keeps side-effecting calls single-shot.
type Values struct {
	queue []any
}

func NewValues() *Values {
	return &Values{}
}

// C captures x and returns it unchanged.
func (v *Values) C(x any) any {
	v.queue = append(v.queue, x)
	return x
}

// pop dequeues the next captured value. An exhausted cell yields the
// unknown sentinel rather than failing.
func (v *Values) pop() any {
	if len(v.queue) == 0 {
		return unknown
	}
	x := v.queue[0]
	v.queue = v.queue[1:]
	return x
}

type unknownValue struct{}

var unknown = unknownValue{}

func (unknownValue) repr() string {
	return "<unknown>"
}
