package stepper

// Phases is the number of rows in the half-step sequence
const Phases = 8

// Coils drives the four coil lines of a unipolar motor driver (IN1..IN4 on a ULN2003 board)
type Coils interface {
	SetCoils(pattern [4]bool)
}

// 8-step half-step sequence. Adjacent rows share one energized coil so the rotor is always held
var halfStepSequence = [Phases][4]bool{
	{true, false, false, false},
	{true, true, false, false},
	{false, true, false, false},
	{false, true, true, false},
	{false, false, true, false},
	{false, false, true, true},
	{false, false, false, true},
	{true, false, false, true},
}

// Advance returns the drive pattern for phase and the phase that follows it
func Advance(phase int) (int, [4]bool) {
	phase = normalize(phase)
	return (phase + 1) % Phases, halfStepSequence[phase]
}

// Lookup finds the phase whose drive pattern matches pattern
func Lookup(pattern [4]bool) (int, bool) {
	for i, row := range halfStepSequence {
		if row == pattern {
			return i, true
		}
	}
	return 0, false
}

// Stepper steps a motor forward through the half-step sequence. It is the only type that touches
// the coil outputs
type Stepper struct {
	coils Coils
	phase int
}

func New(coils Coils) *Stepper {
	return &Stepper{coils: coils}
}

// Phase is the row that will be applied by the next Step
func (s *Stepper) Phase() int {
	return s.phase
}

// Step energizes the coils for the current phase and moves to the next one
func (s *Stepper) Step() {
	next, pattern := Advance(s.phase)
	s.coils.SetCoils(pattern)
	s.phase = next
}

func normalize(phase int) int {
	return (phase%Phases + Phases) % Phases
}
