package stepcal

// BaudRate is the console rate used by the firmware and expected by the host controller
const BaudRate = 9600

const (
	// BootMessage is printed once by the firmware before it starts reading commands
	BootMessage = "Boot"

	// NotAvailable is the status reply before the motor has been calibrated
	NotAvailable = "Not available"

	// StepsPerRevolutionUnit follows the learned step count in status and calibration output
	StepsPerRevolutionUnit = " steps/revolution"
)

const (
	// NominalStepsPerRevolution is the rated half-step count of one output shaft revolution.
	// It is used to convert "run" arguments until a calibration has completed
	NominalStepsPerRevolution = 4096

	// DefaultRevolutions is used when "run" has no usable argument
	DefaultRevolutions = 8

	// RevolutionDivisor scales "run" arguments: steps = n * stepsPerRevolution / RevolutionDivisor
	RevolutionDivisor = 8

	// CalibrationTrials is the number of revolutions averaged by "calib"
	CalibrationTrials = 3
)

// Verb is a command recognized by the firmware's command interpreter
type Verb int

const (
	VerbUnknown Verb = iota
	VerbRun
	VerbStatus
	VerbCalib
)

func (v Verb) String() string {
	switch v {
	case VerbRun:
		return "run"
	case VerbStatus:
		return "status"
	case VerbCalib:
		return "calib"
	default:
		fallthrough
	case VerbUnknown:
		return "unknown"
	}
}

// StepsFor converts a "run" revolution argument into a number of phase advances, given the best known
// steps per revolution. Integer division truncates
func StepsFor(revolutions, stepsPerRevolution uint32) uint32 {
	return revolutions * stepsPerRevolution / RevolutionDivisor
}
