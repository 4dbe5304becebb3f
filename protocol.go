package stepcal

import (
	"strconv"
	"strings"
)

// Calibration progress lines printed before each trial starts counting
const (
	FoundFallingEdge = "Found a falling edge"
	StartCalibrating = "Start calibrating..."
)

const (
	trialPrefix   = "Calibration "
	trialInfix    = " completed: "
	averagePrefix = "Average calibration after "
	averageInfix  = " revolutions: "

	// MaxRunArgument is the largest count that fits in a "run" line before the firmware truncates it
	MaxRunArgument = 999
)

// StepsLine formats a step count the way status and calibration replies do, e.g. "4100 steps/revolution"
func StepsLine(steps uint32) string {
	return strconv.FormatUint(uint64(steps), 10) + StepsPerRevolutionUnit
}

// ParseStepsLine is the reverse of StepsLine
func ParseStepsLine(line string) (uint32, bool) {
	num, ok := strings.CutSuffix(line, StepsPerRevolutionUnit)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(num, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

// TrialLine reports the step count of one calibration trial. Trials are numbered from 1
func TrialLine(trial int, steps uint32) string {
	return trialPrefix + strconv.Itoa(trial) + trialInfix + StepsLine(steps)
}

// ParseTrialLine is the reverse of TrialLine
func ParseTrialLine(line string) (int, uint32, bool) {
	return parseCountedLine(line, trialPrefix, trialInfix)
}

// AverageLine reports the final calibration result over all trials
func AverageLine(trials int, steps uint32) string {
	return averagePrefix + strconv.Itoa(trials) + averageInfix + StepsLine(steps)
}

// ParseAverageLine is the reverse of AverageLine
func ParseAverageLine(line string) (int, uint32, bool) {
	return parseCountedLine(line, averagePrefix, averageInfix)
}

func parseCountedLine(line, prefix, infix string) (int, uint32, bool) {
	rest, ok := strings.CutPrefix(line, prefix)
	if !ok {
		return 0, 0, false
	}
	countStr, stepsStr, ok := strings.Cut(rest, infix)
	if !ok {
		return 0, 0, false
	}
	count, err := strconv.Atoi(countStr)
	if err != nil {
		return 0, 0, false
	}
	steps, ok := ParseStepsLine(stepsStr)
	if !ok {
		return 0, 0, false
	}
	return count, steps, true
}

// RunLine formats a "run" command that the firmware will parse. Counts below 10 are zero-padded
// because shorter lines are not parsed for an argument. Counts above MaxRunArgument do not fit
func RunLine(revolutions uint32) (string, bool) {
	if revolutions > MaxRunArgument {
		return "", false
	}
	arg := strconv.FormatUint(uint64(revolutions), 10)
	if len(arg) < 2 {
		arg = "0" + arg
	}
	return VerbRun.String() + arg, true
}
