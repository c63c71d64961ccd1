package intake

import "missedcall/internal/calls"

// State is a node of the call intake state machine.
//
//	RECEIVED -> MENU_PLAYED -> CALLBACK_REQUESTED | COMPLAINT_REQUESTED | INVALID_INPUT | NO_INPUT
//	RECEIVED -> ERROR (no tenant owns the dialed number)
type State string

const (
	StateReceived           State = "RECEIVED"
	StateMenuPlayed         State = "MENU_PLAYED"
	StateCallbackRequested  State = "CALLBACK_REQUESTED"
	StateComplaintRequested State = "COMPLAINT_REQUESTED"
	StateInvalidInput       State = "INVALID_INPUT"
	StateNoInput            State = "NO_INPUT"
	StateError              State = "ERROR"
)

// Terminal reports whether no further transition can leave s.
func (s State) Terminal() bool {
	switch s {
	case StateCallbackRequested, StateComplaintRequested, StateInvalidInput, StateNoInput, StateError:
		return true
	default:
		return false
	}
}

// menu digits
const (
	DigitBookingLink = "1"
	DigitComplaint   = "2"
)

// onDigits is the MENU_PLAYED transition table.
func onDigits(digits string) State {
	switch digits {
	case "":
		return StateNoInput
	case DigitBookingLink:
		return StateCallbackRequested
	case DigitComplaint:
		return StateComplaintRequested
	default:
		return StateInvalidInput
	}
}

// outcomeOf maps a terminal state to the persisted IVR outcome; ok is false for
// states that leave the call's outcome unset.
func outcomeOf(s State) (calls.IVROutcome, bool) {
	switch s {
	case StateCallbackRequested:
		return calls.IVRCallback, true
	case StateComplaintRequested:
		return calls.IVRComplaint, true
	case StateInvalidInput:
		return calls.IVRInvalid, true
	default:
		return "", false
	}
}

// stateOf is the inverse of outcomeOf for calls whose outcome is already recorded.
func stateOf(o calls.IVROutcome) State {
	switch o {
	case calls.IVRCallback:
		return StateCallbackRequested
	case calls.IVRComplaint:
		return StateComplaintRequested
	case calls.IVRInvalid:
		return StateInvalidInput
	default:
		return StateNoInput
	}
}
