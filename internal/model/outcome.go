package model

// Status is the terminal state of an engine request.
type Status string

const (
	StatusAdmitted  Status = "admitted"
	StatusWithdrawn Status = "withdrawn"
	StatusRemoved   Status = "removed"
	StatusUpdated   Status = "updated"
	StatusRejected  Status = "rejected"
)

// Reason explains a policy rejection. Rejections are expected outcomes, not
// faults.
type Reason string

const (
	ReasonAlreadyRegistered   Reason = "already_registered"
	ReasonNotRegistered       Reason = "not_registered"
	ReasonEventFull           Reason = "event_full"
	ReasonEventExpired        Reason = "event_expired"
	ReasonNotFound            Reason = "not_found"
	ReasonCapacityBelowActive Reason = "capacity_below_active"
	ReasonParticipantRemoved  Reason = "participant_removed"
)

// Message returns text suitable for showing to the requester.
func (r Reason) Message() string {
	switch r {
	case ReasonAlreadyRegistered:
		return "You are already registered for this event"
	case ReasonNotRegistered:
		return "No registration found for this event"
	case ReasonEventFull:
		return "Event is full. No more registrations allowed"
	case ReasonEventExpired:
		return "Cannot register for past events"
	case ReasonNotFound:
		return "Not found"
	case ReasonCapacityBelowActive:
		return "Capacity cannot be lower than the number of active registrations"
	case ReasonParticipantRemoved:
		return "Participant account has been removed"
	}
	return string(r)
}

// Outcome is the result of a register, withdraw, remove or edit request.
type Outcome struct {
	Status       Status        `json:"status"`
	Reason       Reason        `json:"reason,omitempty"`
	Message      string        `json:"message"`
	Registration *Registration `json:"registration,omitempty"`
}

// OK reports whether the request took effect.
func (o Outcome) OK() bool {
	return o.Status != StatusRejected
}

func Admitted(reg Registration) Outcome {
	return Outcome{Status: StatusAdmitted, Message: "Registration successful!", Registration: &reg}
}

func Withdrawn(reg Registration) Outcome {
	return Outcome{Status: StatusWithdrawn, Message: "Successfully unregistered from event", Registration: &reg}
}

func Removed(reg Registration) Outcome {
	return Outcome{Status: StatusRemoved, Message: "Registration removed successfully", Registration: &reg}
}

func Updated() Outcome {
	return Outcome{Status: StatusUpdated, Message: "Event updated"}
}

func Rejected(reason Reason) Outcome {
	return Outcome{Status: StatusRejected, Reason: reason, Message: reason.Message()}
}
