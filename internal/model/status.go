package model

type ShipmentStatus string

const (
	StatusPending   ShipmentStatus = "pending"
	StatusPickedUp  ShipmentStatus = "picked_up"
	StatusInTransit ShipmentStatus = "in_transit"
	StatusDelivered ShipmentStatus = "delivered"
	StatusCancelled ShipmentStatus = "cancelled"
)

// allowedTransitions is the closed transition table; delivered and cancelled
// are terminal.
var allowedTransitions = map[ShipmentStatus][]ShipmentStatus{
	StatusPending:   {StatusPickedUp, StatusInTransit, StatusCancelled},
	StatusPickedUp:  {StatusInTransit, StatusCancelled},
	StatusInTransit: {StatusDelivered, StatusCancelled},
	StatusDelivered: {},
	StatusCancelled: {},
}

// ParseStatus returns the matching status for s, or false when s is not part
// of the known vocabulary.
func ParseStatus(s string) (ShipmentStatus, bool) {
	st := ShipmentStatus(s)
	if _, ok := allowedTransitions[st]; !ok {
		return "", false
	}
	return st, true
}

func (s ShipmentStatus) CanTransitionTo(next ShipmentStatus) bool {
	for _, t := range allowedTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}
