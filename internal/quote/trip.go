package quote

import "strings"

// TripType is the closed set of trip kinds a quotation can be priced for.
type TripType int

const (
    TripOneWay TripType = iota
    TripBackLoad
    TripMulti
)

// ParseTripType accepts the form values one_way, back_load and multi in any
// case or spacing. Anything else is a one way trip.
func ParseTripType(s string) TripType {
    switch strings.Join(strings.Fields(strings.ToLower(strings.NewReplacer("_", " ", "-", " ").Replace(s))), " ") {
    case "back load", "backload":
        return TripBackLoad
    case "multi", "multi stop", "multiple":
        return TripMulti
    default:
        return TripOneWay
    }
}

func (t TripType) String() string {
    switch t {
    case TripBackLoad:
        return "back_load"
    case TripMulti:
        return "multi"
    default:
        return "one_way"
    }
}

// Label is the document wording, e.g. "Back Load".
func (t TripType) Label() string {
    switch t {
    case TripBackLoad:
        return "Back Load"
    case TripMulti:
        return "Multi"
    default:
        return "One Way"
    }
}
