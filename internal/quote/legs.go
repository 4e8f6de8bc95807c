package quote

import "strings"

// Leg is one directed segment of a route.
type Leg struct {
    From string `json:"from"`
    To   string `json:"to"`
}

// BuildLegs pairs consecutive waypoints of origin, stops..., destination.
// Pairs with a blank side are dropped; when nothing is left the route falls
// back to a single origin to destination leg, even if either end is blank.
func BuildLegs(origin string, stops []string, destination string) []Leg {
    points := make([]string, 0, len(stops)+2)
    points = append(points, origin)
    points = append(points, stops...)
    points = append(points, destination)

    var legs []Leg
    for i := 0; i+1 < len(points); i++ {
        from, to := strings.TrimSpace(points[i]), strings.TrimSpace(points[i+1])
        if from == "" || to == "" {
            continue
        }
        legs = append(legs, Leg{From: from, To: to})
    }
    if len(legs) == 0 {
        return []Leg{{From: strings.TrimSpace(origin), To: strings.TrimSpace(destination)}}
    }
    return legs
}
