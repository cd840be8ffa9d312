package tripspec

import (
	"fmt"
	"sort"

	"etoile/internal/modules/costing"
	"etoile/internal/types"
)

// Stop is an ordered excursion waypoint. Leg distance/duration are measured
// from the previous waypoint and estimated upstream (the engine does no
// routing of its own).
type Stop struct {
	Name               string      `json:"name,omitempty"`
	Order              int         `json:"order"`
	Point              types.Point `json:"point"`
	LegDistanceKm      float64     `json:"legDistanceKm"`
	LegDurationMinutes float64     `json:"legDurationMinutes"`
}

type ReturnBasis string

const (
	ReturnRealSegment       ReturnBasis = "REAL_SEGMENT"
	ReturnSymmetricEstimate ReturnBasis = "SYMMETRIC_ESTIMATE"
)

// ExcursionInput describes the waypoint chain pickup → stops… → dropoff.
// FinalLeg covers the last stop → dropoff (or pickup → dropoff when there are
// no stops). Return distance/duration may be supplied when a real return
// route was computed; zero values trigger the symmetric estimate.
type ExcursionInput struct {
	Stops                 []Stop
	FinalLegKm            float64
	FinalLegMinutes       float64
	ReturnKm              float64
	ReturnMinutes         float64
	Params                costing.Parameters
}

// Leg is one waypoint-pair segment of the excursion.
type Leg struct {
	Index           int               `json:"index"`
	From            string            `json:"from"`
	To              string            `json:"to"`
	DistanceKm      float64           `json:"distanceKm"`
	DurationMinutes float64           `json:"durationMinutes"`
	Cost            costing.Breakdown `json:"cost"`
}

type ExcursionAnalysis struct {
	Trip                  costing.TripAnalysis `json:"trip"`
	Legs                  []Leg                `json:"legs"`
	ReturnBasis           ReturnBasis          `json:"returnBasis"`
	ReturnDistanceKm      float64              `json:"returnDistanceKm"`
	ReturnDurationMinutes float64              `json:"returnDurationMinutes"`
}

// BuildExcursion builds one cost segment per consecutive waypoint pair, stops
// sorted by their order field, then appends the return segment. TotalStops
// excludes pickup and dropoff.
func BuildExcursion(in ExcursionInput) ExcursionAnalysis {
	stops := make([]Stop, len(in.Stops))
	copy(stops, in.Stops)
	sort.SliceStable(stops, func(i, j int) bool { return stops[i].Order < stops[j].Order })

	var (
		legs       []Leg
		segments   []costing.Segment
		serviceKm  float64
		serviceMin float64
	)
	prev := "pickup"
	addLeg := func(to string, km, minutes float64) {
		seg := costing.NewSegment(costing.SegmentService, fmt.Sprintf("%s → %s", prev, to), km, minutes, in.Params)
		segments = append(segments, seg)
		legs = append(legs, Leg{
			Index:           len(legs),
			From:            prev,
			To:              to,
			DistanceKm:      km,
			DurationMinutes: minutes,
			Cost:            seg.Cost,
		})
		serviceKm += km
		serviceMin += minutes
		prev = to
	}

	for i, s := range stops {
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("stop %d", i+1)
		}
		addLeg(name, s.LegDistanceKm, s.LegDurationMinutes)
	}
	addLeg("dropoff", in.FinalLegKm, in.FinalLegMinutes)

	analysis := ExcursionAnalysis{
		Legs:                  legs,
		ReturnBasis:           ReturnSymmetricEstimate,
		ReturnDistanceKm:      serviceKm,
		ReturnDurationMinutes: serviceMin,
	}
	if in.ReturnKm > 0 || in.ReturnMinutes > 0 {
		analysis.ReturnBasis = ReturnRealSegment
		analysis.ReturnDistanceKm = in.ReturnKm
		analysis.ReturnDurationMinutes = in.ReturnMinutes
	}
	segments = append(segments, costing.NewSegment(
		costing.SegmentReturn, "return", analysis.ReturnDistanceKm, analysis.ReturnDurationMinutes, in.Params))

	analysis.Trip = costing.BuildTrip(segments, len(stops))
	return analysis
}
