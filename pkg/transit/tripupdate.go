package transit

import "time"

type ScheduleRelationship string

const (
	ScheduleRelationshipScheduled ScheduleRelationship = "SCHEDULED"
	ScheduleRelationshipCanceled                       = "CANCELED"
	ScheduleRelationshipSkipped                        = "SKIPPED"
)

// RealtimeTripUpdate is the decoded realtime prediction for a single trip.
// An empty StartDate means the feed did not declare which calendar day the
// update applies to - such an update is ambiguous and can match an
// occurrence on any day.
type RealtimeTripUpdate struct {
	TripID               string
	StartDate            string
	ScheduleRelationship ScheduleRelationship

	VehicleLabel string

	StopTimeUpdates []StopTimeUpdate
}

// StopTimeUpdate carries the per-stop prediction of a RealtimeTripUpdate.
// Optional fields are pointers so that an absent value can be told apart
// from an explicit zero.
type StopTimeUpdate struct {
	StopSequence *int
	StopID       string

	ScheduleRelationship ScheduleRelationship

	ArrivalDelay   *int
	ArrivalTime    *time.Time
	DepartureDelay *int
	DepartureTime  *time.Time
}
