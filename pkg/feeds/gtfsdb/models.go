package gtfsdb

// Document shapes for the timetable collections. All collections are
// shared across feeds and filtered by feed code.

type Stop struct {
	FeedCode string
	StopID   string

	Name string
	Code string

	Location Location
}

type Location struct {
	Type        string
	Coordinates []float64
}

type Route struct {
	FeedCode string
	RouteID  string

	ShortName string
	LongName  string
	Color     string
}

type Trip struct {
	FeedCode  string
	TripID    string
	RouteID   string
	ServiceID string
	Headsign  string

	StopTimes []StopTime
}

// StopTime offsets are seconds after midnight of the service day and may
// exceed 24 hours for trips running past midnight.
type StopTime struct {
	StopSequence int
	StopID       string

	ArrivalOffset   int
	DepartureOffset int
}

type Service struct {
	FeedCode  string
	ServiceID string

	Monday    bool
	Tuesday   bool
	Wednesday bool
	Thursday  bool
	Friday    bool
	Saturday  bool
	Sunday    bool

	StartDate string
	EndDate   string

	AddedDates   []string
	RemovedDates []string
}

// ActiveOn reports whether the service runs on the date (YYYYMMDD).
// Exception dates override the weekday pattern in both directions.
func (s *Service) ActiveOn(date string, weekday int) bool {
	for _, removed := range s.RemovedDates {
		if removed == date {
			return false
		}
	}

	for _, added := range s.AddedDates {
		if added == date {
			return true
		}
	}

	if s.StartDate != "" && date < s.StartDate {
		return false
	}
	if s.EndDate != "" && date > s.EndDate {
		return false
	}

	// time.Weekday numbering, Sunday first
	weekdays := []bool{s.Sunday, s.Monday, s.Tuesday, s.Wednesday, s.Thursday, s.Friday, s.Saturday}

	return weekdays[weekday]
}
