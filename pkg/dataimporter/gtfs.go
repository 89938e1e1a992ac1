package dataimporter

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/nextstop/nextstop/pkg/database"
	"github.com/nextstop/nextstop/pkg/feeds/gtfsdb"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const upsertBatchSize = 500

type gtfsSchedule struct {
	Stops         []csvStop
	Routes        []csvRoute
	Trips         []csvTrip
	StopTimes     []csvStopTime
	Calendars     []csvCalendar
	CalendarDates []csvCalendarDate
}

// ImportGTFSSchedule loads a GTFS static zip into the timetable
// collections for one feed, replacing whatever the feed had before.
func ImportGTFSSchedule(feedCode string, path string) error {
	contents, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	schedule, err := parseScheduleZip(contents)
	if err != nil {
		return err
	}

	log.Info().
		Str("feed", feedCode).
		Int("stops", len(schedule.Stops)).
		Int("routes", len(schedule.Routes)).
		Int("trips", len(schedule.Trips)).
		Int("stoptimes", len(schedule.StopTimes)).
		Msg("Parsed GTFS schedule")

	return schedule.importInto(feedCode)
}

func parseScheduleZip(contents []byte) (*gtfsSchedule, error) {
	// Ignore those naughty records that have missing columns
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.FieldsPerRecord = -1
		return r
	})

	var schedule gtfsSchedule

	fileMap := map[string]interface{}{
		"stops.txt":          &schedule.Stops,
		"routes.txt":         &schedule.Routes,
		"trips.txt":          &schedule.Trips,
		"stop_times.txt":     &schedule.StopTimes,
		"calendar.txt":       &schedule.Calendars,
		"calendar_dates.txt": &schedule.CalendarDates,
	}

	archive, err := zip.NewReader(bytes.NewReader(contents), int64(len(contents)))
	if err != nil {
		return nil, err
	}

	for _, zipFile := range archive.File {
		destination, exists := fileMap[zipFile.Name]
		if !exists {
			log.Debug().Str("file", zipFile.Name).Msg("Skipping gtfs file")
			continue
		}

		log.Info().Str("file", zipFile.Name).Msg("Loading file")

		fileReader, err := zipFile.Open()
		if err != nil {
			return nil, err
		}

		err = gocsv.Unmarshal(fileReader, destination)
		fileReader.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", zipFile.Name, err)
		}
	}

	return &schedule, nil
}

func (schedule *gtfsSchedule) importInto(feedCode string) error {
	stopTimesPerTrip := map[string][]gtfsdb.StopTime{}
	for _, stopTime := range schedule.StopTimes {
		offsetArrival, err := parseGTFSTime(stopTime.ArrivalTime)
		if err != nil {
			log.Debug().Str("trip", stopTime.TripID).Str("value", stopTime.ArrivalTime).Msg("Skipping stop time with unparseable arrival")
			continue
		}

		offsetDeparture, err := parseGTFSTime(stopTime.DepartureTime)
		if err != nil {
			offsetDeparture = offsetArrival
		}

		stopTimesPerTrip[stopTime.TripID] = append(stopTimesPerTrip[stopTime.TripID], gtfsdb.StopTime{
			StopSequence:    stopTime.StopSequence,
			StopID:          stopTime.StopID,
			ArrivalOffset:   offsetArrival,
			DepartureOffset: offsetDeparture,
		})
	}

	var stops []interface{}
	for _, stop := range schedule.Stops {
		stops = append(stops, gtfsdb.Stop{
			FeedCode: feedCode,
			StopID:   stop.ID,
			Name:     stop.Name,
			Code:     stop.Code,
			Location: gtfsdb.Location{
				Type:        "Point",
				Coordinates: []float64{stop.Longitude, stop.Latitude},
			},
		})
	}

	var routes []interface{}
	for _, route := range schedule.Routes {
		routes = append(routes, gtfsdb.Route{
			FeedCode:  feedCode,
			RouteID:   route.ID,
			ShortName: route.ShortName,
			LongName:  route.LongName,
			Color:     route.Color,
		})
	}

	var trips []interface{}
	for _, trip := range schedule.Trips {
		trips = append(trips, gtfsdb.Trip{
			FeedCode:  feedCode,
			TripID:    trip.ID,
			RouteID:   trip.RouteID,
			ServiceID: trip.ServiceID,
			Headsign:  trip.Headsign,
			StopTimes: stopTimesPerTrip[trip.ID],
		})
	}

	services := map[string]*gtfsdb.Service{}
	for _, calendar := range schedule.Calendars {
		services[calendar.ServiceID] = &gtfsdb.Service{
			FeedCode:  feedCode,
			ServiceID: calendar.ServiceID,

			Monday:    calendar.Monday == 1,
			Tuesday:   calendar.Tuesday == 1,
			Wednesday: calendar.Wednesday == 1,
			Thursday:  calendar.Thursday == 1,
			Friday:    calendar.Friday == 1,
			Saturday:  calendar.Saturday == 1,
			Sunday:    calendar.Sunday == 1,

			StartDate: calendar.StartDate,
			EndDate:   calendar.EndDate,
		}
	}

	for _, exception := range schedule.CalendarDates {
		service, exists := services[exception.ServiceID]
		if !exists {
			service = &gtfsdb.Service{FeedCode: feedCode, ServiceID: exception.ServiceID}
			services[exception.ServiceID] = service
		}

		if exception.ExceptionType == 1 {
			service.AddedDates = append(service.AddedDates, exception.Date)
		} else {
			service.RemovedDates = append(service.RemovedDates, exception.Date)
		}
	}

	var serviceDocuments []interface{}
	for _, service := range services {
		serviceDocuments = append(serviceDocuments, *service)
	}

	collections := map[string][]interface{}{
		"stops":    stops,
		"routes":   routes,
		"trips":    trips,
		"services": serviceDocuments,
	}

	for collectionName, documents := range collections {
		if err := replaceFeedDocuments(collectionName, feedCode, documents); err != nil {
			return err
		}
	}

	if err := ensureIndexes(); err != nil {
		return err
	}

	log.Info().Str("feed", feedCode).Msg("GTFS schedule import complete")

	return nil
}

func replaceFeedDocuments(collectionName string, feedCode string, documents []interface{}) error {
	collection := database.GetCollection(collectionName)

	if _, err := collection.DeleteMany(context.Background(), bson.M{"feedcode": feedCode}); err != nil {
		return err
	}

	for start := 0; start < len(documents); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(documents) {
			end = len(documents)
		}

		if _, err := collection.InsertMany(context.Background(), documents[start:end]); err != nil {
			return err
		}
	}

	log.Info().Str("collection", collectionName).Int("count", len(documents)).Msg("Imported documents")

	return nil
}

func ensureIndexes() error {
	tripIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "feedcode", Value: 1}, {Key: "routeid", Value: 1}, {Key: "stoptimes.stopid", Value: 1}}},
	}
	if _, err := database.GetCollection("trips").Indexes().CreateMany(context.Background(), tripIndexes); err != nil {
		return err
	}

	stopIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "feedcode", Value: 1}, {Key: "stopid", Value: 1}}},
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}, Options: options.Index().SetSphereVersion(3)},
	}
	if _, err := database.GetCollection("stops").Indexes().CreateMany(context.Background(), stopIndexes); err != nil {
		return err
	}

	return nil
}

// parseGTFSTime converts a GTFS HH:MM:SS value into seconds after
// midnight. Hours beyond 24 are legal and mean the next calendar day.
func parseGTFSTime(value string) (int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("malformed gtfs time %q", value)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}

	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}

	seconds, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, err
	}

	return hours*3600 + minutes*60 + seconds, nil
}
