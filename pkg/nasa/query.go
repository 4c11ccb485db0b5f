package nasa

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/nasa-api-proxy/pkg/cache"
)

// ErrInvalidQuery is returned for query parameters the origin would reject.
var ErrInvalidQuery = errors.New("invalid query")

const dateLayout = "2006-01-02"

// MaxNeoWsRange is the longest date range the NeoWs feed accepts.
const MaxNeoWsRange = 7 * 24 * time.Hour

var cameraPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// Cache keys and key parts.
const (
	keyAPOD       = "apod_data"
	resourceMars  = "mars"
	resourceNeoWs = "neows"
)

// APODKey is the cache key of the picture of the day.
func APODKey() string {
	return keyAPOD
}

// MarsQuery selects Mars rover photos. All fields are optional.
type MarsQuery struct {
	// Sol is the Martian day; nil when absent (0 is a valid sol).
	Sol *int

	// EarthDate is YYYY-MM-DD.
	EarthDate string

	// Camera abbreviation such as FHAZ or NAVCAM (case insensitive).
	Camera string
}

// ParseMarsQuery builds a MarsQuery from request parameters.
func ParseMarsQuery(values url.Values) (MarsQuery, error) {
	var q MarsQuery

	if raw := strings.TrimSpace(values.Get("sol")); raw != "" {
		sol, err := strconv.Atoi(raw)
		if err != nil {
			return MarsQuery{}, fmt.Errorf("%w: sol %q is not an integer", ErrInvalidQuery, raw)
		}
		q.Sol = &sol
	}
	q.EarthDate = strings.TrimSpace(values.Get("earth_date"))
	q.Camera = strings.TrimSpace(values.Get("camera"))

	return q.Normalize()
}

// Normalize validates the query and upper-cases the camera.
func (q MarsQuery) Normalize() (MarsQuery, error) {
	if q.Sol != nil && *q.Sol < 0 {
		return MarsQuery{}, fmt.Errorf("%w: sol must not be negative (got %d)", ErrInvalidQuery, *q.Sol)
	}
	if q.EarthDate != "" {
		if _, err := time.Parse(dateLayout, q.EarthDate); err != nil {
			return MarsQuery{}, fmt.Errorf("%w: earth_date %q is not YYYY-MM-DD", ErrInvalidQuery, q.EarthDate)
		}
	}
	if q.Camera != "" {
		if !cameraPattern.MatchString(q.Camera) {
			return MarsQuery{}, fmt.Errorf("%w: camera %q", ErrInvalidQuery, q.Camera)
		}
		q.Camera = strings.ToUpper(q.Camera)
	}
	return q, nil
}

// Key derives the cache key, e.g. mars_1000_all or mars_2015-05-30_FHAZ.
// A query carrying both sol and earth_date keeps both parts.
func (q MarsQuery) Key() string {
	parts := make([]string, 0, 3)
	switch {
	case q.Sol != nil:
		parts = append(parts, strconv.Itoa(*q.Sol))
		if q.EarthDate != "" {
			parts = append(parts, q.EarthDate)
		}
	case q.EarthDate != "":
		parts = append(parts, q.EarthDate)
	default:
		parts = append(parts, "latest")
	}

	camera := q.Camera
	if camera == "" {
		camera = "all"
	}
	parts = append(parts, camera)

	return cache.NewKey(resourceMars, parts...).String()
}

// Params returns the origin query parameters.
func (q MarsQuery) Params() url.Values {
	params := url.Values{}
	if q.Sol != nil {
		params.Set("sol", strconv.Itoa(*q.Sol))
	}
	if q.EarthDate != "" {
		params.Set("earth_date", q.EarthDate)
	}
	if q.Camera != "" {
		params.Set("camera", strings.ToLower(q.Camera))
	}
	return params
}

// NeoWsQuery selects a NeoWs feed window. Both dates are optional.
type NeoWsQuery struct {
	StartDate string
	EndDate   string
}

// ParseNeoWsQuery builds a NeoWsQuery from request parameters.
func ParseNeoWsQuery(values url.Values) (NeoWsQuery, error) {
	q := NeoWsQuery{
		StartDate: strings.TrimSpace(values.Get("start_date")),
		EndDate:   strings.TrimSpace(values.Get("end_date")),
	}
	return q, q.Validate()
}

// Validate checks date formats and the window length.
func (q NeoWsQuery) Validate() error {
	var start, end time.Time
	var err error

	if q.StartDate != "" {
		if start, err = time.Parse(dateLayout, q.StartDate); err != nil {
			return fmt.Errorf("%w: start_date %q is not YYYY-MM-DD", ErrInvalidQuery, q.StartDate)
		}
	}
	if q.EndDate != "" {
		if end, err = time.Parse(dateLayout, q.EndDate); err != nil {
			return fmt.Errorf("%w: end_date %q is not YYYY-MM-DD", ErrInvalidQuery, q.EndDate)
		}
	}
	if q.StartDate != "" && q.EndDate != "" {
		if end.Before(start) {
			return fmt.Errorf("%w: end_date %s is before start_date %s", ErrInvalidQuery, q.EndDate, q.StartDate)
		}
		if end.Sub(start) > MaxNeoWsRange {
			return fmt.Errorf("%w: date range exceeds 7 days", ErrInvalidQuery)
		}
	}
	return nil
}

// Key derives the cache key, e.g. neows_2025-01-01_2025-01-02.
func (q NeoWsQuery) Key() string {
	start := q.StartDate
	if start == "" {
		start = "default"
	}
	end := q.EndDate
	if end == "" {
		end = "today"
	}
	return cache.NewKey(resourceNeoWs, start, end).String()
}

// Params returns the origin query parameters.
func (q NeoWsQuery) Params() url.Values {
	params := url.Values{}
	if q.StartDate != "" {
		params.Set("start_date", q.StartDate)
	}
	if q.EndDate != "" {
		params.Set("end_date", q.EndDate)
	}
	return params
}
