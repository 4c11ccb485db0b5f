package nasa

import (
	"sort"
)

func projectAPOD(w apodWire) APOD {
	return APOD{
		Date:        w.Date,
		Title:       w.Title,
		URL:         w.URL,
		Explanation: w.Explanation,
		MediaType:   w.MediaType,
	}
}

func projectPhotos(w marsWire) []Photo {
	photos := make([]Photo, 0, len(w.Photos))
	for _, p := range w.Photos {
		photos = append(photos, Photo{
			ID:        p.ID,
			Sol:       p.Sol,
			ImgSrc:    p.ImgSrc,
			EarthDate: p.EarthDate,
			Camera:    p.Camera.FullName,
			Rover:     p.Rover.Name,
		})
	}
	return photos
}

// projectNeoWs flattens the per-date map, ordered by date then id.
func projectNeoWs(w neowsWire) []NearEarthObject {
	dates := make([]string, 0, len(w.NearEarthObjects))
	for date := range w.NearEarthObjects {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	objects := make([]NearEarthObject, 0)
	for _, date := range dates {
		day := w.NearEarthObjects[date]
		start := len(objects)
		for _, o := range day {
			neo := NearEarthObject{
				ID:                             o.ID,
				Name:                           o.Name,
				NasaJPLURL:                     o.NasaJPLURL,
				AbsoluteMagnitudeH:             o.AbsoluteMagnitudeH,
				IsPotentiallyHazardousAsteroid: o.IsPotentiallyHazardousAsteroid,
				EstimatedDiameterM:             o.EstimatedDiameter.Meters.EstimatedDiameterMax,
			}
			if len(o.CloseApproachData) > 0 {
				approach := o.CloseApproachData[0]
				neo.CloseApproachDate = approach.CloseApproachDate
				neo.RelativeVelocityKPH = approach.RelativeVelocity.KilometersPerHour
				neo.MissDistanceKM = approach.MissDistance.Kilometers
			}
			objects = append(objects, neo)
		}
		sort.SliceStable(objects[start:], func(i, j int) bool {
			return objects[start+i].ID < objects[start+j].ID
		})
	}
	return objects
}
