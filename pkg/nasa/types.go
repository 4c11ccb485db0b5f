package nasa

// APOD is the projected Astronomy Picture of the Day.
type APOD struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Explanation string `json:"explanation"`
	MediaType   string `json:"media_type"`
}

// Photo is a projected Mars rover photo.
type Photo struct {
	ID        int    `json:"id"`
	Sol       int    `json:"sol"`
	ImgSrc    string `json:"img_src"`
	EarthDate string `json:"earth_date"`
	Camera    string `json:"camera"`
	Rover     string `json:"rover"`
}

// NearEarthObject is a flattened NeoWs feed entry.
// Close approach fields come from the first approach and are empty when
// none is listed.
type NearEarthObject struct {
	ID                             string  `json:"id"`
	Name                           string  `json:"name"`
	NasaJPLURL                     string  `json:"nasa_jpl_url"`
	AbsoluteMagnitudeH             float64 `json:"absolute_magnitude_h"`
	IsPotentiallyHazardousAsteroid bool    `json:"is_potentially_hazardous_asteroid"`
	EstimatedDiameterM             float64 `json:"estimated_diameter_m"`
	CloseApproachDate              string  `json:"close_approach_date,omitempty"`
	RelativeVelocityKPH            string  `json:"relative_velocity_kph,omitempty"`
	MissDistanceKM                 string  `json:"miss_distance_km,omitempty"`
}

// Wire formats of the origin responses. Only projected fields are decoded.

type apodWire struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Explanation string `json:"explanation"`
	MediaType   string `json:"media_type"`
}

type marsWire struct {
	Photos []struct {
		ID     int    `json:"id"`
		Sol    int    `json:"sol"`
		ImgSrc string `json:"img_src"`
		Camera struct {
			FullName string `json:"full_name"`
		} `json:"camera"`
		EarthDate string `json:"earth_date"`
		Rover     struct {
			Name string `json:"name"`
		} `json:"rover"`
	} `json:"photos"`
}

type neoWire struct {
	ID                             string  `json:"id"`
	Name                           string  `json:"name"`
	NasaJPLURL                     string  `json:"nasa_jpl_url"`
	AbsoluteMagnitudeH             float64 `json:"absolute_magnitude_h"`
	IsPotentiallyHazardousAsteroid bool    `json:"is_potentially_hazardous_asteroid"`
	EstimatedDiameter              struct {
		Meters struct {
			EstimatedDiameterMax float64 `json:"estimated_diameter_max"`
		} `json:"meters"`
	} `json:"estimated_diameter"`
	CloseApproachData []struct {
		CloseApproachDate string `json:"close_approach_date"`
		RelativeVelocity  struct {
			KilometersPerHour string `json:"kilometers_per_hour"`
		} `json:"relative_velocity"`
		MissDistance struct {
			Kilometers string `json:"kilometers"`
		} `json:"miss_distance"`
	} `json:"close_approach_data"`
}

type neowsWire struct {
	NearEarthObjects map[string][]neoWire `json:"near_earth_objects"`
}
