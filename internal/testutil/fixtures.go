package testutil

// APODFixture is a trimmed planetary/apod response.
const APODFixture = `{
  "copyright": "Someone",
  "date": "2025-01-01",
  "explanation": "A star-forming region in the Eagle Nebula.",
  "hdurl": "https://apod.nasa.gov/apod/image/2501/pillars_hd.jpg",
  "media_type": "image",
  "service_version": "v1",
  "title": "Pillars of Creation",
  "url": "https://apod.nasa.gov/apod/image/2501/pillars.jpg"
}`

// MarsFixture is a mars-photos response with two photos from sol 1000.
const MarsFixture = `{
  "photos": [
    {
      "id": 102693,
      "sol": 1000,
      "camera": {"id": 20, "name": "FHAZ", "rover_id": 5, "full_name": "Front Hazard Avoidance Camera"},
      "img_src": "http://mars.jpl.nasa.gov/msl-raw-images/proj/msl/redops/ods/surface/sol/01000/opgs/edr/fcam/FLB_486265257EDR_F0481570FHAZ00323M_.JPG",
      "earth_date": "2015-05-30",
      "rover": {"id": 5, "name": "Curiosity", "landing_date": "2012-08-06", "status": "active"}
    },
    {
      "id": 102694,
      "sol": 1000,
      "camera": {"id": 20, "name": "FHAZ", "rover_id": 5, "full_name": "Front Hazard Avoidance Camera"},
      "img_src": "http://mars.jpl.nasa.gov/msl-raw-images/proj/msl/redops/ods/surface/sol/01000/opgs/edr/fcam/FRB_486265257EDR_F0481570FHAZ00323M_.JPG",
      "earth_date": "2015-05-30",
      "rover": {"id": 5, "name": "Curiosity", "landing_date": "2012-08-06", "status": "active"}
    }
  ]
}`

// NeoWsFixture is a neo/rest/v1/feed response spanning two days.
// Dates are deliberately out of order.
const NeoWsFixture = `{
  "element_count": 3,
  "near_earth_objects": {
    "2025-01-02": [
      {
        "id": "3542519",
        "name": "(2010 PK9)",
        "nasa_jpl_url": "https://ssd.jpl.nasa.gov/tools/sbdb_lookup.html#/?sstr=3542519",
        "absolute_magnitude_h": 21.9,
        "estimated_diameter": {"meters": {"estimated_diameter_min": 111.0, "estimated_diameter_max": 248.2}},
        "is_potentially_hazardous_asteroid": true,
        "close_approach_data": [
          {
            "close_approach_date": "2025-01-02",
            "relative_velocity": {"kilometers_per_hour": "88446.4"},
            "miss_distance": {"kilometers": "4524845.2"}
          }
        ]
      }
    ],
    "2025-01-01": [
      {
        "id": "2465633",
        "name": "465633 (2009 JR5)",
        "nasa_jpl_url": "https://ssd.jpl.nasa.gov/tools/sbdb_lookup.html#/?sstr=2465633",
        "absolute_magnitude_h": 20.44,
        "estimated_diameter": {"meters": {"estimated_diameter_min": 219.7, "estimated_diameter_max": 491.2}},
        "is_potentially_hazardous_asteroid": false,
        "close_approach_data": [
          {
            "close_approach_date": "2025-01-01",
            "relative_velocity": {"kilometers_per_hour": "65260.5"},
            "miss_distance": {"kilometers": "45290298.2"}
          }
        ]
      },
      {
        "id": "2000433",
        "name": "433 Eros (A898 PA)",
        "nasa_jpl_url": "https://ssd.jpl.nasa.gov/tools/sbdb_lookup.html#/?sstr=2000433",
        "absolute_magnitude_h": 10.31,
        "estimated_diameter": {"meters": {"estimated_diameter_min": 22006.4, "estimated_diameter_max": 49208.0}},
        "is_potentially_hazardous_asteroid": false,
        "close_approach_data": []
      }
    ]
  }
}`
