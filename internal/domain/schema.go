package domain

// SourceSchema maps logical detection fields to CSV column positions for one
// sensor family. Platform is optional; a negative index means absent.
type SourceSchema struct {
	Latitude   int
	Longitude  int
	Brightness int
	Date       int
	Time       int
	Platform   int
	Confidence int
}

var schemas = map[Sensor]SourceSchema{
	SensorMODIS: {Latitude: 0, Longitude: 1, Brightness: 2, Date: 5, Time: 6, Platform: 7, Confidence: 8},
	SensorVIIRS: {Latitude: 0, Longitude: 1, Brightness: 2, Date: 5, Time: 6, Platform: 7, Confidence: 9},
}

// SchemaFor returns the column layout for a sensor.
func SchemaFor(sensor Sensor) (SourceSchema, bool) {
	s, ok := schemas[sensor]
	return s, ok
}

// MinColumns is the smallest row width that covers every mapped column.
func (s SourceSchema) MinColumns() int {
	highest := 0
	for _, idx := range []int{s.Latitude, s.Longitude, s.Brightness, s.Date, s.Time, s.Platform, s.Confidence} {
		if idx > highest {
			highest = idx
		}
	}
	return highest + 1
}

// platformNames expands FIRMS satellite codes.
var platformNames = map[string]string{
	"T": "Terra",
	"A": "Aqua",
	"N": "Suomi NPP",
	"1": "NOAA-20",
	"2": "NOAA-21",
}

func platformName(code string) string {
	if name, ok := platformNames[code]; ok {
		return name
	}
	return code
}
