package tools

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const maxCityLength = 100

// WeatherRecord is a mock observation; no real weather service is queried.
type WeatherRecord struct {
	City        string
	Temperature int // °C
	Condition   string
	Humidity    int // %
	RetrievedAt time.Time
}

func (w WeatherRecord) String() string {
	return fmt.Sprintf("Weather for %s:\nTemperature: %d°C\nCondition: %s\nHumidity: %d%%\nRetrieved at: %s",
		w.City, w.Temperature, w.Condition, w.Humidity, w.RetrievedAt.Format("2006-01-02 15:04:05"))
}

type weatherSample struct {
	temperature int
	condition   string
	humidity    int
}

var knownWeather = map[string]weatherSample{
	"tokyo":   {25, "sunny", 60},
	"osaka":   {28, "cloudy", 70},
	"kyoto":   {24, "rain", 80},
	"東京":      {25, "sunny", 60},
	"大阪":      {28, "cloudy", 70},
	"京都":      {24, "rain", 80},
	"sapporo": {12, "snow", 75},
	"fukuoka": {26, "partly cloudy", 65},
}

var syntheticConditions = []string{"sunny", "partly cloudy", "cloudy", "rain", "thunderstorm", "fog"}

// lookupWeather returns a deterministic record for city. Unknown cities get
// values derived from a hash of the normalized name, so the same city always
// reports the same weather.
func lookupWeather(city string, now time.Time) (WeatherRecord, error) {
	city = strings.TrimSpace(city)
	if err := validateCity(city); err != nil {
		return WeatherRecord{}, err
	}

	key := strings.ToLower(city)
	sample, ok := knownWeather[key]
	if !ok {
		h := fnv.New32a()
		h.Write([]byte(key))
		sum := h.Sum32()
		sample = weatherSample{
			temperature: int(sum%41) - 5,
			condition:   syntheticConditions[(sum>>8)%uint32(len(syntheticConditions))],
			humidity:    30 + int((sum>>16)%61),
		}
	}

	return WeatherRecord{
		City:        displayCity(city),
		Temperature: sample.temperature,
		Condition:   sample.condition,
		Humidity:    sample.humidity,
		RetrievedAt: now,
	}, nil
}

func validateCity(city string) error {
	invalid := func(reason string) error {
		return &ToolArgumentError{Tool: NameWeather, Argument: "city", Reason: reason}
	}
	if city == "" {
		return invalid("city must not be empty")
	}
	if !utf8.ValidString(city) {
		return invalid("city is not valid UTF-8")
	}
	if utf8.RuneCountInString(city) > maxCityLength {
		return invalid(fmt.Sprintf("city must be at most %d characters", maxCityLength))
	}
	for _, r := range city {
		if unicode.IsControl(r) {
			return invalid("city contains control characters")
		}
	}
	return nil
}

// displayCity capitalizes the first letter of latin names ("tokyo" -> "Tokyo").
func displayCity(city string) string {
	r, size := utf8.DecodeRuneInString(city)
	return string(unicode.ToUpper(r)) + strings.ToLower(city[size:])
}
