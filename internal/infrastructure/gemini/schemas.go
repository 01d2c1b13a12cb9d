package gemini

import "google.golang.org/genai"

func str(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc}
}

func num(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeNumber, Description: desc}
}

func object(required []string, props map[string]*genai.Schema) *genai.Schema {
	return &genai.Schema{Type: genai.TypeObject, Properties: props, Required: required}
}

func arrayOf(items *genai.Schema) *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: items}
}

// SafetySchema - форма domain.SiteSafety
func SafetySchema() *Schema {
	return object(
		[]string{"hazard_level", "hazards", "precautions"},
		map[string]*genai.Schema{
			"hazard_level": {Type: genai.TypeString, Enum: []string{"Low", "Moderate", "High", "Extreme"}},
			"hazards": arrayOf(object(
				[]string{"name", "severity", "description"},
				map[string]*genai.Schema{
					"name":        str("Short hazard name, e.g. open shaft"),
					"severity":    str("Low, Moderate, High or Extreme"),
					"description": str("Why it is dangerous at this site"),
				},
			)),
			"precautions":     arrayOf(str("One precaution")),
			"emergency_notes": str("Nearest help, cell coverage, access notes"),
		},
	)
}

// WeatherSchema - форма domain.SiteWeather
func WeatherSchema() *Schema {
	return object(
		[]string{"summary", "temperature_c", "conditions"},
		map[string]*genai.Schema{
			"summary":       str("One or two sentences on current conditions"),
			"temperature_c": num("Current temperature in Celsius"),
			"conditions":    str("Sky and precipitation"),
			"wind":          str("Wind speed and direction"),
			"best_season":   str("Best months to visit this terrain"),
			"alerts":        arrayOf(str("Active weather alert")),
		},
	)
}

// VideosSchema - форма []domain.SiteVideo
func VideosSchema() *Schema {
	return arrayOf(object(
		[]string{"title", "url"},
		map[string]*genai.Schema{
			"title":       str("Video title"),
			"url":         str("Full YouTube URL"),
			"channel":     str("Channel name"),
			"description": str("What the video shows"),
		},
	))
}

// MineralsSchema - форма []domain.MineralSpecimen
func MineralsSchema() *Schema {
	return arrayOf(object(
		[]string{"name", "description"},
		map[string]*genai.Schema{
			"name":        str("Mineral species name"),
			"formula":     str("Chemical formula"),
			"description": str("Habit and occurrence at this site"),
			"rarity":      str("Common, Uncommon, Rare or Very Rare"),
		},
	))
}

// LocationSchema - ответ уровня ai глобального поиска
func LocationSchema() *Schema {
	return object(
		[]string{"lat", "lng", "name"},
		map[string]*genai.Schema{
			"lat":         num("Latitude in decimal degrees"),
			"lng":         num("Longitude in decimal degrees"),
			"name":        str("Resolved place name"),
			"description": str("Brief description"),
			"type":        {Type: genai.TypeString, Enum: []string{"mine", "settlement", "admin"}},
		},
	)
}
