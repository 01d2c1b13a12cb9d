package domain

// ChatRole - автор сообщения в чате
type ChatRole string

const (
	RoleUser  ChatRole = "user"
	RoleModel ChatRole = "model"
)

// ChatMode - профиль модели для чата. Только селектор конфигурации
type ChatMode string

const (
	ChatModeNormal   ChatMode = "Normal"
	ChatModeThinking ChatMode = "Thinking"
	ChatModeSearch   ChatMode = "Search"
	ChatModeMaps     ChatMode = "Maps"
	ChatModeFast     ChatMode = "Fast"
)

// AllChatModes - закрытое перечисление режимов
var AllChatModes = []ChatMode{
	ChatModeNormal,
	ChatModeThinking,
	ChatModeSearch,
	ChatModeMaps,
	ChatModeFast,
}

// IsValid проверяет, что режим известен
func (m ChatMode) IsValid() bool {
	for _, known := range AllChatModes {
		if m == known {
			return true
		}
	}
	return false
}

// GroundingLink - ссылка на источник из метаданных grounding
type GroundingLink struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// ChatMessage - сообщение в расшифровке чата
type ChatMessage struct {
	Role           ChatRole        `json:"role"`
	Text           string          `json:"text"`
	Mode           ChatMode        `json:"mode,omitempty"`
	GroundingLinks []GroundingLink `json:"grounding_links,omitempty"`
}

// FunctionCall - вызов функции, запрошенный моделью
type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// Hazard - отдельная опасность на объекте
type Hazard struct {
	Name        string `json:"name"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// SiteSafety - сводка по безопасности объекта
type SiteSafety struct {
	HazardLevel    string   `json:"hazard_level"`
	Hazards        []Hazard `json:"hazards"`
	Precautions    []string `json:"precautions"`
	EmergencyNotes string   `json:"emergency_notes"`
}

// SiteWeather - текущая погода у объекта
type SiteWeather struct {
	Summary      string   `json:"summary"`
	TemperatureC float64  `json:"temperature_c"`
	Conditions   string   `json:"conditions"`
	Wind         string   `json:"wind"`
	BestSeason   string   `json:"best_season"`
	Alerts       []string `json:"alerts"`
}

// SiteVideo - видеоматериал по объекту
type SiteVideo struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Channel     string `json:"channel"`
	Description string `json:"description"`
}

// MineralSpecimen - минерал или окаменелость, найденные на объекте
type MineralSpecimen struct {
	Name        string `json:"name"`
	Formula     string `json:"formula"`
	Description string `json:"description"`
	Rarity      string `json:"rarity"`
	ImageURL    string `json:"image_url,omitempty"`
}

// LandStatus - результат проверки земельного статуса (BLM SMA)
type LandStatus struct {
	Text           string          `json:"text"`
	GroundingLinks []GroundingLink `json:"grounding_links"`
}

// Elevation - высота над уровнем моря
type Elevation struct {
	Meters float64 `json:"meters"`
}
