package domain

// SearchTier - уровень цепочки поиска, давший результат
type SearchTier string

const (
	SearchTierLocal    SearchTier = "local"
	SearchTierAI       SearchTier = "ai"
	SearchTierGeocoder SearchTier = "geocoder"
	SearchTierNone     SearchTier = "none"
)

// Zoom levels applied to the viewport by each tier.
const (
	ZoomLocalMatch    = 15
	ZoomAIMatch       = 14
	ZoomGeocoderMatch = 13
)

// SearchResult - итог глобального поиска.
// Locality заполняется для local и ai, Viewport - для всех, кроме none.
type SearchResult struct {
	Tier     SearchTier `json:"tier"`
	Query    string     `json:"query"`
	Locality *Locality  `json:"locality,omitempty"`
	Viewport *Viewport  `json:"viewport,omitempty"`
}

// Found сообщает, дал ли какой-либо уровень результат
func (r *SearchResult) Found() bool {
	return r.Tier != SearchTierNone
}

// GeocodeResult - ответ геокодера
type GeocodeResult struct {
	Coordinates Coordinates `json:"coordinates"`
	DisplayName string      `json:"display_name"`
}
