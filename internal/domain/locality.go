package domain

// LocalityType - тип локации, ровно один на локацию
type LocalityType string

const (
	LocalityMine             LocalityType = "mine"
	LocalityProspect         LocalityType = "prospect"
	LocalityOccurrence       LocalityType = "occurrence"
	LocalityFacility         LocalityType = "facility"
	LocalityGeography        LocalityType = "geography"
	LocalityGeology          LocalityType = "geology"
	LocalityAdmin            LocalityType = "admin"
	LocalitySettlement       LocalityType = "settlement"
	LocalityProtected        LocalityType = "protected"
	LocalityMeteorite        LocalityType = "meteorite"
	LocalityErratic          LocalityType = "erratic"
	LocalityExtraterrestrial LocalityType = "extraterrestrial"
	LocalityArtificial       LocalityType = "artificial"
	LocalityPaleoBioDB       LocalityType = "paleobiodb"
	LocalityMuseum           LocalityType = "museum"
	LocalityOther            LocalityType = "other"
)

// AllLocalityTypes - закрытое перечисление в порядке легенды карты
var AllLocalityTypes = []LocalityType{
	LocalityMine,
	LocalityProspect,
	LocalityOccurrence,
	LocalityFacility,
	LocalityGeography,
	LocalityGeology,
	LocalityAdmin,
	LocalitySettlement,
	LocalityProtected,
	LocalityMeteorite,
	LocalityErratic,
	LocalityExtraterrestrial,
	LocalityArtificial,
	LocalityPaleoBioDB,
	LocalityMuseum,
	LocalityOther,
}

// IsValid проверяет, что тип входит в перечисление
func (t LocalityType) IsValid() bool {
	for _, known := range AllLocalityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsMineLike - типы, для которых определяются метод добычи и тип месторождения
func (t LocalityType) IsMineLike() bool {
	return t == LocalityMine || t == LocalityProspect || t == LocalityOccurrence
}

// CoordStatus - происхождение координат
type CoordStatus string

const (
	StatusDirect    CoordStatus = "direct"
	StatusEstimated CoordStatus = "estimated"
	StatusHighlight CoordStatus = "highlight"
)

// Defaults used by clients when the optional mining fields are absent.
const (
	MiningMethodUnknown = "Not Specified"
	DepositTypeUnknown  = "Historical"
)

// Coordinates - точка в градусах
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Locality - точка интереса, полученная из одного KML Placemark
type Locality struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Coordinates  Coordinates  `json:"coordinates"`
	Type         LocalityType `json:"type"`
	Status       CoordStatus  `json:"status"`
	MiningMethod *string      `json:"mining_method,omitempty"`
	DepositType  *string      `json:"deposit_type,omitempty"`
}

// MiningMethodOrDefault возвращает метод добычи или значение по умолчанию
func (l *Locality) MiningMethodOrDefault() string {
	if l.MiningMethod == nil || *l.MiningMethod == "" {
		return MiningMethodUnknown
	}
	return *l.MiningMethod
}

// DepositTypeOrDefault возвращает тип месторождения или значение по умолчанию
func (l *Locality) DepositTypeOrDefault() string {
	if l.DepositType == nil || *l.DepositType == "" {
		return DepositTypeUnknown
	}
	return *l.DepositType
}

// BoundingBox - прямоугольник для фильтрации локаций
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// Contains проверяет попадание точки в прямоугольник
func (b BoundingBox) Contains(c Coordinates) bool {
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat &&
		c.Lng >= b.MinLng && c.Lng <= b.MaxLng
}

// Viewport - положение карты клиента
type Viewport struct {
	Center Coordinates `json:"center"`
	Zoom   int         `json:"zoom"`
}
