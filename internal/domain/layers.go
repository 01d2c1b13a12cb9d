package domain

// TileLayer - слой тайлов, потребляемый картографической библиотекой клиента
type TileLayer struct {
	Key     string  `json:"key"`
	Name    string  `json:"name"`
	URL     string  `json:"url"`
	Opacity float64 `json:"opacity,omitempty"`
}

// LegendItem - элемент легенды для типа локации
type LegendItem struct {
	Type  LocalityType `json:"type"`
	Label string       `json:"label"`
	Glyph string       `json:"glyph"`
}

// DefaultBaseLayer и DefaultOverlays - начальное состояние карты новой сессии
const DefaultBaseLayer = "osm"

var DefaultOverlays = []string{"blm"}

// BaseLayers - каталог базовых слоёв
var BaseLayers = []TileLayer{
	{Key: "osm", Name: "OpenStreetMap", URL: "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"},
	{Key: "osmDe", Name: "OpenStreetMap.de", URL: "https://{s}.tile.openstreetmap.de/tiles/osmde/{z}/{x}/{y}.png"},
	{Key: "esriTopo", Name: "Esri WorldTopo", URL: "https://server.arcgisonline.com/ArcGIS/rest/services/World_Topo_Map/MapServer/tile/{z}/{y}/{x}"},
	{Key: "esriNatGeo", Name: "Esri NatGeo", URL: "https://server.arcgisonline.com/ArcGIS/rest/services/NatGeo_World_Map/MapServer/tile/{z}/{y}/{x}"},
	{Key: "esriDeLorme", Name: "Esri DeLorme", URL: "https://server.arcgisonline.com/ArcGIS/rest/services/Specialty/DeLorme_World_Base_Map/MapServer/tile/{z}/{y}/{x}"},
	{Key: "openTopo", Name: "OpenTopoMap", URL: "https://{s}.tile.opentopomap.org/{z}/{x}/{y}.png"},
	{Key: "esriOcean", Name: "Esri Ocean", URL: "https://server.arcgisonline.com/ArcGIS/rest/services/Ocean/World_Ocean_Base/MapServer/tile/{z}/{y}/{x}"},
	{Key: "esriSat", Name: "Esri Satellite", URL: "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}"},
	{Key: "usgsTopo", Name: "USGS Topo", URL: "https://basemap.nationalmap.gov/arcgis/rest/services/USGSTopo/MapServer/tile/{z}/{y}/{x}"},
	{Key: "nasaNight", Name: "NASA Earth at Night", URL: "https://map1.vis.earthdata.nasa.gov/wmts-webmerc/VIIRS_CityLights_2012/default/GoogleMapsCompatible_Level8/{z}/{y}/{x}.jpg"},
}

// Overlays - каталог накладываемых слоёв
var Overlays = []TileLayer{
	{Key: "blm", Name: "BLM Land Status", URL: "https://tiles.arcgis.com/tiles/v01bP9833re8Fv9B/arcgis/rest/services/Surface_Management_Agency/MapServer/tile/{z}/{y}/{x}", Opacity: 0.7},
	{Key: "macrostrat", Name: "Macrostrat Geology", URL: "https://tiles.macrostrat.org/carto/{z}/{x}/{y}.png", Opacity: 0.7},
	{Key: "hikeBike", Name: "HikeBike HillShading", URL: "https://tiles.wmflabs.org/hillshading/{z}/{x}/{y}.png", Opacity: 0.7},
	{Key: "volcanoes", Name: "GVP Volcanoes", URL: "https://tiles.arcgis.com/tiles/C8EMgrsFcRFL6LrL/arcgis/rest/services/Global_Volcanism_Program_Volcanoes/MapServer/tile/{z}/{y}/{x}", Opacity: 0.7},
	{Key: "museums", Name: "Museum Locations (OSM)", URL: "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png", Opacity: 0.5},
}

// Legend - подписи и иконки типов локаций
var Legend = []LegendItem{
	{Type: LocalityMine, Label: "Mines", Glyph: "fa-hammer"},
	{Type: LocalityProspect, Label: "Prospects", Glyph: "fa-magnifying-glass"},
	{Type: LocalityOccurrence, Label: "Mineral Occurrence", Glyph: "fa-gem"},
	{Type: LocalityFacility, Label: "Mill / Smelter", Glyph: "fa-industry"},
	{Type: LocalityGeography, Label: "Geography", Glyph: "fa-mountain"},
	{Type: LocalityGeology, Label: "Geology", Glyph: "fa-layer-group"},
	{Type: LocalityAdmin, Label: "Admin", Glyph: "fa-shield-halved"},
	{Type: LocalitySettlement, Label: "Settlement", Glyph: "fa-house-chimney"},
	{Type: LocalityProtected, Label: "Protected Area", Glyph: "fa-tree"},
	{Type: LocalityMeteorite, Label: "Meteorite Site", Glyph: "fa-meteor"},
	{Type: LocalityErratic, Label: "Glacial Erratic", Glyph: "fa-cube"},
	{Type: LocalityExtraterrestrial, Label: "Space Locality", Glyph: "fa-user-astronaut"},
	{Type: LocalityArtificial, Label: "Artificial Exposure", Glyph: "fa-road"},
	{Type: LocalityPaleoBioDB, Label: "Research/Fossil", Glyph: "fa-microscope"},
	{Type: LocalityMuseum, Label: "Museum", Glyph: "fa-landmark"},
	{Type: LocalityOther, Label: "Other", Glyph: "fa-location-dot"},
}

// FindBaseLayer ищет базовый слой по ключу
func FindBaseLayer(key string) (TileLayer, bool) {
	return findLayer(BaseLayers, key)
}

// FindOverlay ищет накладываемый слой по ключу
func FindOverlay(key string) (TileLayer, bool) {
	return findLayer(Overlays, key)
}

func findLayer(layers []TileLayer, key string) (TileLayer, bool) {
	for _, l := range layers {
		if l.Key == key {
			return l, true
		}
	}
	return TileLayer{}, false
}
