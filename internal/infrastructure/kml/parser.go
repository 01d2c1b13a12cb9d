package kml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/geoclaim/internal/classify"
	"github.com/geoclaim/internal/domain"
)

// Parser превращает KML документ в список локаций
type Parser struct {
	idPrefix   string
	classifier *classify.LocalityClassifier
}

// NewParser создает новый Parser. idPrefix используется для ID вида "<prefix>-<index>"
func NewParser(idPrefix string, classifier *classify.LocalityClassifier) *Parser {
	if idPrefix == "" {
		idPrefix = "loc"
	}
	if classifier == nil {
		classifier = classify.NewLocalityClassifier()
	}
	return &Parser{
		idPrefix:   idPrefix,
		classifier: classifier,
	}
}

// placemark - сырые поля одного Placemark
type placemark struct {
	index       int
	name        string
	hasName     bool
	description string
	descInner   string
	hasDesc     bool
	coordinates string
	hasCoords   bool
}

// Parse читает весь документ и возвращает локации в порядке документа.
// Placemark без валидных координат пропускается; ошибка XML прерывает разбор целиком.
func (p *Parser) Parse(r io.Reader) ([]domain.Locality, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read kml: %w", err)
	}
	return p.ParseBytes(data)
}

// ParseBytes - Parse для документа, уже загруженного в память
func (p *Parser) ParseBytes(data []byte) ([]domain.Locality, error) {
	placemarks, err := scanPlacemarks(data)
	if err != nil {
		return nil, err
	}

	localities := make([]domain.Locality, 0, len(placemarks))
	for _, pm := range placemarks {
		loc, ok := p.toLocality(pm)
		if !ok {
			continue
		}
		localities = append(localities, loc)
	}
	return localities, nil
}

func (p *Parser) toLocality(pm placemark) (domain.Locality, bool) {
	lat, lng, ok := parseFirstCoordinate(pm.coordinates)
	if !pm.hasCoords || !ok {
		return domain.Locality{}, false
	}

	name := strings.TrimSpace(pm.name)
	if name == "" {
		name = fmt.Sprintf("Locality %d", pm.index)
	}

	description := strings.TrimSpace(pm.description)
	if description == "" {
		description = strings.TrimSpace(pm.descInner)
	}

	cls := p.classifier.Classify(name, description)

	return domain.Locality{
		ID:           fmt.Sprintf("%s-%d", p.idPrefix, pm.index),
		Name:         name,
		Description:  description,
		Coordinates:  domain.Coordinates{Lat: lat, Lng: lng},
		Type:         cls.Type,
		Status:       cls.Status,
		MiningMethod: cls.MiningMethod,
		DepositType:  cls.DepositType,
	}, true
}

// parseFirstCoordinate берёт первый кортеж "lng,lat[,alt]".
// Линии и полигоны сводятся к их первой точке.
func parseFirstCoordinate(raw string) (lat, lng float64, ok bool) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return 0, 0, false
	}

	parts := strings.Split(fields[0], ",")
	if len(parts) < 2 {
		return 0, 0, false
	}

	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || math.IsNaN(lng) || math.IsInf(lng, 0) {
		return 0, 0, false
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || math.IsNaN(lat) || math.IsInf(lat, 0) {
		return 0, 0, false
	}
	return lat, lng, true
}

// scanPlacemarks проходит по токенам документа и собирает Placemark на любой глубине.
// Для каждого поля берётся первый потомок с нужным локальным именем, как
// getElementsByTagName(...)[0]; пространства имён игнорируются.
func scanPlacemarks(data []byte) ([]placemark, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	// строгий режим: неправильно сформированный документ отклоняется целиком.
	// HTML-сущности вроде &nbsp; вне CDATA при этом распознаются
	dec.Strict = true
	dec.Entity = xml.HTMLEntity

	var (
		result  []placemark
		current *placemark
		index   int
		depth   int // глубина относительно текущего Placemark

		field      string // name | description | coordinates
		fieldDepth int
		text       strings.Builder
		innerStart int64
	)

	for {
		before := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse kml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if current == nil {
				if t.Name.Local == "Placemark" {
					current = &placemark{index: index}
					index++
					depth = 0
				}
				continue
			}

			depth++
			if field != "" {
				continue
			}
			switch t.Name.Local {
			case "name":
				if !current.hasName {
					field, fieldDepth = "name", depth
				}
			case "description":
				if !current.hasDesc {
					field, fieldDepth = "description", depth
					innerStart = dec.InputOffset()
				}
			case "coordinates":
				if !current.hasCoords {
					field, fieldDepth = "coordinates", depth
				}
			}
			if field != "" {
				text.Reset()
			}

		case xml.EndElement:
			if current == nil {
				continue
			}
			if depth == 0 {
				// конец Placemark
				result = append(result, *current)
				current = nil
				field = ""
				continue
			}

			if field != "" && depth == fieldDepth {
				switch field {
				case "name":
					current.name = text.String()
					current.hasName = true
				case "description":
					current.description = text.String()
					if before >= innerStart && before <= int64(len(data)) {
						current.descInner = string(data[innerStart:before])
					}
					current.hasDesc = true
				case "coordinates":
					current.coordinates = text.String()
					current.hasCoords = true
				}
				field = ""
			}
			depth--

		case xml.CharData:
			if current != nil && field != "" {
				text.Write(t)
			}
		}
	}

	return result, nil
}
