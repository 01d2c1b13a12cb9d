package classify

import "github.com/geoclaim/internal/domain"

// Deposit and method tags produced by the mining tables.
const (
	DepositPlacer  = "Placer/Alluvial"
	DepositLode    = "Lode/Vein"
	DepositSurface = "Bulk Surface Deposit"
	DepositBrine   = "Brine/Evaporite"
	DepositInSitu  = "In Situ Locality"

	MethodDredging      = "Dredging"
	MethodSolution      = "Solution Mining"
	MethodSluicing      = "Sluicing/Panning"
	MethodUnderground   = "Underground"
	MethodRoomAndPillar = "Underground (Room-and-Pillar)"
	MethodLongwall      = "Underground (Longwall)"
	MethodBlockCaving   = "Underground (Block Caving)"
	MethodSurface       = "Surface (Open-Pit/Quarry)"
	MethodUnknown       = "Not Specified"

	StatusEstimated = "estimated"
	StatusDirect    = "direct"
)

// explicitTypeRules honours "locality type: <tag>" markers written by the
// data source before any keyword heuristic.
func explicitTypeRules() []Rule {
	rules := make([]Rule, 0, len(domain.AllLocalityTypes))
	for _, t := range domain.AllLocalityTypes {
		rules = append(rules, Rule{
			Tag:      string(t),
			Keywords: []string{"locality type: " + string(t)},
		})
	}
	return rules
}

// LocalityTypeTable is the precedence order for locality types. Records that
// cite mindat are mine records and win over every keyword heuristic.
var LocalityTypeTable = Table{
	Name:    "locality-type",
	Version: 3,
	Rules: append(explicitTypeRules(),
		Rule{Tag: string(domain.LocalityMine), Keywords: []string{"mindat"}},
		Rule{Tag: string(domain.LocalityPaleoBioDB), Keywords: []string{"paleobiodb", "pbdb", "fossil collection"}},
		Rule{Tag: string(domain.LocalityExtraterrestrial), Keywords: []string{"extraterrestrial", "lunar", "martian", "asteroid", "comet"}},
		Rule{Tag: string(domain.LocalityMine), Keywords: []string{"mine", "mines", "quarry", "quarries", "shaft", "adit", "open pit", "diggings", "placer"}},
		Rule{Tag: string(domain.LocalityProspect), Keywords: []string{"prospect", "prospects", "claim", "claims"}},
		Rule{Tag: string(domain.LocalityOccurrence), Keywords: []string{"occurrence", "occurrences", "showing", "mineral locality"}},
		Rule{Tag: string(domain.LocalityFacility), Keywords: []string{"mill", "smelter", "refinery", "concentrator", "processing plant"}},
		Rule{Tag: string(domain.LocalityMuseum), Keywords: []string{"museum"}},
		Rule{Tag: string(domain.LocalitySettlement), Keywords: []string{"settlement", "town", "township", "village", "city", "ghost town"}},
		Rule{Tag: string(domain.LocalityProtected), Keywords: []string{"park", "reserve", "forest", "wilderness", "refuge", "national monument"}},
		Rule{Tag: string(domain.LocalityMeteorite), Keywords: []string{"meteorite", "meteorites", "impact crater", "strewn field"}},
		Rule{Tag: string(domain.LocalityErratic), Keywords: []string{"erratic", "glacial erratic"}},
		Rule{Tag: string(domain.LocalityArtificial), Keywords: []string{"road cut", "roadcut", "railroad cut", "tunnel", "dam", "excavation", "construction site"}},
		Rule{Tag: string(domain.LocalityAdmin), Keywords: []string{"county", "borough", "parish", "district"}},
		Rule{Tag: string(domain.LocalityGeology), Keywords: []string{"formation", "outcrop", "unit", "member", "exposure", "dike", "pluton"}},
		Rule{Tag: string(domain.LocalityGeography), Keywords: []string{"mountain", "mountains", "peak", "ridge", "canyon", "valley", "butte", "mesa", "hill"}},
	),
	Fallback: string(domain.LocalityOther),
}

// DepositTypeTable separates placer from lode deposits.
var DepositTypeTable = Table{
	Name:    "deposit-type",
	Version: 1,
	Rules: []Rule{
		{Tag: DepositPlacer, Keywords: []string{"placer", "alluvial", "gravel", "gravels", "dredge"}},
		{Tag: DepositLode, Keywords: []string{"lode", "vein", "veins", "shaft", "reef", "ledge"}},
		{Tag: DepositSurface, Keywords: []string{"pit", "quarry", "surface", "strip"}},
		{Tag: DepositBrine, Keywords: []string{"brine", "evaporite", "playa"}},
	},
	Fallback: DepositInSitu,
}

// MiningMethodTable separates surface, underground, dredging and solution
// mining, refining underground methods when the text names one. The named
// underground methods are keywords of the parent rule too.
var MiningMethodTable = Table{
	Name:    "mining-method",
	Version: 2,
	Rules: []Rule{
		{Tag: MethodDredging, Keywords: []string{"dredge", "dredging"}},
		{Tag: MethodSolution, Keywords: []string{"in situ leach", "solution mining", "leach", "brine well"}},
		{Tag: MethodSluicing, Keywords: []string{"sluice", "sluicing", "panning", "placer", "alluvial"}},
		{
			Tag:      MethodUnderground,
			Keywords: []string{"underground", "shaft", "adit", "tunnel", "drift", "stope", "lode", "vein",
				"room and pillar", "longwall", "block caving"},
			Refinements: []Rule{
				{Tag: MethodRoomAndPillar, Keywords: []string{"room and pillar"}},
				{Tag: MethodLongwall, Keywords: []string{"longwall"}},
				{Tag: MethodBlockCaving, Keywords: []string{"block caving"}},
			},
		},
		{Tag: MethodSurface, Keywords: []string{"open pit", "pit", "quarry", "strip", "surface"}},
	},
	Fallback: MethodUnknown,
}

// CoordStatusTable flags descriptions that self-report estimated positions.
var CoordStatusTable = Table{
	Name:    "coord-status",
	Version: 1,
	Rules: []Rule{
		{Tag: StatusEstimated, Keywords: []string{"estimated", "approximate", "approximately located", "coordinates approximate"}},
	},
	Fallback: StatusDirect,
}
