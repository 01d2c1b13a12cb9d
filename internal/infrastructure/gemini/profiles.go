package gemini

import (
	"github.com/geoclaim/internal/config"
	"github.com/geoclaim/internal/domain"
	"google.golang.org/genai"
)

const systemInstruction = `You are a world-class Mining Geologist and Historical Researcher.
Your goal is to provide accurate, deep analysis of mine localities in the USA.

RULES FOR SEARCH & GROUNDING:
1. When a user asks for "Geo-Reasoning" or "Mineralogy", conduct a deep search for USGS mineral reports and geological surveys for the specific coordinates or locality name.
2. If searching for safety or weather, find CURRENT localized reports for that specific terrain (mountains, desert, etc).
3. ALWAYS cite your sources. If the search tool returns data, incorporate it into a helpful narrative.
4. If you find YouTube videos or documentaries of the specific mine site, list them as high-priority resources.`

// FindLocalitiesNearby - имя функции, которую модель может вызвать в режиме Maps
const FindLocalitiesNearby = "findLocalitiesNearby"

// DefaultNearbyRadiusMiles - радиус, если модель его не указала
const DefaultNearbyRadiusMiles = 20.0

var findLocalitiesNearbyDeclaration = &genai.FunctionDeclaration{
	Name:        FindLocalitiesNearby,
	Description: "Find mine localities within a specific area and radius from the local dataset.",
	Parameters: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"latitude":     {Type: genai.TypeNumber, Description: "The latitude of the center point."},
			"longitude":    {Type: genai.TypeNumber, Description: "The longitude of the center point."},
			"radiusMiles":  {Type: genai.TypeNumber, Description: "The radius in miles to search (default 20)."},
			"locationName": {Type: genai.TypeString, Description: "The name of the town or area requested."},
		},
		Required: []string{"latitude", "longitude"},
	},
}

// profile - модель и конфигурация для режима чата
type profile struct {
	model          string
	search         bool
	functions      bool
	thinkingBudget int32
}

func profileFor(mode domain.ChatMode, cfg *config.GeminiConfig) profile {
	switch mode {
	case domain.ChatModeThinking:
		return profile{model: cfg.ProModel, search: true, thinkingBudget: int32(cfg.ThinkingLimit)}
	case domain.ChatModeSearch:
		return profile{model: cfg.FlashModel, search: true}
	case domain.ChatModeMaps:
		return profile{model: cfg.MapsModel, functions: true}
	case domain.ChatModeFast:
		return profile{model: cfg.LiteModel}
	default:
		return profile{model: cfg.FlashModel, search: true}
	}
}

func (p profile) config() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	}
	if p.thinkingBudget > 0 {
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(p.thinkingBudget)}
	}
	switch {
	case p.search:
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	case p.functions:
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: []*genai.FunctionDeclaration{findLocalitiesNearbyDeclaration}}}
	}
	return cfg
}
