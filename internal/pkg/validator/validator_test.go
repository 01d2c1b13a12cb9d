package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Message string `validate:"required"`
	Mode    string `validate:"omitempty,chatmode"`
}

type layersRequest struct {
	Base     string   `validate:"required,baselayer"`
	Overlays []string `validate:"dive,overlay"`
}

func TestValidate_ChatMode(t *testing.T) {
	assert.NoError(t, Validate(chatRequest{Message: "hi", Mode: "Thinking"}))
	assert.NoError(t, Validate(chatRequest{Message: "hi"}))

	err := Validate(chatRequest{Message: "hi", Mode: "Turbo"})
	require.Error(t, err)
	assert.Equal(t, "chatmode", Fields(err)["Mode"])
}

func TestValidate_Layers(t *testing.T) {
	assert.NoError(t, Validate(layersRequest{Base: "osm", Overlays: []string{"blm", "macrostrat"}}))

	err := Validate(layersRequest{Base: "osm", Overlays: []string{"nope"}})
	require.Error(t, err)
	assert.Contains(t, Fields(err), "Overlays[0]")

	assert.Error(t, Validate(layersRequest{Base: "googleEarth"}))
}
