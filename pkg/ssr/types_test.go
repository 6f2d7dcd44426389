package ssr

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServiceType(t *testing.T) {
	tests := []struct {
		input string
		want  ServiceType
		known bool
	}{
		{"GeoPose", ServiceTypeGeoPose, true},
		{"geopose", ServiceTypeGeoPose, true},
		{"content-discovery", ServiceTypeContentDiscovery, true},
		{"P2P-Master", ServiceTypeP2PMaster, true},
		{"message-broker", ServiceTypeMessageBroker, true},
		{"teleport", ServiceType("teleport"), false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseServiceType(tt.input)
			assert.Equal(t, tt.known, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsGeometryType(t *testing.T) {
	assert.True(t, IsGeometryType("Polygon"))
	assert.True(t, IsGeometryType("GeometryCollection"))
	assert.False(t, IsGeometryType("polygon"))
	assert.False(t, IsGeometryType("Circle"))
}

func TestNewDraft(t *testing.T) {
	before := time.Now().UnixMilli()
	draft := NewDraft("acme")

	assert.True(t, draft.IsDraft())
	assert.Equal(t, RecordType, draft.Type)
	assert.Equal(t, "acme", draft.Provider)
	assert.Equal(t, GeometryPolygon, draft.Geometry.Type)
	require.Len(t, draft.Geometry.Coordinates, 1)
	assert.Empty(t, draft.Geometry.Coordinates[0])
	require.NotNil(t, draft.Altitude)
	assert.Equal(t, 0.0, *draft.Altitude)
	assert.GreaterOrEqual(t, draft.Timestamp, before)
}

func TestSSR_MarshalOmitsOptionalFields(t *testing.T) {
	record := LocalService()
	text, err := record.Marshal()
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text), &raw))

	assert.NotContains(t, raw, "altitude")
	assert.NotContains(t, raw, "active")
	assert.Equal(t, "e32ca955c776ecec", raw["id"])

	services := raw["services"].([]interface{})
	first := services[0].(map[string]interface{})
	assert.NotContains(t, first, "description")
	assert.NotContains(t, first, "properties")
}

func TestUnmarshal(t *testing.T) {
	text := `{"id":"abc","type":"ssr","services":[],"geometry":{"type":"Polygon","coordinates":[[[1,2],[3,4,5]]],"bbox":[0,0,1,1]},"provider":"p","timestamp":42,"active":true,"altitude":12.5}`

	record, err := Unmarshal(text)
	require.NoError(t, err)
	assert.Equal(t, "abc", record.ID)
	assert.Equal(t, Position{3, 4, 5}, record.Geometry.Coordinates[0][1])
	assert.Equal(t, BBox{0, 0, 1, 1}, record.Geometry.BBox)
	require.NotNil(t, record.Active)
	assert.True(t, *record.Active)
	require.NotNil(t, record.Altitude)
	assert.Equal(t, 12.5, *record.Altitude)

	_, err = Unmarshal("{not json")
	assert.Error(t, err)
}

func TestFixtures(t *testing.T) {
	list := LocalServices()
	require.Len(t, list, 2)
	assert.Equal(t, "e32ca955c776ecec", list[0].ID)
	assert.Equal(t, "e0f25f91555e0fba", list[1].ID)
	for _, record := range list {
		assert.Equal(t, "oscptest", record.Provider)
		assert.Len(t, record.Services, 2)
	}

	single := LocalService()
	assert.Equal(t, "e32ca955c776ecec", single.ID)
	assert.Equal(t, int64(1597208890824), single.Timestamp)

	// Mutating a returned copy must not leak into later calls
	single.Services[0].Title = "changed"
	list[0].Geometry.Coordinates[0][0][0] = 0
	assert.Equal(t, "geopose-title", LocalService().Services[0].Title)
	assert.Equal(t, -97.74437427520752, LocalServices()[0].Geometry.Coordinates[0][0][0])
}

func TestIsSupportedCountry(t *testing.T) {
	assert.True(t, IsSupportedCountry("us"))
	assert.True(t, IsSupportedCountry("FI"))
	assert.False(t, IsSupportedCountry("xx"))
}
