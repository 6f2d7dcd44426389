package ssr

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RecordType is the constant type tag carried by every SSR
const RecordType = "ssr"

// ServiceType identifies the kind of endpoint a Service advertises
type ServiceType string

const (
	ServiceTypeGeoPose          ServiceType = "GeoPose"
	ServiceTypeContentDiscovery ServiceType = "Content-Discovery"
	ServiceTypeP2PMaster        ServiceType = "P2P-Master"
	ServiceTypeMessageBroker    ServiceType = "Message-Broker"
)

// AvailableServiceTypes lists the service types known to the discovery service
var AvailableServiceTypes = []ServiceType{
	ServiceTypeGeoPose,
	ServiceTypeContentDiscovery,
	ServiceTypeP2PMaster,
	ServiceTypeMessageBroker,
}

// ParseServiceType maps a string onto a known service type, ignoring case.
// Deployed records commonly use lowercase forms such as "geopose".
func ParseServiceType(s string) (ServiceType, bool) {
	for _, t := range AvailableServiceTypes {
		if strings.EqualFold(string(t), s) {
			return t, true
		}
	}
	return ServiceType(s), false
}

// GeometryType is a GeoJSON geometry type name
type GeometryType string

const (
	GeometryPoint              GeometryType = "Point"
	GeometryLineString         GeometryType = "LineString"
	GeometryPolygon            GeometryType = "Polygon"
	GeometryMultiPoint         GeometryType = "MultiPoint"
	GeometryMultiLineString    GeometryType = "MultiLineString"
	GeometryMultiPolygon       GeometryType = "MultiPolygon"
	GeometryGeometryCollection GeometryType = "GeometryCollection"
)

// GeometryTypes lists every GeoJSON geometry type
var GeometryTypes = []GeometryType{
	GeometryPoint,
	GeometryLineString,
	GeometryPolygon,
	GeometryMultiPoint,
	GeometryMultiLineString,
	GeometryMultiPolygon,
	GeometryGeometryCollection,
}

// IsGeometryType reports whether s names a GeoJSON geometry type
func IsGeometryType(s string) bool {
	for _, t := range GeometryTypes {
		if string(t) == s {
			return true
		}
	}
	return false
}

// Position is a GeoJSON position: [lon, lat] or [lon, lat, alt]
type Position []float64

// BBox is a GeoJSON bounding box with 4 (2D) or 6 (3D) values
type BBox []float64

// Polygon is the GeoJSON geometry that delimits an SSR
type Polygon struct {
	Type        GeometryType `json:"type"`
	Coordinates [][]Position `json:"coordinates"`
	BBox        BBox         `json:"bbox,omitempty"`
}

// Property is a free-form type/value pair attached to a Service
type Property struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Service is a single discoverable endpoint inside an SSR
type Service struct {
	ID          string      `json:"id"`
	Type        ServiceType `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	URL         string      `json:"url"`
	Properties  []Property  `json:"properties,omitempty"`
}

// SSR is a Spatial Service Record: a geofenced set of services offered by a provider
type SSR struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Services  []Service `json:"services"`
	Geometry  Polygon   `json:"geometry"`
	Altitude  *float64  `json:"altitude,omitempty"`
	Provider  string    `json:"provider"`
	Timestamp int64     `json:"timestamp"`
	Active    *bool     `json:"active,omitempty"`
}

// IsDraft reports whether the record has not yet been assigned an ID by the server
func (s SSR) IsDraft() bool {
	return s.ID == ""
}

// Marshal serializes the record to the JSON text accepted by the discovery API
func (s SSR) Marshal() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to marshal ssr %q: %w", s.ID, err)
	}
	return string(data), nil
}

// Unmarshal decodes a single SSR from JSON text
func Unmarshal(text string) (SSR, error) {
	var s SSR
	if err := json.Unmarshal([]byte(text), &s); err != nil {
		return SSR{}, fmt.Errorf("failed to decode ssr: %w", err)
	}
	return s, nil
}

// NewDraft returns an empty record ready to be filled in and submitted.
// The producer stamps the creation time; the server assigns the ID.
func NewDraft(provider string) SSR {
	altitude := 0.0
	return SSR{
		Type:     RecordType,
		Services: []Service{},
		Geometry: Polygon{
			Type:        GeometryPolygon,
			Coordinates: [][]Position{{}},
		},
		Altitude:  &altitude,
		Provider:  provider,
		Timestamp: time.Now().UnixMilli(),
	}
}

// NewService returns a blank service template
func NewService() Service {
	return Service{Properties: []Property{}}
}

// SupportedCountries lists the country codes served by the public discovery deployment
var SupportedCountries = []string{"us", "it", "fi", "se", "hu", "de", "uk", "hk", "tr"}

// IsSupportedCountry reports whether code is one of SupportedCountries
func IsSupportedCountry(code string) bool {
	for _, c := range SupportedCountries {
		if c == strings.ToLower(code) {
			return true
		}
	}
	return false
}
