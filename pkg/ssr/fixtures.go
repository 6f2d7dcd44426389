package ssr

// Fixture records served in local mode. They mirror the records published by
// the "oscptest" provider around Austin, TX.

func fixtureServices() []Service {
	return []Service{
		{Type: "geopose", URL: "http://geopose.geo1.example.com", ID: "geopose-id", Title: "geopose-title"},
		{Type: "content-discovery", URL: "http://content-discovery.geo1.example.com", ID: "content-discovery-id", Title: "content-discovery-title"},
	}
}

func fixtureA() SSR {
	return SSR{
		ID:       "e32ca955c776ecec",
		Type:     RecordType,
		Services: fixtureServices(),
		Geometry: Polygon{
			Type: GeometryPolygon,
			Coordinates: [][]Position{{
				{-97.74437427520752, 30.27830380593801},
				{-97.73051261901855, 30.28590104010804},
				{-97.74703502655028, 30.291014944499693},
				{-97.74437427520752, 30.27830380593801},
			}},
		},
		Provider:  "oscptest",
		Timestamp: 1597208890824,
	}
}

func fixtureB() SSR {
	return SSR{
		ID:       "e0f25f91555e0fba",
		Type:     RecordType,
		Services: fixtureServices(),
		Geometry: Polygon{
			Type: GeometryPolygon,
			Coordinates: [][]Position{{
				{-97.73042678833008, 30.283677520264256},
				{-97.73102760314941, 30.28193572785586},
				{-97.72969722747803, 30.2815280698483},
				{-97.72901058197021, 30.28356634294924},
				{-97.73042678833008, 30.283677520264256},
			}},
		},
		Provider:  "oscptest",
		Timestamp: 1597208916344,
	}
}

// LocalServices returns a fresh copy of the two fixture records
func LocalServices() []SSR {
	return []SSR{fixtureA(), fixtureB()}
}

// LocalService returns a fresh copy of the single fixture record
func LocalService() SSR {
	return fixtureA()
}
