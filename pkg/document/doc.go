// Package document provides the JSON snapshot format for metro maps.
//
// The same format is used for saved files, the revision history, the HTTP
// API and the snapshot stores:
//
//	{
//	  "tracks": [{
//	    "id": "…", "segmentStyle": {…}, "stationStyle": {…},
//	    "segments": [{
//	      "id": "…", "stationA": {…}, "stationB": {…},
//	      "stationsUser": [{…}], "stationsAuto": [{…}]
//	    }]
//	  }],
//	  "connections": [{"id": "…", "stationA": "…", "stationB": "…"}]
//	}
//
// Station records are {"id", "name", "position": {"x", "y"}, "offsetFactor"}.
// Endpoint records embed their position so that a missing endpoint can be
// synthesized on load.
//
// Common operations:
//
//	data, _ := document.Marshal(m)          // Map → []byte
//	m, err := document.Unmarshal(data)      // []byte → Map
//	document.WriteFile(m, "line.json")      // Map → File
//	m, err := document.ReadFile("line.json") // File → Map
//
// Loading is all-or-nothing: a malformed snapshot returns an
// INVALID_SNAPSHOT error and no map. Marshal output is deterministic, so two
// maps in the same state serialize to identical bytes.
package document
