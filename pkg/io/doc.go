// Package io provides JSON import and export for Zipkin traces.
//
// # JSON Format
//
// Import accepts the Zipkin v1 JSON produced by GET /api/v1/trace/{id}: an
// array of spans. The search response of GET /api/v1/traces (an array of
// such arrays) is also accepted; its first trace is used.
//
//	[
//	  {
//	    "traceId": "5af7183fb1d4cf5f",
//	    "id": "5af7183fb1d4cf5f",
//	    "name": "get /",
//	    "timestamp": 1500000000000000,
//	    "duration": 5000,
//	    "annotations": [
//	      {"timestamp": 1500000000000000, "value": "sr",
//	       "endpoint": {"serviceName": "web", "ipv4": "10.0.0.1", "port": 8080}}
//	    ],
//	    "binaryAnnotations": [
//	      {"key": "http.path", "value": "/", "endpoint": {"serviceName": "web"}}
//	    ]
//	  }
//	]
//
// Binary annotation values that are not strings (booleans, numbers) are kept
// as their JSON text.
//
// # Import
//
// Use [ImportTrace] to read and assemble a trace from a file path, or
// [ReadTrace] to read from any io.Reader:
//
//	root, err := io.ImportTrace("trace.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// [ReadSpans] returns the flat span list without building the tree.
//
// # Export
//
// [WriteTree] writes the assembled tree as nested JSON (each span with a
// "children" array). [WriteSpans] writes a flat Zipkin v1 span array that
// [ReadSpans] can read back.
package io
