// Package server streams live meter readings over HTTP.
//
// The server keeps the meter in monitor mode and forwards every
// measurement report to connected websocket clients as a JSON Snapshot.
// A single poll goroutine owns the meter, so the engine's one-exchange-
// at-a-time rule holds no matter how many clients connect.
//
// # Endpoints
//
//	GET /ws               websocket; one text message per measurement
//	GET /api/status       server state, client count, last error
//	GET /api/measurement  latest Snapshot, 503 before the first one
//	GET /metrics          Prometheus metrics
//
// # Message Format
//
//	{
//	  "kind": "normal",
//	  "mode": "vdc",
//	  "mode_name": "VDC",
//	  "range": "Auto",
//	  "hold": false,
//	  "auto_range": true,
//	  "values": {"main": {"value": 4.998, "unit": "VDC", "precision": 3, "display": "4.998 VDC"}},
//	  "display": "VDC [Auto auto]: 4.998 VDC",
//	  "stamp": 1700000000000
//	}
//
// Slow clients miss messages rather than stall the poll loop. When
// enabled, the server announces itself over mDNS as _ut181a._tcp.
package server
