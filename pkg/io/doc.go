// Package io reads and writes feature record lists as JSON.
//
// # JSON Format
//
// A record list is a JSON array. Each element is one feature:
//
//	[
//	  {
//	    "id": "css-properties-grid",
//	    "name": "grid",
//	    "category": "CSS Properties",
//	    "baselineStatus": "limited",
//	    "adoptionDate": "2027-10-19",
//	    "currentUsage": 55,
//	    "impact": "high",
//	    "description": "grid - Web Platform Feature",
//	    "sourcePath": "css.properties.grid",
//	    "browserSupport": {
//	      "chrome": {"version_added": "57"},
//	      "firefox": {"version_added": null}
//	    }
//	  }
//	]
//
// The same format is used for exports, for stdout output and for cached
// extraction results, so a cached list can be fed back through [ReadJSON].
//
// # Validation
//
// [ReadJSON] rejects lists with duplicate or empty IDs, unknown baseline
// statuses, usage values outside 0..100 and records without an adoption date.
// Browser support entries are kept as decoded.
package io
