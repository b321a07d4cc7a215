// Package compat models a browser compatibility dataset in the shape of MDN's
// browser-compat-data (BCD).
//
// # Overview
//
// The dataset is a tree of named objects. Any object may carry a "__compat"
// entry describing per-browser support for the feature at that path, and may
// nest further named children:
//
//	{
//	  "css": {
//	    "properties": {
//	      "grid": {
//	        "__compat": {
//	          "description": "CSS grid layout",
//	          "support": {
//	            "chrome":  {"version_added": "57"},
//	            "firefox": {"version_added": "52"},
//	            "safari":  {"version_added": true},
//	            "edge":    {"version_added": null}
//	          }
//	        }
//	      }
//	    }
//	  }
//	}
//
// # Node Model
//
// [Decode] turns the JSON into a tree of [Node] values. Metadata keys (those
// with the reserved "__" prefix) never become children: "__compat" is
// decoded into [Node.Compat] and every other metadata key is dropped.
// Children keep the dataset's document order so that walks over the tree are
// repeatable.
//
// Values that are not JSON objects (strings, numbers, arrays) become
// malformed nodes: they carry neither compat info nor children.
//
// # Versions
//
// A [Version] records which JSON type the dataset used for version_added or
// version_removed. Only non-empty strings (and numbers, kept as their literal
// text) are concrete; booleans and null never are.
package compat
