// Package classify computes adoption metrics for web platform features from
// their per-browser support data.
//
// All functions are pure. The lookup tables (market-share weights, category
// labels, impact rules) are owned by an immutable [Classifier] built from a
// [Config]; [Default] returns one configured with the built-in tables.
//
// # Usage Score
//
// [Classifier.CurrentUsage] sums the market-share weight of every tracked
// browser whose version_added is concrete (see compat.Version.Concrete).
// A boolean true ("supported, release unknown") does not count:
//
//	chrome 45 + firefox 20 + safari 25 + edge 10 = 100
//
// # Tiers
//
//	usage >= 95       widely   adoption date: today
//	75 <= usage < 95  newly    adoption date: today + 6 months
//	usage < 75        limited  adoption date: today + 12 months
//
// # Impact and Category
//
// [Classifier.Impact] matches the lowercased path against ordered substring
// rules; the first rule that matches wins. [Classifier.CategoryLabel] looks
// up the first two path segments, then the first segment, and finally falls
// back to the first segment in upper case.
package classify
