// Package extract walks a compat dataset and collects feature records.
//
// # Overview
//
// The walk is depth-first, synchronous and capped: once MaxFeatures records
// have been collected no further node is visited. Because the output is
// truncated, the order of the walk decides which features make it in.
// [Priorities] declares that order:
//
//	extract.Priorities{
//	    {Name: "css", Subcategories: []string{"properties", "selectors"}},
//	    {Name: "javascript", Subcategories: []string{"builtins"}},
//	    {Name: "html", Subcategories: []string{"elements"}},
//	    {Name: "api"},
//	}
//
// Categories are visited in declaration order. A category without
// subcategories is walked as a whole; otherwise only the listed
// subcategories are walked, in the listed order. Inside the walk, children
// whose key is a priority subcategory of the current top-level category are
// visited before their siblings.
//
// # Errors
//
// Per-node failures (missing support data, classification failures) are
// reported through [Options.Logger] and counted in [Stats]; they never stop
// the walk. Only a run that yields no records from a non-empty dataset fails,
// with an EMPTY_RESULT error.
//
// # Usage
//
//	t := extract.New(extract.Options{MaxFeatures: 100})
//	res, err := t.Run(root)
//	if err != nil {
//	    return err
//	}
//	for _, r := range res.Records {
//	    fmt.Println(r.ID, r.BaselineStatus)
//	}
package extract
