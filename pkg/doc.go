// Package pkg provides the core libraries for baselineplan.
//
// # Overview
//
// Baselineplan turns a browser-compat-data (BCD) dataset into a list of web
// platform features, each classified by weighted browser support into a
// baseline status with a recommended adoption date. The pkg directory is
// organized into three areas:
//
//  1. Domain logic: [compat], [extract], [classify], [feature]
//  2. Infrastructure: [cache], [config], [errors], [observability], [io]
//  3. Orchestration: [pipeline]
//
// # Architecture
//
// The data flow through baselineplan:
//
//	BCD JSON dataset
//	         ↓
//	    [compat] package (decode into an ordered tree)
//	         ↓
//	    [extract] package (priority-ordered walk, capped)
//	         ↓
//	    [classify] + [feature] packages (usage, status, date, impact)
//	         ↓
//	    JSON records or a plan table
//
// # Quick Start
//
//	root, _ := compat.DecodeFile("data.json")
//	res, err := extract.New(extract.Options{MaxFeatures: 50}).Run(root)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, r := range res.Records {
//	    fmt.Println(r.ID, r.BaselineStatus, r.AdoptionDate)
//	}
//
// With caching, hooks and post-processing, use [pipeline.Runner]:
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	result, _ := runner.Execute(ctx, pipeline.Options{Dataset: "data.json"})
//
// # Testing
//
//	go test ./pkg/...
package pkg
