// Package plwdash is a dashboard engine for PLW cash-withdrawal camp sheets.
//
// Usage:
//
//	import (
//	    "github.com/spektr-org/plwdash/engine"
//	    "github.com/spektr-org/plwdash/loader"
//	)
//
//	ds, err := loader.LoadFile(ctx, "camps.csv")
//	report, err := engine.Build(ds.View(), criteria,
//	    engine.WithAvailability(ds.Available),
//	    engine.WithSort(engine.SortCountDesc),
//	)
//
// The loader resolves the sheet's headers onto canonical fields and types
// every cell. The engine filters and aggregates, counting people by distinct
// CNIC and summing money per row, and returns render-ready output (metric
// cards, breakdowns, chart configs, tables). The server package exposes the
// same pipeline over HTTP behind a time-boxed cache.
package plwdash
