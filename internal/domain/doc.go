// Package domain models the Caupian gallery monitoring data shown on the
// vulnerability dashboard.
//
// # Data Sources
//
// Three pre-computed CSV files feed the dashboard:
//
//	n_galerie.csv    gallery water level, date index + column "n" (mNGF)
//	q_galerie.csv    gallery flow rate, date index + column "q" (m3/h)
//	la_results.csv   indicator predictions, unnamed index + named columns
//
// The prediction file carries one row per simulated gallery state:
//
//	indicator   vulnerability indicator code (alpha, iota_ag, iota_fdc, iota_ga)
//	h_cdt       hydraulic condition code (lc, mc, hc)
//	n_gal       simulated gallery level (mNGF)
//	h_riv       river level (mNGF)
//	q_pred      simulated gallery flow rate (m3/h)
//	value       median predicted indicator (%)
//	value_90    84% confidence predicted indicator (%)
//
// Rows keep their file order: charts draw lines through the rows in the order
// the model produced them.
//
// # Missing Values
//
// Empty cells and "NaN" are represented as math.NaN(). Aggregations skip NaN
// values; a window with no valid value yields NaN, which encodes as JSON null.
//
// # Rolling Mean
//
// [RollingMean] reproduces a time-based trailing window: for a point at time t
// the window covers (t - window, t]. Series are sliced by calendar year with
// [SliceYears] before the mean is computed, so the first points of a slice
// average over fewer days than the window.
//
// # Hydraulic Conditions
//
// Basses eaux (lc), médianes (mc) and hautes eaux (hc) describe the river
// regime the predictions were simulated under. The median condition also drives
// the head-difference chart, whose x axis is river level minus gallery level:
// negative values mean the gallery sits above the river.
package domain
