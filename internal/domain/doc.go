// Package domain models the simulated flood-hazard feed for Chennai.
//
// # Hazard Points
//
// A hazard point is one simulated sensor site that needs a response. Points
// are generated against a fixed catalog of named locations (see Catalog) and
// carry three readings:
//
//	water_level  percent of flood stage, always within [0, 100]
//	rainfall     millimetres, never negative
//	wind_speed   km/h
//
// # Severity
//
// Severity is chosen when the point is generated and fixes the range the
// initial readings are drawn from:
//
//	red     water 80–100, rain 70–120   (30% of points)
//	orange  water 60–79,  rain 50–69    (30% of points)
//	yellow  water 40–59,  rain 30–49    (40% of points)
//
// Live readings from field devices invert the scale: the device reports the
// remaining clearance, so a low value is worse. SeverityForWater maps a
// device reading to a severity (below 25 red, below 50 orange, else yellow).
//
// # Transport
//
// Each severity implies the transport a responding agency dispatches:
// red a helicopter, orange a boat, yellow a truck.
//
// # Randomness
//
// Every sampling function takes a *rand.Rand so callers control the seed.
// Nothing in this package reads the wall clock; callers pass the time in.
package domain
