// Package similarity provides the pure scoring primitives used by the match
// scorer: location-hierarchy similarity, time-of-day overlap, date equality
// and salary-range compatibility. Every function is deterministic and
// side-effect free; malformed or missing inputs score 0 so a ranking batch
// never aborts on bad data.
package similarity

import "strings"

// Location scores how closely two three-level Thai address hierarchies
// (province > district > subdistrict) agree. Matching stops at the first
// level that differs: 0 for different provinces, 0.5 for province only,
// 0.8 for province and district, 1.0 for all three.
func Location(jobProvince, jobDistrict, jobSubdistrict, workerProvince, workerDistrict, workerSubdistrict string) float64 {
	if !sameArea(jobProvince, workerProvince) {
		return 0.0
	}
	if !sameArea(jobDistrict, workerDistrict) {
		return 0.5
	}
	if !sameArea(jobSubdistrict, workerSubdistrict) {
		return 0.8
	}
	return 1.0
}

// sameArea compares two administrative area names. Empty names never match,
// so a record with a missing province scores 0 rather than pairing with
// another incomplete record.
func sameArea(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}
