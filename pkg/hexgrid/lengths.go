package hexgrid

import "fmt"

// Mean hexagon edge length in meters per resolution, per the published H3
// cell statistics. Pentagon cells are slightly smaller; these are averages.
var edgeLengthM = []float64{
	1107712.591, 418676.0055, 158244.6558, 59810.85794,
	22606.3794, 8544.408276, 3229.482772, 1220.629759,
	461.354684, 174.375668, 65.907807, 24.910561,
	9.415526, 3.559893, 1.348575, 0.509713,
}

// Mean hexagon area in square kilometers per resolution.
var areaKm2 = []float64{
	4250546.848, 607220.9782, 86745.85403, 12392.26486,
	1770.323552, 252.9033645, 36.1290521, 5.1612932,
	0.7373276, 0.1053325, 0.0150475, 0.0021496,
	0.0003071, 0.0000439, 0.0000063, 0.0000009,
}

// EdgeLengthM returns the mean hexagon edge length in meters at a resolution.
func EdgeLengthM(res int) (float64, error) {
	if res < MinResolution || res > MaxResolution {
		return 0, fmt.Errorf("hexgrid: resolution %d out of range [%d, %d]", res, MinResolution, MaxResolution)
	}
	return edgeLengthM[res], nil
}

// AreaKm2 returns the mean hexagon area in square kilometers at a resolution.
func AreaKm2(res int) (float64, error) {
	if res < MinResolution || res > MaxResolution {
		return 0, fmt.Errorf("hexgrid: resolution %d out of range [%d, %d]", res, MinResolution, MaxResolution)
	}
	return areaKm2[res], nil
}
