// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package fsrs

import "fmt"

// DefaultWeights are the 21 FSRS-6 default model weights.
var DefaultWeights = [21]float64{
	0.212, 1.2931, 2.3065, 8.2956, // w[0..3]  initial stability S0(G)
	6.4133, 0.8334, 3.0194, 0.001, // w[4..7]  difficulty
	1.8722, 0.1666, 0.796, 1.4835, // w[8..11] recall stability
	0.0614, 0.2629, 1.6483, 0.6014, // w[12..15] forget stability, hard penalty
	1.8729, 0.5425, 0.0912, 0.0658, // w[16..19] easy bonus, short-term
	0.1542, // w[20] decay
}

var lowerBounds = [21]float64{
	0.001, 0.001, 0.001, 0.001,
	1.0, 0.001, 0.001, 0.001,
	0.0, 0.0, 0.001, 0.001,
	0.001, 0.001, 0.0, 0.0,
	1.0, 0.0, 0.0, 0.0,
	0.1,
}

var upperBounds = [21]float64{
	100.0, 100.0, 100.0, 100.0,
	10.0, 4.0, 4.0, 0.75,
	4.5, 0.8, 3.5, 5.0,
	0.25, 0.9, 4.0, 1.0,
	6.0, 2.0, 2.0, 0.8,
	0.8,
}

func validateWeights(w [21]float64) error {
	for i := range w {
		if w[i] < lowerBounds[i] || w[i] > upperBounds[i] {
			return fmt.Errorf("fsrs: w[%d] = %f outside [%f, %f]", i, w[i], lowerBounds[i], upperBounds[i])
		}
	}
	return nil
}
