package domain

import "time"

// Window is one (training, testing) split of a price series. Indices are
// positions into the full series; dates are the resolved bar dates at those
// positions. Invariant: TestStart == TrainEnd+1, so the testing range never
// overlaps the data available for selection.
type Window struct {
	TrainStart int
	TrainEnd   int
	TestStart  int
	TestEnd    int

	TrainStartDate time.Time
	TrainEndDate   time.Time
	TestStartDate  time.Time
	TestEndDate    time.Time
}

// TestLen returns the number of testing bars.
func (w Window) TestLen() int {
	return w.TestEnd - w.TestStart + 1
}
