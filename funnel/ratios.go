package funnel

import (
	"ridefunnel/model"
	"ridefunnel/util"
)

// WithRatios augments funnel rows with stage-to-stage and stage-to-top
// conversion ratios, an ordered pass per partition carrying the
// previous and first counts as fold state (the SQL source used
// LAG/FIRST_VALUE window chains for the same thing).
//
// The first row of each partition has no previous stage, so its
// percent_of_previous and drop_off_rate stay nil while percent_of_top
// is 100 by definition. A zero denominator anywhere yields nil, never
// a fault and never a silent zero: an undefined ratio and a zero
// conversion are different facts to a downstream analyst.
//
// Input rows must be in aggregator order (partition-major, stage
// ascending); the input is not mutated.
func WithRatios(rows []model.FunnelRow) []model.FunnelRow {
	augmented := make([]model.FunnelRow, len(rows))

	var partitionKey string
	var firstCount, prevCount int64
	for i := range rows {
		row := rows[i]

		if i == 0 || row.PartitionKey() != partitionKey {
			partitionKey = row.PartitionKey()
			firstCount = row.Count
			top := 100.0
			row.PercentOfTop = &top
			augmented[i] = row
			prevCount = row.Count
			continue
		}

		if firstCount > 0 {
			top := util.Percent(float64(row.Count), float64(firstCount))
			row.PercentOfTop = &top
		}

		if prevCount > 0 {
			previous := util.Percent(float64(row.Count), float64(prevCount))
			row.PercentOfPrevious = &previous

			dropOff := util.FloatRoundOffWithPrecision(
				1-float64(row.Count)/float64(prevCount), 4)
			row.DropOffRate = &dropOff
		}

		augmented[i] = row
		prevCount = row.Count
	}

	return augmented
}
