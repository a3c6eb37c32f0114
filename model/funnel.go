package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"ridefunnel/util"
)

// Metric - Which entity a funnel invocation counts.
const (
	MetricUser = "user"
	MetricRide = "ride"
)

// Counting modes for a funnel stage.
const (
	CountDistinctUser = iota
	CountDistinctRide
	CountDistinctDownload
	CountRaw
)

// Segmentation dimensions supported by the aggregator.
const (
	GroupByPlatform     = "platform"
	GroupByAgeRange     = "age_range"
	GroupByDownloadDate = "download_date"
	GroupByRequestHour  = "request_hour"
)

const (
	ErrMsgNoFunnelStages        = "funnel query without stages"
	ErrMsgNonContiguousStages   = "funnel stages not contiguous"
	ErrMsgInvalidStageOrigin    = "funnel stage origin must be 0 or 1"
	ErrMsgUnknownGroupDimension = "unknown group by dimension"
	ErrMsgUnknownMetric         = "unknown funnel metric"
)

// FactRow - One row of the wide denormalized fact table: a download
// left-joined through signup, ride request, transaction and review.
// A download that never converted carries nil for every later-stage
// attribute; a signed up user fans out to one row per ride.
type FactRow struct {
	DownloadKey       string
	Platform          string
	DownloadTimestamp time.Time

	UserID          *string
	AgeRange        string // AgeRangeUnknown when absent at source.
	SignupTimestamp *time.Time

	RideID           *string
	DriverID         *string
	RequestTimestamp *time.Time
	AcceptTimestamp  *time.Time
	PickupTimestamp  *time.Time
	DropoffTimestamp *time.Time
	CancelTimestamp  *time.Time

	TransactionID     *string
	PurchaseAmountUSD *float64
	ChargeStatus      *string

	ReviewUserID *string
}

// GroupValue - Segmentation value of the fact row on the given
// dimension. ok is false only for dimensions that exclude rows instead
// of substituting a sentinel (request_hour on rides that never reached
// the request stage).
func (f *FactRow) GroupValue(dimension string) (value string, ok bool) {
	switch dimension {
	case GroupByPlatform:
		return f.Platform, true
	case GroupByAgeRange:
		return f.AgeRange, true
	case GroupByDownloadDate:
		return util.DateKey(f.DownloadTimestamp), true
	case GroupByRequestHour:
		if f.RequestTimestamp == nil {
			return "", false
		}
		return util.HourKey(*f.RequestTimestamp), true
	}
	return "", false
}

// StageDefinition - One ordered funnel step: a predicate over the wide
// fact row and a counting mode for rows that satisfy it.
type StageDefinition struct {
	Index     int
	Name      string
	Predicate func(*FactRow) bool
	Mode      int
}

// FunnelQuery - One aggregation request: ordered stages, zero or more
// segmentation dimensions and the counted metric.
type FunnelQuery struct {
	Stages  []StageDefinition
	GroupBy []string
	Metric  string
}

// ValidateStages rejects stage tables the aggregator cannot order:
// empty, origin other than 0/1, duplicate or non-contiguous indices.
// The source analysis trusted its hand-numbered UNION branches; a gap
// there silently dropped a funnel row, so we validate instead.
func ValidateStages(stages []StageDefinition) error {
	if len(stages) == 0 {
		return errors.New(ErrMsgNoFunnelStages)
	}

	origin := stages[0].Index
	if origin != 0 && origin != 1 {
		return fmt.Errorf("%s: got %d", ErrMsgInvalidStageOrigin, origin)
	}

	for i, stage := range stages {
		if stage.Index != origin+i {
			return fmt.Errorf("%s: index %d at position %d",
				ErrMsgNonContiguousStages, stage.Index, i)
		}
	}
	return nil
}

func (q *FunnelQuery) Validate() error {
	if err := ValidateStages(q.Stages); err != nil {
		return err
	}
	if q.Metric != MetricUser && q.Metric != MetricRide {
		return fmt.Errorf("%s: %s", ErrMsgUnknownMetric, q.Metric)
	}
	for _, dimension := range q.GroupBy {
		switch dimension {
		case GroupByPlatform, GroupByAgeRange, GroupByDownloadDate, GroupByRequestHour:
		default:
			return fmt.Errorf("%s: %s", ErrMsgUnknownGroupDimension, dimension)
		}
	}
	return nil
}

// CacheKey - Stable hash string of the query against one snapshot,
// used to key the in-process result cache.
func (q *FunnelQuery) CacheKey(snapshotID string) string {
	parts := make([]string, 0, len(q.Stages)+3)
	parts = append(parts, snapshotID, q.Metric, strings.Join(q.GroupBy, ","))
	for _, stage := range q.Stages {
		parts = append(parts, fmt.Sprintf("%d:%s:%d", stage.Index, stage.Name, stage.Mode))
	}
	return strings.Join(parts, "|")
}

// FunnelRow - One output row of the aggregator: a stage count within a
// grouping-key combination, optionally augmented with ratios. Nil ratio
// pointers mean "undefined" (no prior stage, or a zero denominator) as
// opposed to a zero conversion.
type FunnelRow struct {
	StageIndex  int
	StageName   string
	GroupValues []string
	Count       int64

	PercentOfPrevious *float64
	PercentOfTop      *float64
	DropOffRate       *float64
}

// PartitionKey - Identity of the row's grouping-key combination.
func (r *FunnelRow) PartitionKey() string {
	return strings.Join(r.GroupValues, "\x00")
}

// QueryResult - Tabular result handed to exporters and the downstream
// visualization tool.
type QueryResult struct {
	Headers []string        `json:"headers"`
	Rows    [][]interface{} `json:"rows"`
}
