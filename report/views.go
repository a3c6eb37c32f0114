package report

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"ridefunnel/funnel"
	"ridefunnel/model"
	"ridefunnel/util"
)

const buildViewTag = "Report#BuildView"

// View names double as CSV file stems and XLSX sheet names.
const (
	ViewGlobalUserFunnel    = "global_user_funnel"
	ViewSegmentedUserFunnel = "segmented_user_funnel"
	ViewSegmentedRideFunnel = "segmented_ride_funnel"
	ViewHourlyDistribution  = "hourly_ride_distribution"
	ViewRidePayments        = "ride_payments"
)

var segmentDimensions = []string{
	model.GroupByPlatform, model.GroupByAgeRange, model.GroupByDownloadDate,
}

var hourlyDimensions = []string{
	model.GroupByPlatform, model.GroupByAgeRange, model.GroupByRequestHour,
}

// Builder materializes the fixed-contract output views consumed by the
// downstream visualization tool, all from one snapshot's fact table.
type Builder struct {
	snapshot *model.Snapshot
	facts    []model.FactRow
	from, to time.Time
	cache    *ResultCache
}

func NewBuilder(snapshot *model.Snapshot, from, to time.Time, cache *ResultCache) *Builder {
	facts := funnel.FilterByDownloadDate(funnel.BuildFactTable(snapshot), from, to)
	return &Builder{snapshot: snapshot, facts: facts, from: from, to: to, cache: cache}
}

func (b *Builder) compute(query model.FunnelQuery) ([]model.FunnelRow, error) {
	key := query.CacheKey(b.snapshot.ID)
	if b.cache != nil {
		if rows, exists := b.cache.Get(key); exists {
			log.WithFields(log.Fields{"prefix": buildViewTag,
				"snapshot_id": b.snapshot.ID}).Debug("Funnel served from cache.")
			return rows, nil
		}
	}

	rows, err := funnel.ComputeFunnel(b.facts, query)
	if err != nil {
		return nil, err
	}
	if b.cache != nil {
		b.cache.Add(key, rows)
	}
	return rows, nil
}

// GlobalUserFunnel - One unsegmented row per user-funnel stage with
// conversion ratios.
// Columns: funnel_step, funnel_name, total_users, percent_of_previous,
// percent_of_top.
func (b *Builder) GlobalUserFunnel() (*model.QueryResult, error) {
	rows, err := b.compute(model.FunnelQuery{
		Stages: model.UserFunnelStages(),
		Metric: model.MetricUser,
	})
	if err != nil {
		return nil, err
	}
	rows = funnel.WithRatios(rows)

	result := &model.QueryResult{
		Headers: []string{"funnel_step", "funnel_name", "total_users",
			"percent_of_previous", "percent_of_top"},
		Rows: make([][]interface{}, 0, len(rows)),
	}
	for i := range rows {
		result.Rows = append(result.Rows, []interface{}{
			rows[i].StageIndex, rows[i].StageName, rows[i].Count,
			ratioCell(rows[i].PercentOfPrevious), ratioCell(rows[i].PercentOfTop),
		})
	}

	logOverallConversion(rows)
	return result, nil
}

// SegmentedUserFunnel - User-funnel stages segmented by platform, age
// range and download date, with user and ride counts side by side.
// Columns: funnel_step, funnel_name, platform, age_range, download_date,
// user_count, ride_count.
func (b *Builder) SegmentedUserFunnel() (*model.QueryResult, error) {
	userRows, err := b.compute(model.FunnelQuery{
		Stages:  model.UserFunnelStages(),
		GroupBy: segmentDimensions,
		Metric:  model.MetricUser,
	})
	if err != nil {
		return nil, err
	}

	rideRows, err := b.compute(model.FunnelQuery{
		Stages:  model.StagesWithMode(model.UserFunnelStages(), model.CountDistinctRide),
		GroupBy: segmentDimensions,
		Metric:  model.MetricRide,
	})
	if err != nil {
		return nil, err
	}

	if len(userRows) != len(rideRows) {
		return nil, errors.New("user and ride funnel partitions diverged")
	}

	result := &model.QueryResult{
		Headers: []string{"funnel_step", "funnel_name", "platform", "age_range",
			"download_date", "user_count", "ride_count"},
		Rows: make([][]interface{}, 0, len(userRows)),
	}
	for i := range userRows {
		result.Rows = append(result.Rows, []interface{}{
			userRows[i].StageIndex, userRows[i].StageName,
			userRows[i].GroupValues[0], userRows[i].GroupValues[1], userRows[i].GroupValues[2],
			userRows[i].Count, rideRows[i].Count,
		})
	}
	return result, nil
}

// SegmentedRideFunnel - Ride-funnel stages segmented by platform, age
// range and download date.
// Columns: funnel_step, funnel_name, platform, age_range, download_date,
// ride_count.
func (b *Builder) SegmentedRideFunnel() (*model.QueryResult, error) {
	rows, err := b.compute(model.FunnelQuery{
		Stages:  model.RideFunnelStages(),
		GroupBy: segmentDimensions,
		Metric:  model.MetricRide,
	})
	if err != nil {
		return nil, err
	}

	result := &model.QueryResult{
		Headers: []string{"funnel_step", "funnel_name", "platform", "age_range",
			"download_date", "ride_count"},
		Rows: make([][]interface{}, 0, len(rows)),
	}
	for i := range rows {
		result.Rows = append(result.Rows, []interface{}{
			rows[i].StageIndex, rows[i].StageName,
			rows[i].GroupValues[0], rows[i].GroupValues[1], rows[i].GroupValues[2],
			rows[i].Count,
		})
	}
	return result, nil
}

// HourlyDistribution - Ride-funnel stages segmented by platform, age
// range and request hour of day. Rides that never reached the request
// stage have no hour and are excluded rather than zero-filled.
// Columns: funnel_step, funnel_name, platform, age_range, request_hour,
// ride_count.
func (b *Builder) HourlyDistribution() (*model.QueryResult, error) {
	rows, err := b.compute(model.FunnelQuery{
		Stages:  model.RideFunnelStages(),
		GroupBy: hourlyDimensions,
		Metric:  model.MetricRide,
	})
	if err != nil {
		return nil, err
	}

	result := &model.QueryResult{
		Headers: []string{"funnel_step", "funnel_name", "platform", "age_range",
			"request_hour", "ride_count"},
		Rows: make([][]interface{}, 0, len(rows)),
	}
	for i := range rows {
		hour, err := strconv.Atoi(rows[i].GroupValues[2])
		if err != nil {
			return nil, errors.Wrap(err, "malformed request hour key")
		}
		result.Rows = append(result.Rows, []interface{}{
			rows[i].StageIndex, rows[i].StageName,
			rows[i].GroupValues[0], rows[i].GroupValues[1], hour,
			rows[i].Count,
		})
	}
	return result, nil
}

// RidePayments - One raw row per ride request with its transaction,
// bounded by request timestamp when a date range is set.
// Columns: user_id, ride_id, driver_id, request_ts, accept_ts,
// pickup_ts, dropoff_ts, cancel_ts, purchase_amount_usd, charge_status.
func (b *Builder) RidePayments() (*model.QueryResult, error) {
	transactionByRide := make(map[string]*model.Transaction, len(b.snapshot.Transactions))
	for i := range b.snapshot.Transactions {
		transaction := &b.snapshot.Transactions[i]
		if _, exists := transactionByRide[transaction.RideID]; !exists {
			transactionByRide[transaction.RideID] = transaction
		}
	}

	result := &model.QueryResult{
		Headers: []string{"user_id", "ride_id", "driver_id", "request_ts",
			"accept_ts", "pickup_ts", "dropoff_ts", "cancel_ts",
			"purchase_amount_usd", "charge_status"},
	}

	for i := range b.snapshot.RideRequests {
		ride := &b.snapshot.RideRequests[i]
		if ride.RequestTimestamp != nil &&
			!util.WithinRange(*ride.RequestTimestamp, b.from, b.to) {
			continue
		}

		row := []interface{}{
			ride.UserID, ride.RideID, stringCell(ride.DriverID),
			timeCell(ride.RequestTimestamp), timeCell(ride.AcceptTimestamp),
			timeCell(ride.PickupTimestamp), timeCell(ride.DropoffTimestamp),
			timeCell(ride.CancelTimestamp),
		}

		if transaction, exists := transactionByRide[ride.RideID]; exists {
			row = append(row, transaction.PurchaseAmountUSD, transaction.ChargeStatus)
		} else {
			row = append(row, nil, nil)
		}

		result.Rows = append(result.Rows, row)
	}
	return result, nil
}

// ApprovedRevenue - Total approved purchase amount across rides
// requested within the builder's range. Logged in the run summary.
func (b *Builder) ApprovedRevenue() float64 {
	rideInRange := make(map[string]bool, len(b.snapshot.RideRequests))
	for i := range b.snapshot.RideRequests {
		ride := &b.snapshot.RideRequests[i]
		if ride.RequestTimestamp != nil &&
			!util.WithinRange(*ride.RequestTimestamp, b.from, b.to) {
			continue
		}
		rideInRange[ride.RideID] = true
	}

	var revenue float64
	for i := range b.snapshot.Transactions {
		transaction := &b.snapshot.Transactions[i]
		if transaction.ChargeStatus == model.ChargeStatusApproved && rideInRange[transaction.RideID] {
			revenue += transaction.PurchaseAmountUSD
		}
	}
	return util.FloatRoundOffWithPrecision(revenue, 2)
}

func logOverallConversion(rows []model.FunnelRow) {
	if len(rows) == 0 || rows[0].Count == 0 {
		return
	}
	last := rows[len(rows)-1]
	log.WithFields(log.Fields{
		"prefix":             buildViewTag,
		"top_stage":          rows[0].StageName,
		"last_stage":         last.StageName,
		"conversion_overall": util.Percent(float64(last.Count), float64(rows[0].Count)),
	}).Info("Overall funnel conversion.")
}

func ratioCell(value *float64) interface{} {
	if value == nil {
		return nil
	}
	return *value
}

func stringCell(value *string) interface{} {
	if value == nil {
		return nil
	}
	return *value
}

func timeCell(value *time.Time) interface{} {
	if value == nil {
		return nil
	}
	return *value
}
