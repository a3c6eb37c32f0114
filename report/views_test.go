package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ridefunnel/model"
)

var testDownloadTime = time.Date(2021, 6, 1, 8, 0, 0, 0, time.UTC)

func tsPtr(t time.Time) *time.Time {
	return &t
}

func strPtr(s string) *string {
	return &s
}

// buildViewSnapshot - Three downloads on one day: u1 (iOS, 25-34)
// converts all the way through review, u2 (iOS, unknown age) stops at
// the ride request, the third download (Android) never signs up. u1
// also has a ride that never reached the request stage.
func buildViewSnapshot() *model.Snapshot {
	ageRange := "25-34"
	return &model.Snapshot{
		ID: "snapshot-views",
		Downloads: []model.Download{
			{DownloadKey: "d1", Platform: model.PlatformIOS, DownloadTimestamp: testDownloadTime},
			{DownloadKey: "d2", Platform: model.PlatformIOS, DownloadTimestamp: testDownloadTime},
			{DownloadKey: "d3", Platform: model.PlatformAndroid, DownloadTimestamp: testDownloadTime},
		},
		Signups: []model.Signup{
			{UserID: "u1", SessionID: "d1", AgeRange: &ageRange, SignupTimestamp: testDownloadTime.Add(5 * time.Minute)},
			{UserID: "u2", SessionID: "d2", AgeRange: nil, SignupTimestamp: testDownloadTime.Add(10 * time.Minute)},
		},
		RideRequests: []model.RideRequest{
			{
				RideID: "r1", UserID: "u1", DriverID: strPtr("drv1"),
				RequestTimestamp: tsPtr(time.Date(2021, 6, 1, 9, 15, 0, 0, time.UTC)),
				AcceptTimestamp:  tsPtr(time.Date(2021, 6, 1, 9, 17, 0, 0, time.UTC)),
				PickupTimestamp:  tsPtr(time.Date(2021, 6, 1, 9, 25, 0, 0, time.UTC)),
				DropoffTimestamp: tsPtr(time.Date(2021, 6, 1, 9, 50, 0, 0, time.UTC)),
			},
			{
				RideID: "r2", UserID: "u2",
				RequestTimestamp: tsPtr(time.Date(2021, 6, 1, 14, 30, 0, 0, time.UTC)),
			},
			{RideID: "r3", UserID: "u1"},
		},
		Transactions: []model.Transaction{
			{TransactionID: "t1", RideID: "r1", PurchaseAmountUSD: 25.5, ChargeStatus: model.ChargeStatusApproved},
			{TransactionID: "t2", RideID: "r2", PurchaseAmountUSD: 10, ChargeStatus: "Declined"},
		},
		Reviews: []model.Review{
			{ReviewID: "rev1", RideID: "r1", UserID: "u1"},
		},
	}
}

func newTestBuilder(t *testing.T) *Builder {
	cache, err := NewResultCache(8)
	assert.Nil(t, err)
	return NewBuilder(buildViewSnapshot(), time.Time{}, time.Time{}, cache)
}

func TestGlobalUserFunnelView(t *testing.T) {
	result, err := newTestBuilder(t).GlobalUserFunnel()
	assert.Nil(t, err)

	assert.Equal(t, []string{"funnel_step", "funnel_name", "total_users",
		"percent_of_previous", "percent_of_top"}, result.Headers)
	assert.Len(t, result.Rows, 7)

	// download=3, signup=2, requested=2, accepted/completed/paid/reviewed=1.
	expCounts := []int64{3, 2, 2, 1, 1, 1, 1}
	for i, row := range result.Rows {
		assert.Equal(t, i, row[0])
		assert.Equal(t, expCounts[i], row[2])
	}

	assert.Equal(t, model.StageAppDownload, result.Rows[0][1])
	assert.Nil(t, result.Rows[0][3])
	assert.Equal(t, 100.0, result.Rows[0][4])
	assert.Equal(t, 66.7, result.Rows[1][3])
	assert.Equal(t, 66.7, result.Rows[1][4])
	assert.Equal(t, 50.0, result.Rows[3][3])
}

func TestSegmentedUserFunnelView(t *testing.T) {
	result, err := newTestBuilder(t).SegmentedUserFunnel()
	assert.Nil(t, err)

	assert.Equal(t, []string{"funnel_step", "funnel_name", "platform",
		"age_range", "download_date", "user_count", "ride_count"}, result.Headers)

	// Three partitions of seven stages, ordered android/Unknown,
	// ios/25-34, ios/Unknown.
	assert.Len(t, result.Rows, 21)
	assert.Equal(t, model.PlatformAndroid, result.Rows[0][2])
	assert.Equal(t, model.AgeRangeUnknown, result.Rows[0][3])
	assert.Equal(t, "2021-06-01", result.Rows[0][4])
	assert.Equal(t, model.PlatformIOS, result.Rows[7][2])
	assert.Equal(t, "25-34", result.Rows[7][3])
	assert.Equal(t, model.AgeRangeUnknown, result.Rows[14][3])

	// The unconverted android download keeps its zero-filled rows.
	assert.Equal(t, int64(1), result.Rows[0][5])
	assert.Equal(t, int64(0), result.Rows[1][5])

	// u1 converts every stage; ride_count at the top two stages spans
	// both of u1's rides, the request stage onward only r1.
	assert.Equal(t, int64(1), result.Rows[7][5])
	assert.Equal(t, int64(2), result.Rows[7][6])
	assert.Equal(t, int64(2), result.Rows[8][6])
	assert.Equal(t, int64(1), result.Rows[9][6])
	assert.Equal(t, int64(1), result.Rows[13][5])
}

func TestSegmentedRideFunnelView(t *testing.T) {
	result, err := newTestBuilder(t).SegmentedRideFunnel()
	assert.Nil(t, err)

	assert.Equal(t, []string{"funnel_step", "funnel_name", "platform",
		"age_range", "download_date", "ride_count"}, result.Headers)

	// All three partitions are present; the android download never had
	// a ride, so its partition is fully zero-filled.
	assert.Len(t, result.Rows, 18)
	assert.Equal(t, model.StageRideRequested, result.Rows[0][1])

	// ios/25-34: r1 requested through review, r3 never requested.
	assert.Equal(t, int64(1), result.Rows[6][5])
	assert.Equal(t, int64(1), result.Rows[11][5])

	// ios/Unknown: r2 requested only.
	assert.Equal(t, int64(1), result.Rows[12][5])
	assert.Equal(t, int64(0), result.Rows[13][5])
}

func TestHourlyDistributionView(t *testing.T) {
	result, err := newTestBuilder(t).HourlyDistribution()
	assert.Nil(t, err)

	assert.Equal(t, []string{"funnel_step", "funnel_name", "platform",
		"age_range", "request_hour", "ride_count"}, result.Headers)

	// r3 has no request timestamp and is excluded entirely; r1 lands in
	// hour 9, r2 in hour 14. Hours come out numeric.
	assert.Len(t, result.Rows, 12)
	assert.Equal(t, 9, result.Rows[0][4])
	assert.Equal(t, int64(1), result.Rows[0][5])
	assert.Equal(t, 14, result.Rows[6][4])
	assert.Equal(t, int64(1), result.Rows[6][5])
	assert.Equal(t, int64(0), result.Rows[7][5])
}

func TestRidePaymentsView(t *testing.T) {
	result, err := newTestBuilder(t).RidePayments()
	assert.Nil(t, err)

	assert.Equal(t, []string{"user_id", "ride_id", "driver_id", "request_ts",
		"accept_ts", "pickup_ts", "dropoff_ts", "cancel_ts",
		"purchase_amount_usd", "charge_status"}, result.Headers)
	assert.Len(t, result.Rows, 3)

	assert.Equal(t, "u1", result.Rows[0][0])
	assert.Equal(t, "r1", result.Rows[0][1])
	assert.Equal(t, "drv1", result.Rows[0][2])
	assert.Equal(t, 25.5, result.Rows[0][8])
	assert.Equal(t, model.ChargeStatusApproved, result.Rows[0][9])

	// Declined charges stay visible on the raw join.
	assert.Equal(t, "Declined", result.Rows[1][9])

	// r3 never reached request or payment: nil cells, no row dropped.
	assert.Equal(t, "r3", result.Rows[2][1])
	assert.Nil(t, result.Rows[2][3])
	assert.Nil(t, result.Rows[2][8])
	assert.Nil(t, result.Rows[2][9])
}

func TestApprovedRevenue(t *testing.T) {
	assert.Equal(t, 25.5, newTestBuilder(t).ApprovedRevenue())
}

func TestBuilderCacheReuse(t *testing.T) {
	builder := newTestBuilder(t)

	first, err := builder.GlobalUserFunnel()
	assert.Nil(t, err)
	second, err := builder.GlobalUserFunnel()
	assert.Nil(t, err)

	assert.Equal(t, first, second)
}
