package funnel

import (
	"fmt"
	"time"

	"ridefunnel/model"
)

var testBaseTime = time.Date(2021, 6, 1, 9, 0, 0, 0, time.UTC)

func tsPtr(t time.Time) *time.Time {
	return &t
}

func strPtr(s string) *string {
	return &s
}

// buildScenarioSnapshot builds the reference dataset: 100 iOS downloads
// in the 25-34 age range, of which 80 sign up, 50 request a ride, 40
// get accepted, 35 complete, 30 pay successfully and 20 review.
func buildScenarioSnapshot() *model.Snapshot {
	snapshot := &model.Snapshot{ID: "snapshot-scenario"}
	ageRange := "25-34"

	for i := 1; i <= 100; i++ {
		downloadKey := fmt.Sprintf("d%03d", i)
		snapshot.Downloads = append(snapshot.Downloads, model.Download{
			DownloadKey:       downloadKey,
			Platform:          model.PlatformIOS,
			DownloadTimestamp: testBaseTime,
		})

		if i > 80 {
			continue
		}
		userID := fmt.Sprintf("u%03d", i)
		snapshot.Signups = append(snapshot.Signups, model.Signup{
			UserID:          userID,
			SessionID:       downloadKey,
			AgeRange:        &ageRange,
			SignupTimestamp: testBaseTime.Add(10 * time.Minute),
		})

		if i > 50 {
			continue
		}
		ride := model.RideRequest{
			RideID:           fmt.Sprintf("r%03d", i),
			UserID:           userID,
			DriverID:         strPtr(fmt.Sprintf("drv%03d", i)),
			RequestTimestamp: tsPtr(testBaseTime.Add(time.Hour)),
		}
		if i <= 40 {
			ride.AcceptTimestamp = tsPtr(testBaseTime.Add(time.Hour + 2*time.Minute))
		}
		if i <= 35 {
			ride.PickupTimestamp = tsPtr(testBaseTime.Add(time.Hour + 10*time.Minute))
			ride.DropoffTimestamp = tsPtr(testBaseTime.Add(time.Hour + 30*time.Minute))
		}
		snapshot.RideRequests = append(snapshot.RideRequests, ride)

		if i <= 30 {
			snapshot.Transactions = append(snapshot.Transactions, model.Transaction{
				TransactionID:     fmt.Sprintf("t%03d", i),
				RideID:            ride.RideID,
				PurchaseAmountUSD: 12.5,
				ChargeStatus:      model.ChargeStatusApproved,
			})
		}
		if i <= 20 {
			snapshot.Reviews = append(snapshot.Reviews, model.Review{
				ReviewID: fmt.Sprintf("rev%03d", i),
				RideID:   ride.RideID,
				UserID:   userID,
			})
		}
	}
	return snapshot
}

func stageCounts(rows []model.FunnelRow) []int64 {
	counts := make([]int64, 0, len(rows))
	for i := range rows {
		counts = append(counts, rows[i].Count)
	}
	return counts
}
