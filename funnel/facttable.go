package funnel

import (
	"time"

	log "github.com/sirupsen/logrus"

	"ridefunnel/model"
	"ridefunnel/util"
)

const buildFactTableTag = "Funnel#BuildFactTable"

// BuildFactTable materializes the wide denormalized join of the five
// fact relations: a LEFT-join cascade rooted at Download. Every
// download is retained even when nothing downstream exists; a signed up
// user fans out to one row per ride; rides carry their transaction and
// review when present. The SQL source leaned on join NULLs for absence,
// here absence is an explicit nil field.
func BuildFactTable(snapshot *model.Snapshot) []model.FactRow {
	startTime := time.Now()

	signupBySession := make(map[string]*model.Signup, len(snapshot.Signups))
	for i := range snapshot.Signups {
		signupBySession[snapshot.Signups[i].SessionID] = &snapshot.Signups[i]
	}

	ridesByUser := make(map[string][]*model.RideRequest)
	for i := range snapshot.RideRequests {
		ride := &snapshot.RideRequests[i]
		ridesByUser[ride.UserID] = append(ridesByUser[ride.UserID], ride)
	}

	transactionByRide := make(map[string]*model.Transaction, len(snapshot.Transactions))
	for i := range snapshot.Transactions {
		transaction := &snapshot.Transactions[i]
		if _, exists := transactionByRide[transaction.RideID]; !exists {
			transactionByRide[transaction.RideID] = transaction
		}
	}

	reviewByRide := make(map[string]*model.Review, len(snapshot.Reviews))
	for i := range snapshot.Reviews {
		review := &snapshot.Reviews[i]
		if _, exists := reviewByRide[review.RideID]; !exists {
			reviewByRide[review.RideID] = review
		}
	}

	facts := make([]model.FactRow, 0, len(snapshot.Downloads))
	for i := range snapshot.Downloads {
		download := &snapshot.Downloads[i]

		row := model.FactRow{
			DownloadKey:       download.DownloadKey,
			Platform:          download.Platform,
			DownloadTimestamp: download.DownloadTimestamp,
			AgeRange:          model.AgeRangeUnknown,
		}

		signup, exists := signupBySession[download.DownloadKey]
		if !exists {
			facts = append(facts, row)
			continue
		}

		row.UserID = &signup.UserID
		row.SignupTimestamp = &signup.SignupTimestamp
		if signup.AgeRange != nil && *signup.AgeRange != "" {
			row.AgeRange = *signup.AgeRange
		}

		rides := ridesByUser[signup.UserID]
		if len(rides) == 0 {
			facts = append(facts, row)
			continue
		}

		for _, ride := range rides {
			rideRow := row
			rideRow.RideID = &ride.RideID
			rideRow.DriverID = ride.DriverID
			rideRow.RequestTimestamp = ride.RequestTimestamp
			rideRow.AcceptTimestamp = ride.AcceptTimestamp
			rideRow.PickupTimestamp = ride.PickupTimestamp
			rideRow.DropoffTimestamp = ride.DropoffTimestamp
			rideRow.CancelTimestamp = ride.CancelTimestamp

			if transaction, exists := transactionByRide[ride.RideID]; exists {
				rideRow.TransactionID = &transaction.TransactionID
				rideRow.PurchaseAmountUSD = &transaction.PurchaseAmountUSD
				rideRow.ChargeStatus = &transaction.ChargeStatus
			}

			if review, exists := reviewByRide[ride.RideID]; exists {
				rideRow.ReviewUserID = &review.UserID
			}

			facts = append(facts, rideRow)
		}
	}

	log.WithFields(log.Fields{
		"prefix":      buildFactTableTag,
		"snapshot_id": snapshot.ID,
		"fact_rows":   len(facts),
		"took":        time.Since(startTime),
	}).Debug("Built fact table.")

	return facts
}

// FilterByDownloadDate restricts the fact table to downloads within
// [from, to]. Zero bounds leave that side open.
func FilterByDownloadDate(facts []model.FactRow, from, to time.Time) []model.FactRow {
	if from.IsZero() && to.IsZero() {
		return facts
	}

	filtered := make([]model.FactRow, 0, len(facts))
	for i := range facts {
		if util.WithinRange(facts[i].DownloadTimestamp, from, to) {
			filtered = append(filtered, facts[i])
		}
	}
	return filtered
}
