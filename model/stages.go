package model

// Canonical stage names shared by the user and ride funnels.
const (
	StageAppDownload     = "app_download"
	StageSignup          = "signup"
	StageRideRequested   = "ride_requested"
	StageRideAccepted    = "ride_accepted"
	StagePickedUp        = "picked_up"
	StageRideCompleted   = "ride_completed"
	StagePaymentApproved = "payment_approved"
	StageReviewSubmitted = "review_submitted"
)

func hasSignup(f *FactRow) bool {
	return f.UserID != nil
}

func hasRequest(f *FactRow) bool {
	return f.RequestTimestamp != nil
}

func hasAccept(f *FactRow) bool {
	return f.AcceptTimestamp != nil
}

func hasPickup(f *FactRow) bool {
	return f.PickupTimestamp != nil
}

func hasDropoff(f *FactRow) bool {
	return f.DropoffTimestamp != nil
}

func hasApprovedPayment(f *FactRow) bool {
	return f.ChargeStatus != nil && *f.ChargeStatus == ChargeStatusApproved
}

func hasReview(f *FactRow) bool {
	return f.ReviewUserID != nil
}

// UserFunnelStages - The download-rooted user journey. The top stage
// counts distinct downloads since no user id exists before signup;
// every later stage counts distinct users.
func UserFunnelStages() []StageDefinition {
	return []StageDefinition{
		{Index: 0, Name: StageAppDownload, Predicate: func(f *FactRow) bool { return true }, Mode: CountDistinctDownload},
		{Index: 1, Name: StageSignup, Predicate: hasSignup, Mode: CountDistinctUser},
		{Index: 2, Name: StageRideRequested, Predicate: hasRequest, Mode: CountDistinctUser},
		{Index: 3, Name: StageRideAccepted, Predicate: hasAccept, Mode: CountDistinctUser},
		{Index: 4, Name: StageRideCompleted, Predicate: hasDropoff, Mode: CountDistinctUser},
		{Index: 5, Name: StagePaymentApproved, Predicate: hasApprovedPayment, Mode: CountDistinctUser},
		{Index: 6, Name: StageReviewSubmitted, Predicate: hasReview, Mode: CountDistinctUser},
	}
}

// RideFunnelStages - The ride-grain journey from request to review.
func RideFunnelStages() []StageDefinition {
	return []StageDefinition{
		{Index: 0, Name: StageRideRequested, Predicate: hasRequest, Mode: CountDistinctRide},
		{Index: 1, Name: StageRideAccepted, Predicate: hasAccept, Mode: CountDistinctRide},
		{Index: 2, Name: StagePickedUp, Predicate: hasPickup, Mode: CountDistinctRide},
		{Index: 3, Name: StageRideCompleted, Predicate: hasDropoff, Mode: CountDistinctRide},
		{Index: 4, Name: StagePaymentApproved, Predicate: hasApprovedPayment, Mode: CountDistinctRide},
		{Index: 5, Name: StageReviewSubmitted, Predicate: hasReview, Mode: CountDistinctRide},
	}
}

// StagesWithMode returns a copy of the stage table with every stage's
// counting mode overridden. Used to derive the ride_count column of the
// segmented user funnel from the user stage table.
func StagesWithMode(stages []StageDefinition, mode int) []StageDefinition {
	overridden := make([]StageDefinition, len(stages))
	for i, stage := range stages {
		overridden[i] = stage
		overridden[i].Mode = mode
	}
	return overridden
}
