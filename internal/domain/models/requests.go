package models

// Requests for the read facade. Count fields carry defaults and are
// clamp-filtered by the handlers; out-of-range values fall back rather
// than erroring.

type TopSignalsRequest struct {
	Count string `query:"count" json:"count"`
}

type ExplosionsRequest struct {
	Count string `query:"count" json:"count"`
}

type RankingsRequest struct {
	View  string `query:"view" json:"view" default:"gainers"`
	Count string `query:"count" json:"count"`
}

type StateRequest struct {
	Token string `query:"token" json:"token" validate:"required"`
}

type CandlesRequest struct {
	Token string `query:"token" json:"token" validate:"required"`
	TF    string `query:"tf" json:"tf" default:"5m" validate:"oneof=5m 15m day"`
	N     int    `query:"n" json:"n" default:"120" validate:"gte=1,lte=1000"`
}
