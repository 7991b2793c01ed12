package handlers

import "time"

// TotalResponse is the response for the aggregate message count.
type TotalResponse struct {
	Body struct {
		Total uint64 `doc:"Messages counted since startup" example:"42" json:"total"`
	}
}

// KeyCountRequest is the request for a single author's count.
type KeyCountRequest struct {
	Key string `doc:"The author id" example:"123456789" minLength:"1" path:"key"`
}

// KeyCountResponse is the response for a single author's count.
type KeyCountResponse struct {
	Body struct {
		Key   string `doc:"The author id"                example:"123456789" json:"key"`
		Count uint64 `doc:"Messages counted for the key" example:"7"         json:"count"`
	}
}

// LatestReportResponse is the response for the most recently persisted report.
type LatestReportResponse struct {
	Body struct {
		Total      uint64    `doc:"Reported aggregate"        example:"42"                   json:"total"`
		ReportedAt time.Time `doc:"When the tick was reported" example:"2024-01-01T00:00:00Z" json:"reportedAt"`
	}
}
