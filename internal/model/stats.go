package model

type DashboardStats struct {
	TotalRequest  int         `json:"total_request"`
	TotalPending  int         `json:"total_pending"`
	TotalApproved int         `json:"total_approved"`
	TotalRejected int         `json:"total_rejected"`
	TotalMember   int         `json:"total_member"`
	ChartInfo     []ChartData `json:"chart_info"`
}

type ChartData struct {
	Month     string `json:"month"`
	Reviewing int    `json:"reviewing"`
	Approved  int    `json:"approved"`
	Rejected  int    `json:"rejected"`
}
