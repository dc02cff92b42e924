package models

// CampaignMetrics are engagement totals of one campaign
type CampaignMetrics struct {
	Opens         int     `json:"opens"`
	Clicks        int     `json:"clicks"`
	Registrations int     `json:"registrations"`
	Revenue       float64 `json:"revenue"`
}

// AdminCampaign is a campaign with its resolved owner and metrics
type AdminCampaign struct {
	Campaign
	Owner   User            `json:"usuario"`
	Metrics CampaignMetrics `json:"metrics"`
}

// FleetStats is the admin-wide reduction over all campaigns
type FleetStats struct {
	TotalCampaigns     int     `json:"totalCampaigns"`
	TotalUsers         int     `json:"totalUsers"`
	TotalOpens         int     `json:"totalOpens"`
	TotalClicks        int     `json:"totalClicks"`
	TotalRegistrations int     `json:"totalRegistrations"`
	TotalRevenue       float64 `json:"totalRevenue"`
}

// FleetView is the admin view payload
type FleetView struct {
	Campaigns []AdminCampaign `json:"campaigns"`
	Users     []User          `json:"users"`
	Stats     FleetStats      `json:"stats"`
}
