package models

// CampaignStats counts campaigns by state
type CampaignStats struct {
	Draft     int `json:"draft"`
	Scheduled int `json:"scheduled"`
	Sent      int `json:"sent"`
	Cancelled int `json:"cancelled"`
}

// GroupCount is the summed size of a contact group across campaigns
type GroupCount struct {
	Name         string `json:"name"`
	ContactCount int    `json:"contactCount"`
}

// UserReport is the per-user campaign aggregate
type UserReport struct {
	Campaigns      []Campaign    `json:"campaigns"`
	TotalCampaigns int           `json:"totalCampaigns"`
	ContactGroups  []GroupCount  `json:"contactGroups"`
	TotalContacts  int           `json:"totalContacts"`
	CampaignStats  CampaignStats `json:"campaignStats"`
}
