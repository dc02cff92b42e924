package models

// ABTest is a locally persisted A/B test
type ABTest struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Date         string         `json:"date"`
	CampaignID   int64          `json:"campaignId"`
	CampaignName string         `json:"campaignName"`
	GroupA       string         `json:"groupA"`
	GroupB       string         `json:"groupB"`
	Subject      string         `json:"subject"`
	HTMLA        string         `json:"emailHtmlA"`
	HTMLB        string         `json:"emailHtmlB"`
	Results      *ABTestResults `json:"results,omitempty"`
}

// ABTestResults holds the funnel of both variants
type ABTestResults struct {
	GroupA Funnel `json:"groupA"`
	GroupB Funnel `json:"groupB"`
}

// Funnel is sent -> opened -> clicked -> converted -> revenue.
// 0 <= Converted <= Clicked <= Opened <= Sent.
type Funnel struct {
	Sent      int `json:"sent"`
	Opened    int `json:"opened"`
	Clicked   int `json:"clicked"`
	Converted int `json:"converted"`
	Revenue   int `json:"revenue"`
}

// OpenRate returns opened/sent, 0 when nothing was sent
func (f Funnel) OpenRate() float64 {
	return ratio(f.Opened, f.Sent)
}

// ClickRate returns clicked/opened
func (f Funnel) ClickRate() float64 {
	return ratio(f.Clicked, f.Opened)
}

// ConversionRate returns converted/sent
func (f Funnel) ConversionRate() float64 {
	return ratio(f.Converted, f.Sent)
}

func ratio(a, b int) float64 {
	if b <= 0 {
		return 0
	}
	return float64(a) / float64(b)
}
