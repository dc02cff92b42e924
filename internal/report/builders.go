package report

import (
	"fmt"
	"strconv"

	"github.com/foxzi/mailpanel/internal/abtest"
	"github.com/foxzi/mailpanel/internal/metrics"
	"github.com/foxzi/mailpanel/internal/models"
)

// BuildUserReport renders the campaign summary of user
func BuildUserReport(r models.UserReport, user models.User, charts ...Chart) (doc *Document, err error) {
	defer func() { metrics.IncReportsGenerated("user", err) }()

	date := now()
	owner := user.Username
	if owner == "" {
		owner = user.Email
	}

	p := newPage("Campaign report")
	p.heading("Campaign report", fmt.Sprintf("%s - generated %s", owner, date.Format("2006-01-02 15:04")))

	p.section("Summary")
	p.info([][2]string{
		{"User", owner},
		{"Email", user.Email},
		{"Campaigns", strconv.Itoa(r.TotalCampaigns)},
		{"Contacts", strconv.Itoa(r.TotalContacts)},
		{"Contact groups", strconv.Itoa(len(r.ContactGroups))},
	})

	p.section("Campaigns by status")
	p.bars([]bar{
		{"Draft", r.CampaignStats.Draft, colorBarA},
		{"Scheduled", r.CampaignStats.Scheduled, colorBarA},
		{"Sent", r.CampaignStats.Sent, colorBarA},
		{"Cancelled", r.CampaignStats.Cancelled, colorBarB},
	})

	p.section("Contact groups")
	groupRows := make([][]string, 0, len(r.ContactGroups))
	for _, g := range r.ContactGroups {
		groupRows = append(groupRows, []string{g.Name, strconv.Itoa(g.ContactCount)})
	}
	p.table([]string{"Group", "Contacts"}, []float64{0.7, 0.3}, groupRows)

	p.section("Campaigns")
	campaignRows := make([][]string, 0, len(r.Campaigns))
	for _, c := range r.Campaigns {
		sendAt := c.SendAt
		if sendAt == "" {
			sendAt = "-"
		}
		campaignRows = append(campaignRows, []string{c.Name, c.Status, sendAt, strconv.Itoa(groupSize(c))})
	}
	p.table([]string{"Name", "Status", "Send at", "Recipients"}, []float64{0.4, 0.15, 0.3, 0.15}, campaignRows)

	if len(r.Campaigns) > 0 {
		recipients, err := recipientsChart(r.Campaigns)
		if err != nil {
			return nil, err
		}
		charts = append([]Chart{recipients}, charts...)
	}
	for _, c := range charts {
		p.chart(c)
	}

	p.section("Recommendations")
	for _, text := range userRecommendations(r) {
		p.paragraph(text)
	}

	return p.render(FileName("report", owner, date))
}

// BuildABTestReport renders the comparison of both variants of t
func BuildABTestReport(t models.ABTest, charts ...Chart) (doc *Document, err error) {
	defer func() { metrics.IncReportsGenerated("abtest", err) }()

	if t.Results == nil {
		return nil, fmt.Errorf("A/B test %q has no results", t.ID)
	}
	date := now()
	a, b := t.Results.GroupA, t.Results.GroupB

	p := newPage("A/B test report")
	p.heading("A/B test: "+t.Name, "Generated "+date.Format("2006-01-02 15:04"))

	p.section("Test")
	p.info([][2]string{
		{"Campaign", t.CampaignName},
		{"Created", t.Date},
		{"Subject", t.Subject},
		{"Variant A", t.GroupA},
		{"Variant B", t.GroupB},
	})

	p.section("Results")
	p.table([]string{"Metric", "Variant A", "Variant B"}, []float64{0.4, 0.3, 0.3}, [][]string{
		{"Sent", strconv.Itoa(a.Sent), strconv.Itoa(b.Sent)},
		{"Opened", strconv.Itoa(a.Opened), strconv.Itoa(b.Opened)},
		{"Open rate", percent(a.OpenRate()), percent(b.OpenRate())},
		{"Clicked", strconv.Itoa(a.Clicked), strconv.Itoa(b.Clicked)},
		{"Click rate", percent(a.ClickRate()), percent(b.ClickRate())},
		{"Converted", strconv.Itoa(a.Converted), strconv.Itoa(b.Converted)},
		{"Conversion rate", percent(a.ConversionRate()), percent(b.ConversionRate())},
		{"Revenue", "$" + strconv.Itoa(a.Revenue), "$" + strconv.Itoa(b.Revenue)},
	})

	p.section("Funnel")
	p.bars([]bar{
		{"A opened", a.Opened, colorBarA},
		{"B opened", b.Opened, colorBarB},
		{"A clicked", a.Clicked, colorBarA},
		{"B clicked", b.Clicked, colorBarB},
		{"A converted", a.Converted, colorBarA},
		{"B converted", b.Converted, colorBarB},
	})

	rates, err := ratesChart(*t.Results)
	if err != nil {
		return nil, err
	}
	charts = append([]Chart{rates}, charts...)
	for _, c := range charts {
		p.chart(c)
	}

	p.section("Recommendations")
	for _, text := range abTestRecommendations(t) {
		p.paragraph(text)
	}

	return p.render(FileName("abtest", t.Name, date))
}

func groupSize(c models.Campaign) int {
	if c.Groups == nil {
		return 0
	}
	n := 0
	for _, g := range c.Groups.Groups {
		n += len(g.Contacts)
	}
	return n
}

func userRecommendations(r models.UserReport) []string {
	var out []string
	s := r.CampaignStats
	if r.TotalCampaigns == 0 {
		return []string{"No campaigns yet. Create a first campaign to start collecting engagement data."}
	}
	if s.Draft > 0 {
		out = append(out, fmt.Sprintf("%d campaign(s) are still drafts. Review and schedule them so they reach your audience.", s.Draft))
	}
	if s.Scheduled == 0 && s.Sent > 0 {
		out = append(out, "Nothing is scheduled. Plan the next send to keep a steady cadence.")
	}
	if s.Cancelled > 0 && s.Cancelled*4 >= r.TotalCampaigns {
		out = append(out, "A large share of campaigns was cancelled. Check content and audience before scheduling.")
	}
	if len(r.ContactGroups) == 1 {
		out = append(out, "All campaigns target a single group. Segmenting contacts allows A/B testing and more relevant content.")
	}
	if len(out) == 0 {
		out = append(out, "Campaign activity looks healthy. Keep testing subject lines to improve open rates.")
	}
	return out
}

func abTestRecommendations(t models.ABTest) []string {
	r := *t.Results
	switch abtest.Winner(r) {
	case "A":
		return []string{fmt.Sprintf("Variant A (%s) converted better at %s versus %s. Use it for the full send.",
			t.GroupA, percent(r.GroupA.ConversionRate()), percent(r.GroupB.ConversionRate()))}
	case "B":
		return []string{fmt.Sprintf("Variant B (%s) converted better at %s versus %s. Use it for the full send.",
			t.GroupB, percent(r.GroupB.ConversionRate()), percent(r.GroupA.ConversionRate()))}
	default:
		return []string{"Both variants performed the same. Run the test on a larger audience before deciding."}
	}
}
