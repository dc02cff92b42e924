package report

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/foxzi/mailpanel/internal/models"
)

func fixedClock(t *testing.T) {
	t.Helper()
	orig := now
	now = func() time.Time { return time.Date(2025, 2, 3, 10, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = orig })
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		for y := 0; y < 20; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), G: 99, B: 235, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func sampleReport() models.UserReport {
	return models.UserReport{
		Campaigns: []models.Campaign{
			{ID: 1, Name: "Promoción de otoño", Status: models.CampaignStatusDraft},
			{ID: 2, Name: strings.Repeat("Very long campaign name ", 10), Status: models.CampaignStatusSent, SendAt: "2025-01-01T09:00:00Z"},
		},
		TotalCampaigns: 2,
		ContactGroups:  []models.GroupCount{{Name: "VIP", ContactCount: 6}},
		TotalContacts:  6,
		CampaignStats:  models.CampaignStats{Draft: 1, Sent: 1},
	}
}

func sampleABTest() models.ABTest {
	return models.ABTest{
		ID:           "t1",
		Name:         "Asunto: ¿cuál gana?",
		Date:         "2025-02-01T00:00:00Z",
		CampaignName: "Spring",
		GroupA:       "VIP",
		GroupB:       "Leads",
		Results: &models.ABTestResults{
			GroupA: models.Funnel{Sent: 1000, Opened: 300, Clicked: 40, Converted: 2, Revenue: 120},
			GroupB: models.Funnel{Sent: 1000, Opened: 250, Clicked: 30, Converted: 1, Revenue: 50},
		},
	}
}

func TestBuildUserReport(t *testing.T) {
	fixedClock(t)

	doc, err := BuildUserReport(sampleReport(), models.User{Username: "ana lópez", Email: "ana@example.com"},
		Chart{Title: "Status", PNG: testPNG(t)})
	if err != nil {
		t.Fatalf("BuildUserReport() error = %v", err)
	}
	if !bytes.HasPrefix(doc.Bytes(), []byte("%PDF-")) {
		t.Error("expected PDF header")
	}
	if doc.Name != "report_ana_l_pez_2025-02-03.pdf" {
		t.Errorf("Name = %q", doc.Name)
	}
}

func TestBuildUserReportEmpty(t *testing.T) {
	doc, err := BuildUserReport(models.UserReport{}, models.User{})
	if err != nil {
		t.Fatalf("BuildUserReport() error = %v", err)
	}
	if len(doc.Bytes()) == 0 {
		t.Error("expected non-empty document")
	}
}

func TestBuildABTestReport(t *testing.T) {
	fixedClock(t)

	doc, err := BuildABTestReport(sampleABTest())
	if err != nil {
		t.Fatalf("BuildABTestReport() error = %v", err)
	}
	if !bytes.HasPrefix(doc.Bytes(), []byte("%PDF-")) {
		t.Error("expected PDF header")
	}
	if doc.Name != "abtest_Asunto_cu_l_gana_2025-02-03.pdf" {
		t.Errorf("Name = %q", doc.Name)
	}
}

func TestBuildABTestReportErrors(t *testing.T) {
	test := sampleABTest()
	test.Results = nil
	if _, err := BuildABTestReport(test); err == nil {
		t.Error("expected error for test without results")
	}

	if _, err := BuildABTestReport(sampleABTest(), Chart{Title: "broken", PNG: []byte("not a png")}); err == nil {
		t.Error("expected error for invalid chart image")
	}
}

func TestDocumentSaveFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	doc := &Document{Name: "report_x_2025-01-01.pdf", data: []byte("%PDF-1.3 test")}

	path, err := doc.SaveFile(dir)
	if err != nil {
		t.Fatalf("SaveFile() error = %v", err)
	}
	if path != filepath.Join(dir, doc.Name) {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "%PDF-1.3 test" {
		t.Errorf("unexpected file content %q, %v", data, err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the report in %s, found %d entries", dir, len(entries))
	}
}

func TestDocumentWriteTo(t *testing.T) {
	doc := &Document{Name: "x.pdf", data: []byte("abc")}
	var buf bytes.Buffer
	n, err := doc.WriteTo(&buf)
	if err != nil || n != 3 || buf.String() != "abc" {
		t.Errorf("WriteTo() = %d, %v, %q", n, err, buf.String())
	}
}

func TestFileName(t *testing.T) {
	date := time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		want string
	}{
		{"Black Friday", "report_Black_Friday_2024-12-31.pdf"},
		{"  spaced--out  ", "report_spaced--out_2024-12-31.pdf"},
		{"a/b\\c:d", "report_a_b_c_d_2024-12-31.pdf"},
		{"!!!", "report_untitled_2024-12-31.pdf"},
		{"", "report_untitled_2024-12-31.pdf"},
	}
	for _, tt := range tests {
		if got := FileName("report", tt.name, date); got != tt.want {
			t.Errorf("FileName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
