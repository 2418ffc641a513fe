// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

package weekly

import (
	"strings"
	"testing"

	"github.com/carelog/internal/careparse"
	"github.com/carelog/internal/database"
)

func openTestAnalyzer(t *testing.T) (*Analyzer, *database.RecordStore, *database.WeeklyStatusStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	customers, err := database.NewCustomerStore(db)
	if err != nil {
		t.Fatalf("customer store: %v", err)
	}
	records, err := database.NewRecordStore(db, customers)
	if err != nil {
		t.Fatalf("record store: %v", err)
	}
	status, err := database.NewWeeklyStatusStore(db)
	if err != nil {
		t.Fatalf("weekly status store: %v", err)
	}
	return NewAnalyzer(customers, records, status), records, status
}

func dayRecord(date, physicalNote string) careparse.DailyRecord {
	return careparse.DailyRecord{
		Date:             date,
		CustomerName:     "김영희",
		TotalServiceTime: "480분",
		MealBreakfast:    "일반식 전량",
		MealLunch:        "죽식 1/2이하",
		ToiletCare:       "대변 1회 소변 2회 기저귀교환 1회",
		PhysicalNote:     physicalNote,
		CognitiveNote:    "색칠하기 집중함",
	}
}

func TestScoreText(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 50},
		{"컨디션 양호, 걷기 운동 유지", 60},
		{"통증 호소하며 활동 거부", 40},
		{"개 선 및 호전 보임", 60},
		{"무난한 하루", 50},
	}
	for _, tc := range cases {
		if got := scoreText(tc.text); got != tc.want {
			t.Errorf("scoreText(%q)=%d want %d", tc.text, got, tc.want)
		}
	}
}

func TestMealAmountLabel(t *testing.T) {
	cases := map[string]string{
		"일반식 전량":  "전량",
		"죽식 1/2": "1/2이하",
		"식사 거부":   "거부",
		// "일반식" contains "반", which the halving keywords match.
		"일반식": "1/2이하",
		"죽식":  "정보없음",
		"":    "정보없음",
	}
	for text, want := range cases {
		if got := mealAmountLabel(text); got != want {
			t.Errorf("mealAmountLabel(%q)=%q want %q", text, got, want)
		}
	}
}

func TestDetectMealType(t *testing.T) {
	if got := detectMealType("점심 죽식 제공"); got != "죽식" {
		t.Fatalf("got %q", got)
	}
	if got := detectMealType("미음"); got != "" {
		t.Fatalf("expected no type, got %q", got)
	}
}

func TestExtractMealTypeAmounts(t *testing.T) {
	// The segment split on "/" also cuts the fraction in "1/2이하", so the
	// 죽식 segment loses its portion phrase and falls back to the default
	// half serving.
	totals := extractMealTypeAmounts("일반식 전량 / 죽식 1/2이하 / 다짐식")
	if totals["일반식"] != 1.0 {
		t.Errorf("일반식=%v want 1.0", totals["일반식"])
	}
	if totals["죽식"] != 0.5 {
		t.Errorf("죽식=%v want 0.5 (portion cut by the segment split)", totals["죽식"])
	}
	if totals["다진식"] != 0.5 {
		t.Errorf("다진식=%v want 0.5 (default ratio)", totals["다진식"])
	}

	whole := extractMealTypeAmounts("죽식 1컵, 일반식 정량")
	if whole["죽식"] != 0.5 || whole["일반식"] != 1.0 {
		t.Errorf("unexpected totals: %v", whole)
	}
}

func TestParseToiletBreakdown(t *testing.T) {
	detail := parseToiletBreakdown("대변 2회 소변 3회 (기저귀교환 1회)")
	if detail["대변"] != 2 || detail["소변"] != 3 || detail["기저귀교환"] != 1 {
		t.Fatalf("unexpected breakdown: %v", detail)
	}
	empty := parseToiletBreakdown("")
	if empty["대변"] != 0 || empty["소변"] != 0 {
		t.Fatalf("expected zero breakdown, got %v", empty)
	}
	// 배변/배뇨 count toward the same buckets.
	alt := parseToiletBreakdown("배변1회 배뇨4회")
	if alt["대변"] != 1 || alt["소변"] != 4 {
		t.Fatalf("unexpected alt breakdown: %v", alt)
	}
}

func TestIsAttended(t *testing.T) {
	for _, absent := range []string{"", "미이용", "결석", "일정없음", " 결석 "} {
		if isAttended(absent) {
			t.Errorf("isAttended(%q)=true", absent)
		}
	}
	if !isAttended("480분") {
		t.Error("480분 should count as attended")
	}
}

func TestPercentChangeAndLabel(t *testing.T) {
	prev, curr := 2.0, 3.0
	pct := percentChange(&prev, &curr)
	if pct == nil || *pct != 50.0 {
		t.Fatalf("percentChange=%v want 50.0", pct)
	}
	if got := changeLabel(pct); got != "50.0% 상승" {
		t.Errorf("changeLabel=%q", got)
	}
	down := -12.5
	if got := changeLabel(&down); got != "12.5% 하락" {
		t.Errorf("changeLabel=%q", got)
	}
	if got := changeLabel(nil); got != "데이터 부족" {
		t.Errorf("changeLabel(nil)=%q", got)
	}
	zero := 0.0
	if got := changeLabel(&zero); got != "변화 없음" {
		t.Errorf("changeLabel(0)=%q", got)
	}
	if percentChange(nil, &curr) != nil {
		t.Error("missing prev should yield nil")
	}
	zeroPrev := 0.0
	if percentChange(&zeroPrev, &curr) != nil {
		t.Error("zero prev should yield nil")
	}
}

func TestFormatTotal(t *testing.T) {
	if got := formatTotal(3.0); got != "3" {
		t.Errorf("formatTotal(3.0)=%q", got)
	}
	if got := formatTotal(2.5); got != "2.5" {
		t.Errorf("formatTotal(2.5)=%q", got)
	}
}

func TestComputeStatusTwoWeeks(t *testing.T) {
	analyzer, records, _ := openTestAnalyzer(t)

	prevDay := dayRecord("2025-11-04", "워커 보행 유지, 상태 양호")
	currDay := dayRecord("2025-11-11", "보행 시 통증 호소, 활동 거부")
	currDay.ToiletCare = "대변 2회 소변 4회"
	absent := dayRecord("2025-11-12", "")
	absent.TotalServiceTime = "결석"
	absent.MealBreakfast = ""
	absent.MealLunch = ""
	absent.ToiletCare = ""
	absent.CognitiveNote = ""

	if _, err := records.SaveParsedData([]careparse.DailyRecord{prevDay, currDay, absent}); err != nil {
		t.Fatalf("save records: %v", err)
	}

	status, err := analyzer.ComputeStatus("김영희", "2025-11-12", 0, false)
	if err != nil {
		t.Fatalf("ComputeStatus: %v", err)
	}
	if status.CurrStart != "2025-11-10" || status.CurrEnd != "2025-11-16" {
		t.Fatalf("unexpected aligned range %s..%s", status.CurrStart, status.CurrEnd)
	}
	if status.PrevStart != "2025-11-03" || status.PrevEnd != "2025-11-09" {
		t.Fatalf("unexpected previous range %s..%s", status.PrevStart, status.PrevEnd)
	}

	phy, ok := status.Scores["physical"]
	if !ok {
		t.Fatal("missing physical score")
	}
	// prev week: 유지+양호 = 60, curr week: 통증+거부 = 40 and empty = 50.
	if phy.Prev == nil || *phy.Prev != 60 {
		t.Errorf("physical prev=%v want 60", phy.Prev)
	}
	if phy.Curr == nil || *phy.Curr != 45 {
		t.Errorf("physical curr=%v want 45", phy.Curr)
	}
	if phy.Trend != "하락 ⬇️" {
		t.Errorf("physical trend=%q", phy.Trend)
	}

	if status.Trend == nil {
		t.Fatal("missing trend")
	}
	table := status.Trend.WeeklyTable
	if len(table) != 2 {
		t.Fatalf("weekly table rows=%d", len(table))
	}
	if table[0].Attendance != 1 || table[1].Attendance != 1 {
		t.Errorf("attendance prev=%d curr=%d, absence day should not count", table[0].Attendance, table[1].Attendance)
	}
	if table[1].Stool != "2회" || table[1].Urine != "4회" {
		t.Errorf("current toilet row %+v", table[1])
	}
	if len(status.Trend.Notes.Highlights) == 0 {
		t.Error("note with 통증/거부 should be highlighted")
	}
	payload := status.Trend.Payload
	if !strings.Contains(payload.CurrentWeek.Physical, "통증") {
		t.Errorf("payload current physical %q", payload.CurrentWeek.Physical)
	}
	if payload.PreviousWeeklyReport != "없음" {
		t.Errorf("previous report %q", payload.PreviousWeeklyReport)
	}
}

func TestComputeStatusCacheRoundTrip(t *testing.T) {
	analyzer, records, _ := openTestAnalyzer(t)

	if _, err := records.SaveParsedData([]careparse.DailyRecord{dayRecord("2025-11-11", "산책 유지")}); err != nil {
		t.Fatalf("save records: %v", err)
	}
	customer, err := analyzer.customers.FindByName("김영희")
	if err != nil || customer == nil {
		t.Fatalf("find customer: %v", err)
	}

	first, err := analyzer.ComputeStatus("김영희", "2025-11-10", customer.CustomerID, true)
	if err != nil {
		t.Fatalf("first ComputeStatus: %v", err)
	}
	if first.Trend == nil {
		t.Fatal("expected trend on first run")
	}

	// More data arrives, but the cached analysis is served unchanged.
	if _, err := records.SaveParsedData([]careparse.DailyRecord{dayRecord("2025-11-12", "새 기록")}); err != nil {
		t.Fatalf("save records: %v", err)
	}
	cached, err := analyzer.ComputeStatus("김영희", "2025-11-10", customer.CustomerID, true)
	if err != nil {
		t.Fatalf("cached ComputeStatus: %v", err)
	}
	if len(cached.Raw) != len(first.Raw) {
		t.Errorf("cache should be reused: raw %d vs %d", len(cached.Raw), len(first.Raw))
	}

	fresh, err := analyzer.ComputeStatus("김영희", "2025-11-10", customer.CustomerID, false)
	if err != nil {
		t.Fatalf("fresh ComputeStatus: %v", err)
	}
	if len(fresh.Raw) != 2 {
		t.Errorf("bypassing cache should rescan, raw=%d", len(fresh.Raw))
	}
}

func TestComputeStatusIgnoresReportTextInCache(t *testing.T) {
	analyzer, records, status := openTestAnalyzer(t)

	if _, err := records.SaveParsedData([]careparse.DailyRecord{dayRecord("2025-11-11", "산책")}); err != nil {
		t.Fatalf("save records: %v", err)
	}
	customer, err := analyzer.customers.FindByName("김영희")
	if err != nil || customer == nil {
		t.Fatalf("find customer: %v", err)
	}
	// A saved narrative occupies the row; it is not analysis JSON.
	if err := status.Save(customer.CustomerID, "2025-11-10", "2025-11-16", "이번주에도 걷기 운동을 꾸준히 지속하심."); err != nil {
		t.Fatalf("save report: %v", err)
	}

	got, err := analyzer.ComputeStatus("김영희", "2025-11-10", customer.CustomerID, true)
	if err != nil {
		t.Fatalf("ComputeStatus: %v", err)
	}
	if got.Trend == nil || len(got.Raw) != 1 {
		t.Fatal("expected a fresh analysis when cache holds report text")
	}
}

func TestComputeStatusNoRecords(t *testing.T) {
	analyzer, _, _ := openTestAnalyzer(t)
	status, err := analyzer.ComputeStatus("없는사람", "2025-11-10", 0, false)
	if err != nil {
		t.Fatalf("ComputeStatus: %v", err)
	}
	if status.Trend != nil || len(status.Scores) != 0 {
		t.Fatal("expected empty status for unknown customer")
	}
}

func TestComputeStatusBadDate(t *testing.T) {
	analyzer, _, _ := openTestAnalyzer(t)
	if _, err := analyzer.ComputeStatus("김영희", "11/10/2025", 0, false); err == nil {
		t.Fatal("expected error for malformed date")
	}
}
