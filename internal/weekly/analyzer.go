// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package weekly compares two consecutive weeks of daily records for one
// customer: keyword-scored category trends, meal and toilet volumes, and
// attendance. Results are cached as JSON in the weekly status table so a
// repeated request does not rescan the records.
package weekly

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/carelog/internal/database"
)

const dateLayout = "2006-01-02"

// Keyword lists used by the note scorer. Matching runs against the note with
// all spaces removed, so PDF spacing noise does not hide a keyword.
var (
	positiveKeywords = []string{"개선", "안정", "호전", "유지", "활발", "양호", "미흡하지않음"}
	negativeKeywords = []string{"악화", "저하", "불안", "통증", "문제", "감소", "주의", "거부"}

	// Notes containing one of these are surfaced separately for review.
	highlightKeywords = []string{"통증", "거부", "증가", "감소", "악화", "호전", "불안", "주의", "사고"}

	mealTypes = []string{"일반식", "죽식", "다짐식", "경관식", "연식", "특식"}

	absenceStatuses = map[string]bool{"미이용": true, "결석": true, "일정없음": true}
)

// mealAmountRules maps intake phrasing to a label, first match wins.
var mealAmountRules = []struct {
	keywords []string
	label    string
}{
	{[]string{"전량", "정량", "완", "모두", "잘"}, "전량"},
	{[]string{"절반", "1/2", "반", "50%", "이하"}, "1/2이하"},
	{[]string{"거부", "못", "불가", "0%"}, "거부"},
}

// mealPortionRules converts portion phrasing inside a meal segment to a
// ratio of one full serving. Checked in order, first match wins; segments
// with no portion phrase count as half a serving.
var mealPortionRules = []struct {
	keyword string
	ratio   float64
}{
	{"1/2이상", 0.75},
	{"1/2 이상", 0.75},
	{"1/2이하", 0.25},
	{"1/2 이하", 0.25},
	{"정량", 1.0},
	{"전량", 1.0},
	{"완식", 1.0},
}

const defaultPortionRatio = 0.5

// mealTypeBuckets are the serving types totalled in the weekly table.
var mealTypeBuckets = []struct {
	label    string
	keywords []string
}{
	{"일반식", []string{"일반식"}},
	{"죽식", []string{"죽식"}},
	{"다진식", []string{"다진식", "다짐식"}},
}

var (
	mealSegmentRe = regexp.MustCompile(`[/,]`)

	stoolRe  = regexp.MustCompile(`(대변|배변)\s*(\d+)\s*회`)
	urineRe  = regexp.MustCompile(`(소변|배뇨)\s*(\d+)\s*회`)
	diaperRe = regexp.MustCompile(`(기저귀|교환)\s*(\d+)\s*회`)
)

// category order matters: output tables list categories in this order.
var categories = []struct {
	key   string
	label string
	note  func(*database.RecordDetail) string
}{
	{"physical", "신체활동", func(r *database.RecordDetail) string { return r.PhysicalNote }},
	{"cognitive", "인지관리", func(r *database.RecordDetail) string { return r.CognitiveNote }},
	{"nursing", "간호관리", func(r *database.RecordDetail) string { return r.NursingNote }},
	{"functional", "기능회복", func(r *database.RecordDetail) string { return r.FunctionalNote }},
}

// CategoryScore is the week over week sentiment score for one note category.
type CategoryScore struct {
	Label string   `json:"label"`
	Prev  *float64 `json:"prev"`
	Curr  *float64 `json:"curr"`
	Diff  *float64 `json:"diff"`
	Trend string   `json:"trend"`
}

// Metric is a per-attendance average with its week over week change.
type Metric struct {
	Label       string   `json:"label"`
	Prev        *float64 `json:"prev"`
	Curr        *float64 `json:"curr"`
	ChangeLabel string   `json:"change_label"`
	Percent     *float64 `json:"percent"`
}

// WeekNotes carries the merged daily notes for both weeks. Highlights are
// the current-week lines containing a highlight keyword.
type WeekNotes struct {
	Last       []string `json:"last"`
	This       []string `json:"this"`
	Highlights []string `json:"highlights"`
}

// WeekText is a one-line summary pair.
type WeekText struct {
	Last string `json:"last"`
	This string `json:"this"`
}

// WeekRow is one row of the two-row weekly comparison table.
type WeekRow struct {
	Week         string `json:"week"`
	Attendance   int    `json:"attendance"`
	MealRegular  string `json:"meal_regular"`
	MealPorridge string `json:"meal_porridge"`
	MealMinced   string `json:"meal_minced"`
	Urine        string `json:"urine"`
	Stool        string `json:"stool"`
	Diaper       string `json:"diaper"`
}

// CategoryNotes lists the current week's dated entries for one category.
type CategoryNotes struct {
	Label   string   `json:"label"`
	Entries []string `json:"entries"`
}

// WeekSummary is one week condensed for the report writer.
type WeekSummary struct {
	Physical   string             `json:"physical"`
	Cognitive  string             `json:"cognitive"`
	Nursing    string             `json:"nursing"`
	Functional string             `json:"functional"`
	Attendance int                `json:"attendance"`
	Meals      map[string]float64 `json:"meals"`
	Toilet     map[string]float64 `json:"toilet"`
}

// PerAttendance holds meal and toilet volumes averaged over attended days.
type PerAttendance struct {
	MealAvgPrev       *float64 `json:"meal_avg_prev"`
	MealAvgCurr       *float64 `json:"meal_avg_curr"`
	MealChangeLabel   string   `json:"meal_avg_change_label"`
	MealPercent       *float64 `json:"meal_avg_percent"`
	ToiletAvgPrev     *float64 `json:"toilet_avg_prev"`
	ToiletAvgCurr     *float64 `json:"toilet_avg_curr"`
	ToiletChangeLabel string   `json:"toilet_avg_change_label"`
	ToiletPercent     *float64 `json:"toilet_avg_percent"`
}

// Changes are absolute week over week deltas, formatted for display.
type Changes struct {
	Meal            string            `json:"meal"`
	Toilet          string            `json:"toilet"`
	ToiletBreakdown map[string]string `json:"toilet_breakdown"`
}

// Payload is the material handed to the weekly report writer.
type Payload struct {
	CurrentWeek          WeekSummary   `json:"current_week"`
	PreviousWeek         WeekSummary   `json:"previous_week"`
	PerAttendance        PerAttendance `json:"per_attendance"`
	Changes              Changes       `json:"changes"`
	PreviousWeeklyReport string        `json:"previous_weekly_report"`
}

// Trend is the full two-week comparison.
type Trend struct {
	Header        map[string]Metric        `json:"header"`
	Notes         WeekNotes                `json:"notes"`
	MealDetail    WeekText                 `json:"meal_detail"`
	ToiletDetail  WeekText                 `json:"toilet_detail"`
	WeeklyTable   []WeekRow                `json:"weekly_table"`
	CategoryNotes map[string]CategoryNotes `json:"category_notes"`
	Payload       Payload                  `json:"ai_payload"`
}

// Status is the cached result of one weekly analysis. The previous week runs
// Monday through Sunday immediately before the current week.
type Status struct {
	PrevStart string                   `json:"prev_start"`
	PrevEnd   string                   `json:"prev_end"`
	CurrStart string                   `json:"curr_start"`
	CurrEnd   string                   `json:"curr_end"`
	Scores    map[string]CategoryScore `json:"scores"`
	Trend     *Trend                   `json:"trend,omitempty"`
	Raw       []database.RecordDetail  `json:"raw,omitempty"`
}

// Analyzer reads daily records and produces weekly status summaries.
type Analyzer struct {
	customers *database.CustomerStore
	records   *database.RecordStore
	status    *database.WeeklyStatusStore
}

func NewAnalyzer(customers *database.CustomerStore, records *database.RecordStore, status *database.WeeklyStatusStore) *Analyzer {
	return &Analyzer{customers: customers, records: records, status: status}
}

// ComputeStatus builds the weekly status for the week containing weekStart.
// The week is aligned to Monday. When useCache is set and a cached analysis
// exists for the aligned range it is returned as-is; a cached value that is
// not analysis JSON (for example a saved report narrative) is ignored.
func (a *Analyzer) ComputeStatus(customerName, weekStart string, customerID int64, useCache bool) (*Status, error) {
	start, err := time.Parse(dateLayout, weekStart)
	if err != nil {
		return nil, fmt.Errorf("ComputeStatus: invalid week start %q: %w", weekStart, err)
	}
	aligned := start.AddDate(0, 0, -((int(start.Weekday()) + 6) % 7))
	currStart := aligned
	currEnd := aligned.AddDate(0, 0, 6)
	prevStart := aligned.AddDate(0, 0, -7)
	prevEnd := aligned.AddDate(0, 0, -1)

	if useCache && customerID != 0 {
		if cached := a.loadCache(customerID, currStart, currEnd); cached != nil {
			return cached, nil
		}
	}

	status := &Status{
		PrevStart: prevStart.Format(dateLayout),
		PrevEnd:   prevEnd.Format(dateLayout),
		CurrStart: currStart.Format(dateLayout),
		CurrEnd:   currEnd.Format(dateLayout),
		Scores:    map[string]CategoryScore{},
	}

	rows, err := a.fetchTwoWeeks(customerName, customerID, status.PrevStart, status.CurrEnd)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return status, nil
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
	status.Raw = rows
	status.Scores = a.scoreCategories(rows, status.CurrStart)
	status.Trend = a.analyzeTrend(rows, customerID, status)

	if customerID != 0 {
		a.saveCache(customerID, status)
	}
	return status, nil
}

// fetchTwoWeeks loads the records spanning both weeks. When the caller has no
// customer id the customer is looked up by name.
func (a *Analyzer) fetchTwoWeeks(customerName string, customerID int64, startDate, endDate string) ([]database.RecordDetail, error) {
	if customerID == 0 {
		customer, err := a.customers.FindByName(customerName)
		if err != nil {
			return nil, fmt.Errorf("fetchTwoWeeks: lookup %q: %w", customerName, err)
		}
		if customer == nil {
			return nil, nil
		}
		customerID = customer.CustomerID
	}
	rows, err := a.records.GetCustomerRecords(customerID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("fetchTwoWeeks: records for customer %d: %w", customerID, err)
	}
	return rows, nil
}

func (a *Analyzer) loadCache(customerID int64, start, end time.Time) *Status {
	text, err := a.status.Load(customerID, start.Format(dateLayout), end.Format(dateLayout))
	if err != nil || text == "" {
		return nil
	}
	var cached Status
	if err := json.Unmarshal([]byte(text), &cached); err != nil || cached.CurrStart == "" {
		return nil
	}
	return &cached
}

func (a *Analyzer) saveCache(customerID int64, status *Status) {
	data, err := json.Marshal(status)
	if err != nil {
		log.Printf("saveCache: marshal weekly status: %v", err)
		return
	}
	if err := a.status.Save(customerID, status.CurrStart, status.CurrEnd, string(data)); err != nil {
		log.Printf("saveCache: save weekly status: %v", err)
	}
}

// scoreCategories averages the note sentiment score per category and week.
func (a *Analyzer) scoreCategories(rows []database.RecordDetail, currStart string) map[string]CategoryScore {
	type bucket struct{ prev, curr []int }
	buckets := map[string]*bucket{}
	for i := range categories {
		buckets[categories[i].key] = &bucket{}
	}
	for i := range rows {
		curr := rows[i].Date >= currStart
		for _, cat := range categories {
			score := scoreText(cat.note(&rows[i]))
			b := buckets[cat.key]
			if curr {
				b.curr = append(b.curr, score)
			} else {
				b.prev = append(b.prev, score)
			}
		}
	}

	scores := map[string]CategoryScore{}
	for _, cat := range categories {
		b := buckets[cat.key]
		prev := average(b.prev)
		curr := average(b.curr)
		if prev == nil && curr == nil {
			continue
		}
		cs := CategoryScore{Label: cat.label, Prev: prev, Curr: curr, Trend: "변화 없음"}
		switch {
		case prev != nil && curr != nil:
			diff := round1(*curr - *prev)
			cs.Diff = &diff
			if diff > 1 {
				cs.Trend = "상승 ⬆️"
			} else if diff < -1 {
				cs.Trend = "하락 ⬇️"
			}
		case curr != nil:
			cs.Trend = "신규 데이터"
		}
		scores[cat.key] = cs
	}
	return scores
}

// analyzeTrend builds the detailed comparison between the two weeks.
func (a *Analyzer) analyzeTrend(rows []database.RecordDetail, customerID int64, status *Status) *Trend {
	var lastWeek, thisWeek []database.RecordDetail
	for i := range rows {
		if rows[i].Date >= status.CurrStart {
			thisWeek = append(thisWeek, rows[i])
		} else if rows[i].Date >= status.PrevStart {
			lastWeek = append(lastWeek, rows[i])
		}
	}

	lastMeals := sumMeals(lastWeek)
	thisMeals := sumMeals(thisWeek)
	lastToilet := sumToiletCounts(lastWeek)
	thisToilet := sumToiletCounts(thisWeek)
	attendancePrev := countAttendance(lastWeek)
	attendanceCurr := countAttendance(thisWeek)

	mealPrev := ratio(sumValues(lastMeals), attendancePrev)
	mealCurr := ratio(sumValues(thisMeals), attendanceCurr)
	toiletPrev := ratio(sumValues(lastToilet), attendancePrev)
	toiletCurr := ratio(sumValues(thisToilet), attendanceCurr)
	mealPercent := percentChange(mealPrev, mealCurr)
	toiletPercent := percentChange(toiletPrev, toiletCurr)

	lastEntries := collectCategoryEntries(lastWeek)
	thisEntries := collectCategoryEntries(thisWeek)

	categoryNotes := map[string]CategoryNotes{}
	for _, cat := range categories {
		categoryNotes[cat.key] = CategoryNotes{Label: cat.label, Entries: thisEntries[cat.key]}
	}

	thisNotes := mergeNotes(thisWeek)
	trend := &Trend{
		Header: map[string]Metric{
			"meal_amount": {Label: "식사량", Prev: mealPrev, Curr: mealCurr, ChangeLabel: changeLabel(mealPercent), Percent: mealPercent},
			"toilet":      {Label: "배설", Prev: toiletPrev, Curr: toiletCurr, ChangeLabel: changeLabel(toiletPercent), Percent: toiletPercent},
		},
		Notes: WeekNotes{
			Last:       mergeNotes(lastWeek),
			This:       thisNotes,
			Highlights: filterHighlights(thisNotes),
		},
		MealDetail: WeekText{
			Last: summarizeMealDetails(lastWeek),
			This: summarizeMealDetails(thisWeek),
		},
		ToiletDetail: WeekText{
			Last: summarizeToiletTotals(lastWeek),
			This: summarizeToiletTotals(thisWeek),
		},
		WeeklyTable: []WeekRow{
			weekRow("저번주", attendancePrev, lastMeals, lastToilet),
			weekRow("이번주", attendanceCurr, thisMeals, thisToilet),
		},
		CategoryNotes: categoryNotes,
		Payload: Payload{
			CurrentWeek:  weekSummary(thisEntries, attendanceCurr, thisMeals, thisToilet),
			PreviousWeek: weekSummary(lastEntries, attendancePrev, lastMeals, lastToilet),
			PerAttendance: PerAttendance{
				MealAvgPrev:       mealPrev,
				MealAvgCurr:       mealCurr,
				MealChangeLabel:   changeLabel(mealPercent),
				MealPercent:       mealPercent,
				ToiletAvgPrev:     toiletPrev,
				ToiletAvgCurr:     toiletCurr,
				ToiletChangeLabel: changeLabel(toiletPercent),
				ToiletPercent:     toiletPercent,
			},
			Changes: Changes{
				Meal:   formatTotal(sumValues(thisMeals) - sumValues(lastMeals)),
				Toilet: formatTotal(sumValues(thisToilet) - sumValues(lastToilet)),
				ToiletBreakdown: map[string]string{
					"소변":    formatTotal(thisToilet["소변"] - lastToilet["소변"]),
					"대변":    formatTotal(thisToilet["대변"] - lastToilet["대변"]),
					"기저귀교환": formatTotal(thisToilet["기저귀교환"] - lastToilet["기저귀교환"]),
				},
			},
			PreviousWeeklyReport: a.previousReport(customerID, status.PrevStart, status.PrevEnd),
		},
	}
	return trend
}

// previousReport hands the report writer last week's saved narrative, if any.
func (a *Analyzer) previousReport(customerID int64, startDate, endDate string) string {
	if customerID == 0 {
		return "없음"
	}
	text, err := a.status.Load(customerID, startDate, endDate)
	if err != nil || strings.TrimSpace(text) == "" {
		return "없음"
	}
	return text
}

// scoreText rates a note on a 0-100 scale, starting at 50 and moving 5
// points per matched keyword. Spaces are stripped before matching.
func scoreText(text string) int {
	if text == "" {
		return 50
	}
	normalized := strings.ReplaceAll(text, " ", "")
	score := 50
	for _, kw := range positiveKeywords {
		if strings.Contains(normalized, kw) {
			score += 5
		}
	}
	for _, kw := range negativeKeywords {
		if strings.Contains(normalized, kw) {
			score -= 5
		}
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func detectMealType(text string) string {
	for _, t := range mealTypes {
		if strings.Contains(text, t) {
			return t
		}
	}
	return ""
}

func mealAmountLabel(text string) string {
	if text == "" {
		return "정보없음"
	}
	for _, rule := range mealAmountRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.label
			}
		}
	}
	return "정보없음"
}

// extractMealTypeAmounts splits a meal cell on "/" and "," and totals
// serving ratios per meal type bucket.
func extractMealTypeAmounts(text string) map[string]float64 {
	totals := map[string]float64{}
	for _, bucket := range mealTypeBuckets {
		totals[bucket.label] = 0
	}
	if text == "" {
		return totals
	}
	for _, segment := range mealSegmentRe.Split(text, -1) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		ratio := defaultPortionRatio
		for _, rule := range mealPortionRules {
			if strings.Contains(segment, rule.keyword) {
				ratio = rule.ratio
				break
			}
		}
		for _, bucket := range mealTypeBuckets {
			for _, kw := range bucket.keywords {
				if strings.Contains(segment, kw) {
					totals[bucket.label] += ratio
					break
				}
			}
		}
	}
	return totals
}

// parseToiletBreakdown pulls stool, urine and diaper counts out of a toilet
// care cell, e.g. "대변 1회 소변 3회 (기저귀교환 2회)".
func parseToiletBreakdown(text string) map[string]float64 {
	detail := map[string]float64{"대변": 0, "소변": 0, "기저귀교환": 0}
	if text == "" {
		return detail
	}
	for _, m := range stoolRe.FindAllStringSubmatch(text, -1) {
		detail["대변"] += parseCount(m[2])
	}
	for _, m := range urineRe.FindAllStringSubmatch(text, -1) {
		detail["소변"] += parseCount(m[2])
	}
	for _, m := range diaperRe.FindAllStringSubmatch(text, -1) {
		detail["기저귀교환"] += parseCount(m[2])
	}
	return detail
}

func parseCount(s string) float64 {
	var n float64
	fmt.Sscanf(s, "%f", &n)
	return n
}

func sumMeals(rows []database.RecordDetail) map[string]float64 {
	totals := map[string]float64{}
	for _, bucket := range mealTypeBuckets {
		totals[bucket.label] = 0
	}
	for i := range rows {
		for _, text := range []string{rows[i].MealBreakfast, rows[i].MealLunch, rows[i].MealDinner} {
			for label, value := range extractMealTypeAmounts(text) {
				totals[label] += value
			}
		}
	}
	return totals
}

func sumToiletCounts(rows []database.RecordDetail) map[string]float64 {
	totals := map[string]float64{"대변": 0, "소변": 0, "기저귀교환": 0}
	for i := range rows {
		for key, value := range parseToiletBreakdown(rows[i].ToiletCare) {
			totals[key] += value
		}
	}
	return totals
}

// isAttended reports whether a day counts toward attendance. A day with an
// absence status in the service time column does not.
func isAttended(totalServiceTime string) bool {
	normalized := strings.TrimSpace(totalServiceTime)
	if normalized == "" {
		return false
	}
	return !absenceStatuses[normalized]
}

func countAttendance(rows []database.RecordDetail) int {
	count := 0
	for i := range rows {
		if isAttended(rows[i].TotalServiceTime) {
			count++
		}
	}
	return count
}

func sumValues(m map[string]float64) float64 {
	total := 0.0
	for _, v := range m {
		total += v
	}
	return total
}

func ratio(total float64, attendance int) *float64 {
	if attendance <= 0 {
		return nil
	}
	v := total / float64(attendance)
	return &v
}

func percentChange(prev, curr *float64) *float64 {
	if prev == nil || *prev == 0 || curr == nil {
		return nil
	}
	v := round1((*curr - *prev) / *prev * 100)
	return &v
}

func changeLabel(percent *float64) string {
	if percent == nil {
		return "데이터 부족"
	}
	if *percent > 0 {
		return fmt.Sprintf("%.1f%% 상승", *percent)
	}
	if *percent < 0 {
		return fmt.Sprintf("%.1f%% 하락", -*percent)
	}
	return "변화 없음"
}

func average(values []int) *float64 {
	if len(values) == 0 {
		return nil
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	avg := round1(float64(sum) / float64(len(values)))
	return &avg
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// formatTotal renders a count without a trailing .0 when it is whole.
func formatTotal(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}

// shortDate trims an ISO date to MM-DD for note prefixes.
func shortDate(date string) string {
	if len(date) >= 10 {
		return date[5:10]
	}
	return date
}

// mergeNotes flattens each day's category notes into one prefixed line.
func mergeNotes(rows []database.RecordDetail) []string {
	var notes []string
	for i := range rows {
		var parts []string
		if rows[i].PhysicalNote != "" {
			parts = append(parts, "신체: "+rows[i].PhysicalNote)
		}
		if rows[i].CognitiveNote != "" {
			parts = append(parts, "인지: "+rows[i].CognitiveNote)
		}
		if rows[i].NursingNote != "" {
			parts = append(parts, "간호: "+rows[i].NursingNote)
		}
		if rows[i].FunctionalNote != "" {
			parts = append(parts, "기능: "+rows[i].FunctionalNote)
		}
		if len(parts) == 0 {
			continue
		}
		notes = append(notes, fmt.Sprintf("[%s] %s", shortDate(rows[i].Date), strings.Join(parts, " / ")))
	}
	return notes
}

func filterHighlights(notes []string) []string {
	var highlights []string
	for _, line := range notes {
		for _, kw := range highlightKeywords {
			if strings.Contains(line, kw) {
				highlights = append(highlights, line)
				break
			}
		}
	}
	return highlights
}

// summarizeMealDetails renders each day's meals as "type (amount)" entries.
func summarizeMealDetails(rows []database.RecordDetail) string {
	var details []string
	for i := range rows {
		var day []string
		for _, text := range []string{rows[i].MealBreakfast, rows[i].MealLunch, rows[i].MealDinner} {
			if text == "" {
				continue
			}
			mealType := detectMealType(text)
			if mealType == "" {
				mealType = "미확인"
			}
			day = append(day, fmt.Sprintf("%s (%s)", mealType, mealAmountLabel(text)))
		}
		if len(day) > 0 {
			details = append(details, strings.Join(day, " / "))
		}
	}
	if len(details) == 0 {
		return "-"
	}
	return strings.Join(details, " / ")
}

func summarizeToiletTotals(rows []database.RecordDetail) string {
	totals := sumToiletCounts(rows)
	if totals["대변"] == 0 && totals["소변"] == 0 && totals["기저귀교환"] == 0 {
		return "-"
	}
	return fmt.Sprintf("대변%d회/소변%d회 (기저귀교환%d회)",
		int(totals["대변"]), int(totals["소변"]), int(totals["기저귀교환"]))
}

// collectCategoryEntries gathers dated note lines per category key.
func collectCategoryEntries(rows []database.RecordDetail) map[string][]string {
	entries := map[string][]string{}
	for i := range rows {
		for _, cat := range categories {
			text := cat.note(&rows[i])
			if text == "" {
				continue
			}
			entries[cat.key] = append(entries[cat.key], fmt.Sprintf("[%s] %s", shortDate(rows[i].Date), text))
		}
	}
	return entries
}

func formatEntryList(entries []string) string {
	if len(entries) == 0 {
		return "없음"
	}
	return strings.Join(entries, "\n")
}

func weekSummary(entries map[string][]string, attendance int, meals, toilet map[string]float64) WeekSummary {
	return WeekSummary{
		Physical:   formatEntryList(entries["physical"]),
		Cognitive:  formatEntryList(entries["cognitive"]),
		Nursing:    formatEntryList(entries["nursing"]),
		Functional: formatEntryList(entries["functional"]),
		Attendance: attendance,
		Meals: map[string]float64{
			"일반식": meals["일반식"],
			"죽식":  meals["죽식"],
			"다진식": meals["다진식"],
		},
		Toilet: map[string]float64{
			"소변":    toilet["소변"],
			"대변":    toilet["대변"],
			"기저귀교환": toilet["기저귀교환"],
		},
	}
}

func weekRow(week string, attendance int, meals, toilet map[string]float64) WeekRow {
	return WeekRow{
		Week:         week,
		Attendance:   attendance,
		MealRegular:  formatTotal(meals["일반식"]),
		MealPorridge: formatTotal(meals["죽식"]),
		MealMinced:   formatTotal(meals["다진식"]),
		Urine:        formatTotal(toilet["소변"]) + "회",
		Stool:        formatTotal(toilet["대변"]) + "회",
		Diaper:       formatTotal(toilet["기저귀교환"]) + "회",
	}
}
