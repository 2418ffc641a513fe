// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

package weekly

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/carelog/internal/ai"
	"github.com/carelog/internal/database"
)

// reportSystemPrompt asks for a single 100-150 character narrative in the
// Korean long-term-care record register, picking the one most meaningful
// change of the week.
const reportSystemPrompt = `<system_instruction>
    <role>
        당신은 장기요양기관 전문 사회복지사이며, 수급자의 주간 변화 중 가장 유의미한 '한 가지 사건'을 포착하여 전문적인 기록을 작성합니다.
    </role>

    <output_constraints>
        <constraint>분량: 공백 포함 100자~150자 내외 (한 가지 주제에 집중)</constraint>
        <constraint>종결 어미: 명사형 기록체(~함, ~하심, ~보이심) 사용</constraint>
        <constraint>금지 사항: 숫자(0-9), 단위(%, 회 등), 라벨(신체:, 인지:), 수급자 성명 사용 금지</constraint>
        <constraint>비교 관점: 반드시 '지난주 대비 이번 주의 변화' 혹은 '꾸준한 유지 상태' 중 하나를 선택하여 서술</constraint>
    </output_constraints>

    <writing_examples>
        <example_1>
            평소 워커를 활용한 걷기 운동을 규칙적으로 수행하고 계심. 저번주에 이어 이번주에도 매일 일정 거리 이상의 걷기 운동을 꾸준히 지속하며 하체 근력을 유지하려는 의지가 강함.
        </example_1>
        <example_2>
            콩 고르기, 종이 접기 등 소근육을 사용하는 활동에서 뛰어난 집중력을 보임. 특히 이번주에는 콩 색깔 구별 활동 시 매우 높은 집중력과 손동작의 정확성을 보이심.
        </example_2>
    </writing_examples>

    <content_logic>
        <selection_strategy>
            1. 모든 데이터를 요약하지 말 것.
            2. [신체] 혹은 [인지] 중 이번 주에 가장 구체적인 에피소드가 있는 '하나의 항목'만 선택할 것.
            3. 예: "걷기 운동"보다는 "미니 골프 참여", "인지 활동"보다는 "종이지갑과 지폐 만들기"와 같은 구체적 단어를 선택.
        </selection_strategy>
        <structure_oer>
            - 관찰(O): 지난주와 비교했을 때의 상태 (유지 혹은 변화)
            - 증거(E): 이번 주에 수행한 가장 구체적인 프로그램 명칭과 행동
            - 결과(R): 그로 인한 어르신의 상태나 복지사의 평가
        </structure_oer>
    </content_logic>
</system_instruction>`

const reportUserTemplate = `<weekly_report_context>
    <subject_info>
        <name>%s</name>
        <period>%s ~ %s</period>
    </subject_info>

    <text_normalization_rule>
    - 입력 데이터(raw_materials)는 PDF 파싱 과정에서 띄어쓰기 노이즈(예: "웃 음치료", "하 시도 록")가 포함되어 있을 수 있음.
    - 당신은 전문 사회복지사로서 문맥을 파악하여 이러한 오타를 올바른 단어로 교정하여 인식해야 함.
    - 출력물에는 절대 이러한 파싱 노이즈가 포함되어서는 안 됨.
    </text_normalization_rule>

    <raw_materials>
        <priority_1_physical>
            <prev_notes>%s</prev_notes>
            <curr_notes>%s</curr_notes>
        </priority_1_physical>
        <priority_2_cognitive>
            <prev_notes>%s</prev_notes>
            <curr_notes>%s</curr_notes>
        </priority_2_cognitive>
        <reference_previous_report>%s</reference_previous_report>
    </raw_materials>

    <final_instruction>
        1. raw_materials를 비교하여 신체 또는 인지 중 가장 유의미하게 바뀐 '딱 1건'의 사건을 포착할 것.
        2. "프로그램 참여"와 같은 뻔한 말 대신, 기록에 적힌 '일본문화체험', '종이지갑', '미니골프' 등 실제 단어를 사용할 것.
        3. <writing_examples>의 문체와 깊이를 복제하여 작성할 것.
        4. 100자~150자 사이의 단일 단락으로 출력할 것.
    </final_instruction>
</weekly_report_context>`

// Writer turns a weekly analysis payload into the narrative stored on the
// weekly status record.
type Writer struct {
	client ai.Client
	status *database.WeeklyStatusStore
	events *database.EventLogger
	model  string
}

func NewWriter(client ai.Client, status *database.WeeklyStatusStore, events *database.EventLogger, model string) *Writer {
	return &Writer{client: client, status: status, events: events, model: model}
}

// safeText substitutes the Korean "none" marker for blank values so the
// prompt never carries empty tags.
func safeText(value string) string {
	text := strings.TrimSpace(value)
	if text == "" || text == "-" {
		return "없음"
	}
	return text
}

func buildReportPrompt(customerName, startDate, endDate string, payload Payload) string {
	return fmt.Sprintf(reportUserTemplate,
		customerName, startDate, endDate,
		safeText(payload.PreviousWeek.Physical),
		safeText(payload.CurrentWeek.Physical),
		safeText(payload.PreviousWeek.Cognitive),
		safeText(payload.CurrentWeek.Cognitive),
		safeText(payload.PreviousWeeklyReport),
	)
}

// Generate produces the weekly narrative for one customer and week.
func (w *Writer) Generate(ctx context.Context, customerName, startDate, endDate string, payload Payload) (string, error) {
	req := ai.ChatRequest{
		Model: w.model,
		Messages: []ai.Message{
			{Role: "system", Content: reportSystemPrompt},
			{Role: "user", Content: buildReportPrompt(customerName, startDate, endDate, payload)},
		},
	}
	content, err := w.client.ChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("Generate: weekly report for %s: %w", customerName, err)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("Generate: empty model response for %s", customerName)
	}
	return content, nil
}

// GenerateAndSave generates the narrative and stores it, replacing any
// cached analysis for the same week.
func (w *Writer) GenerateAndSave(ctx context.Context, customerID int64, customerName, startDate, endDate string, payload Payload) (string, error) {
	content, err := w.Generate(ctx, customerName, startDate, endDate, payload)
	if err != nil {
		return "", err
	}
	if err := w.status.Save(customerID, startDate, endDate, content); err != nil {
		return "", fmt.Errorf("GenerateAndSave: save report for customer %d: %w", customerID, err)
	}
	if w.events != nil {
		detail := fmt.Sprintf("weekly report %s ~ %s", startDate, endDate)
		if err := w.events.LogEvent("report", customerName, detail); err != nil {
			log.Printf("GenerateAndSave: log event: %v", err)
		}
	}
	return content, nil
}
