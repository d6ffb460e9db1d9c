package rules

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/Fahad-codecraft/exif-date-fixer/pkg/types"
)

func at(y int, m time.Month, d, h int) *time.Time {
	t := time.Date(y, m, d, h, 0, 0, 0, time.UTC)
	return &t
}

// TestResolve_EmbeddedWinsOverFilename는 테스트 코드 동작을 검증하거나 보조합니다.
func TestResolve_EmbeddedWinsOverFilename(t *testing.T) {
	c := Candidates{EmbeddedCapture: at(2020, 1, 1, 0), Filename: at(2019, 1, 1, 0)}

	got := Resolve(c, types.DefaultRuleConfig())
	if got == nil || !got.Equal(*at(2020, 1, 1, 0)) {
		t.Fatalf("want=%v got=%v", *at(2020, 1, 1, 0), got)
	}
}

// TestResolve_FilenameWhenNoEmbedded는 테스트 코드 동작을 검증하거나 보조합니다.
func TestResolve_FilenameWhenNoEmbedded(t *testing.T) {
	c := Candidates{Filename: at(2019, 1, 1, 0), FilesystemCreated: at(2015, 1, 1, 0)}

	got := Resolve(c, types.DefaultRuleConfig())
	if got == nil || !got.Equal(*at(2019, 1, 1, 0)) {
		t.Fatalf("want=%v got=%v", *at(2019, 1, 1, 0), got)
	}
}

// TestResolve_EarliestOfAvailable는 테스트 코드 동작을 검증하거나 보조합니다.
func TestResolve_EarliestOfAvailable(t *testing.T) {
	c := Candidates{
		EmbeddedCapture:   at(2020, 3, 1, 0),
		Filename:          at(2019, 5, 1, 0),
		FilesystemCreated: at(2021, 1, 1, 0),
	}
	cfg := types.RuleConfig{UseEarliest: true}

	got := Resolve(c, cfg)
	if got == nil || !got.Equal(*at(2019, 5, 1, 0)) {
		t.Fatalf("want=%v got=%v", *at(2019, 5, 1, 0), got)
	}
}

// TestResolve_EarliestSkipsMissingAndIgnoresDisabledRules는 테스트 코드 동작을 검증하거나 보조합니다.
func TestResolve_EarliestSkipsMissingAndIgnoresDisabledRules(t *testing.T) {
	// prefer 옵션이 꺼져 있으면 빈 값을 제외한 최솟값만 고려해야 한다.
	c := Candidates{EmbeddedCapture: at(2020, 3, 1, 0), FilesystemCreated: at(2018, 1, 1, 0)}

	got := Resolve(c, types.RuleConfig{UseEarliest: true})
	if got == nil || !got.Equal(*at(2018, 1, 1, 0)) {
		t.Fatalf("want=%v got=%v", *at(2018, 1, 1, 0), got)
	}

	if got := Resolve(Candidates{}, types.RuleConfig{UseEarliest: true}); got != nil {
		t.Fatalf("expected no proposal without candidates, got %v", *got)
	}
}

// TestResolve_NoRuleEnabled는 테스트 코드 동작을 검증하거나 보조합니다.
func TestResolve_NoRuleEnabled(t *testing.T) {
	c := Candidates{EmbeddedCapture: at(2020, 1, 1, 0), Filename: at(2019, 1, 1, 0)}
	if got := Resolve(c, types.RuleConfig{}); got != nil {
		t.Fatalf("expected nil, got %v", *got)
	}
}

// TestResolve_ManualDateOverridesAndTruncates는 테스트 코드 동작을 검증하거나 보조합니다.
func TestResolve_ManualDateOverridesAndTruncates(t *testing.T) {
	manual := time.Date(2010, 7, 7, 7, 7, 7, 123456000, time.UTC)
	cfg := types.DefaultRuleConfig()
	cfg.ManualDate = &manual

	got := Resolve(Candidates{EmbeddedCapture: at(2020, 1, 1, 0)}, cfg)
	want := time.Date(2010, 7, 7, 7, 7, 7, 0, time.UTC)
	if got == nil || !got.Equal(want) {
		t.Fatalf("want=%v got=%v", want, got)
	}
	if manual.Nanosecond() != 123456000 {
		t.Fatal("configured manual date must not be mutated")
	}
}

// TestResolve_OffsetHours는 테스트 코드 동작을 검증하거나 보조합니다.
func TestResolve_OffsetHours(t *testing.T) {
	cfg := types.DefaultRuleConfig()
	cfg.OffsetHours = -5

	got := Resolve(Candidates{EmbeddedCapture: at(2020, 1, 1, 10)}, cfg)
	if got == nil || !got.Equal(*at(2020, 1, 1, 5)) {
		t.Fatalf("want=%v got=%v", *at(2020, 1, 1, 5), got)
	}

	// 제안이 없으면 오프셋도 적용되지 않는다.
	if got := Resolve(Candidates{}, cfg); got != nil {
		t.Fatalf("expected nil, got %v", *got)
	}
}

// TestDeriveFilename_Templates는 테스트 코드 동작을 검증하거나 보조합니다.
func TestDeriveFilename_Templates(t *testing.T) {
	d := time.Date(2023, 6, 15, 14, 30, 5, 0, time.UTC)

	tests := []struct {
		template types.DateTemplate
		want     string
	}{
		{types.TemplateCompactDateTime, "IMG_20230615_143005_x.JPG"},
		{types.TemplateDateTime, "IMG_2023-06-15_14-30-05_x.JPG"},
		{types.TemplateCompactDate, "IMG_20230615_x.JPG"},
		{types.TemplateDate, "IMG_2023-06-15_x.JPG"},
	}

	for _, tt := range tests {
		cfg := types.RenameConfig{Enabled: true, Template: tt.template, Prefix: "IMG_", Suffix: "_x"}
		if got := DeriveFilename(&d, ".JPG", cfg); got != tt.want {
			t.Errorf("%s: want=%s got=%s", tt.template, tt.want, got)
		}
	}
}

// TestDeriveFilename_RequiresEnabledAndDate는 테스트 코드 동작을 검증하거나 보조합니다.
func TestDeriveFilename_RequiresEnabledAndDate(t *testing.T) {
	d := time.Now()
	if got := DeriveFilename(&d, ".jpg", types.RenameConfig{Template: types.TemplateDate}); got != "" {
		t.Fatalf("expected empty name when renaming is disabled, got %s", got)
	}
	if got := DeriveFilename(nil, ".jpg", types.RenameConfig{Enabled: true, Template: types.TemplateDate}); got != "" {
		t.Fatalf("expected empty name without a date, got %s", got)
	}
}

// TestApply_IsIdempotentAndClearsStaleProposal는 테스트 코드 동작을 검증하거나 보조합니다.
func TestApply_IsIdempotentAndClearsStaleProposal(t *testing.T) {
	rec := &types.FileRecord{
		Filename:     "IMG_20190101_000000.Jpg",
		Extension:    ".jpg",
		FilenameDate: at(2019, 1, 1, 0),
		Status:       types.StatusPending,
	}
	cfg := types.DefaultRuleConfig()
	cfg.Rename.Enabled = true

	Apply(rec, cfg)
	first := *rec.ProposedDate
	firstName := rec.ProposedFilename
	Apply(rec, cfg)

	if !rec.ProposedDate.Equal(first) || rec.ProposedFilename != firstName {
		t.Fatalf("second pass changed proposal: %v %s", *rec.ProposedDate, rec.ProposedFilename)
	}
	// 원래 확장자 표기가 그대로 유지되어야 한다.
	if firstName != "20190101_000000.Jpg" {
		t.Fatalf("unexpected filename: %s", firstName)
	}

	// 규칙을 끄면 이전 제안이 남아 있으면 안 된다.
	Apply(rec, types.RuleConfig{})
	if rec.ProposedDate != nil || rec.ProposedFilename != "" {
		t.Fatalf("stale proposal kept: %v %q", rec.ProposedDate, rec.ProposedFilename)
	}
}

// TestApply_LeavesFinalRecordsAlone는 테스트 코드 동작을 검증하거나 보조합니다.
func TestApply_LeavesFinalRecordsAlone(t *testing.T) {
	for _, status := range []types.RecordStatus{types.StatusProcessed, types.StatusError} {
		rec := &types.FileRecord{FilenameDate: at(2019, 1, 1, 0), Status: status}
		Apply(rec, types.DefaultRuleConfig())
		if rec.ProposedDate != nil {
			t.Errorf("%s: final record was re-evaluated", status)
		}
	}
}

// TestApply_ReevaluatesSkippedAndDryRun는 테스트 코드 동작을 검증하거나 보조합니다.
func TestApply_ReevaluatesSkippedAndDryRun(t *testing.T) {
	// 건너뛴 기록과 dry run 기록은 규칙이 바뀌면 다시 평가되어야 한다.
	for _, status := range []types.RecordStatus{types.StatusSkipped, types.StatusDryRun} {
		rec := &types.FileRecord{FilenameDate: at(2019, 1, 1, 0), Status: status}
		Apply(rec, types.RuleConfig{})
		if rec.ProposedDate != nil {
			t.Fatalf("%s: want=<nil> got=%v", status, rec.ProposedDate)
		}

		Apply(rec, types.DefaultRuleConfig())
		if rec.ProposedDate == nil || !rec.ProposedDate.Equal(*at(2019, 1, 1, 0)) {
			t.Fatalf("%s: want=%v got=%v", status, at(2019, 1, 1, 0), rec.ProposedDate)
		}
		if rec.Status != status {
			t.Fatalf("want=%v got=%v", status, rec.Status)
		}
	}
}

// TestValidTemplate는 테스트 코드 동작을 검증하거나 보조합니다.
func TestValidTemplate(t *testing.T) {
	if !ValidTemplate(types.TemplateDate) || ValidTemplate("yyyy") {
		t.Fatal("template validation mismatch")
	}
}

func useLocalZone(t *testing.T, name string) {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("failed to load %s: %v", name, err)
	}
	prev := time.Local
	time.Local = loc
	t.Cleanup(func() { time.Local = prev })
}

// TestResolve_OffsetIsWallClockAcrossDST는 테스트 코드 동작을 검증하거나 보조합니다.
func TestResolve_OffsetIsWallClockAcrossDST(t *testing.T) {
	// 서머타임 전환일에도 오프셋은 벽시계 시간 기준으로 더해져야 한다.
	useLocalZone(t, "America/New_York")

	cfg := types.RuleConfig{PreferEmbedded: true, OffsetHours: -12}
	local := time.Date(2023, 3, 12, 10, 0, 0, 0, time.Local)
	for _, in := range []time.Time{local, *at(2023, 3, 12, 10)} {
		got := Resolve(Candidates{EmbeddedCapture: &in}, cfg)
		want := time.Date(2023, 3, 11, 22, 0, 0, 0, time.UTC)
		if got == nil || !got.Equal(want) {
			t.Fatalf("input %v: want=%v got=%v", in, want, got)
		}
	}

	// 건너뛰는 시간대로 이동해도 벽시계 값이 그대로 유지되어야 한다.
	cfg.OffsetHours = 1
	start := time.Date(2023, 3, 12, 1, 30, 0, 0, time.UTC)
	got := Resolve(Candidates{EmbeddedCapture: &start}, cfg)
	if got == nil || got.Hour() != 2 || got.Minute() != 30 {
		t.Fatalf("want 02:30 wall clock, got %v", got)
	}
}
