package report

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"medflow-backend/internal/llm"
	"medflow-backend/internal/record"
)

// Generator builds prompts from a record and delegates to the
// text-generation service. It never mutates the record and never returns an
// error: failures degrade to fixed fallback texts.
type Generator struct {
	LLM     llm.Client
	Loc     *time.Location
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewGenerator constructs a Generator. A nil location renders UTC; a zero
// timeout leaves requests unbounded.
func NewGenerator(client llm.Client, loc *time.Location, timeout time.Duration, logger *slog.Logger) *Generator {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		LLM:     client,
		Loc:     loc,
		Timeout: timeout,
		Logger:  logger.With("component", "report"),
	}
}

// GenerateLegalReport returns the generated medico-legal narrative verbatim,
// or LegalReportFallback on any failure.
func (g *Generator) GenerateLegalReport(ctx context.Context, rec record.PatientRecord) string {
	prompt := BuildLegalPrompt(rec, g.Loc)
	text, err := g.generate(ctx, prompt, llm.GenerationConfig{Temperature: LegalTemperature, TopP: LegalTopP})
	if err != nil {
		g.Logger.Error("legal report generation failed", "record_id", rec.ID, "error", err)
		return LegalReportFallback
	}
	return text
}

// GenerateEducationalSummary returns a short teaching note about the latest
// intervention, or EducationalSummaryFallback on any failure.
func (g *Generator) GenerateEducationalSummary(ctx context.Context, rec record.PatientRecord, lastActionLabel string) string {
	prompt := BuildEducationalPrompt(rec, lastActionLabel)
	text, err := g.generate(ctx, prompt, llm.GenerationConfig{Temperature: EducationalTemperature})
	if err != nil {
		g.Logger.Warn("educational summary generation failed", "record_id", rec.ID, "action", lastActionLabel, "error", err)
		return EducationalSummaryFallback
	}
	return text
}

func (g *Generator) generate(ctx context.Context, prompt string, gen llm.GenerationConfig) (string, error) {
	if g.LLM == nil {
		return "", fmt.Errorf("no text generation client configured")
	}
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}
	return g.LLM.Generate(ctx, prompt, gen)
}

// BuildLegalPrompt serialises the whole record: every reading, then every
// remark, then every action, each on its own timestamped line.
func BuildLegalPrompt(rec record.PatientRecord, loc *time.Location) string {
	var b strings.Builder
	b.WriteString(legalPreamble)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Patient: %s, Age: %d\n\n", rec.Name, rec.Age)
	b.WriteString("Timeline Events:\n")
	for _, line := range TimelineLines(rec, loc) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(legalSections)
	return b.String()
}

// TimelineLines renders the record's events in the order they appear in the
// legal prompt.
func TimelineLines(rec record.PatientRecord, loc *time.Location) []string {
	if loc == nil {
		loc = time.UTC
	}
	stamp := func(t time.Time) string { return t.In(loc).Format(TimestampLayout) }

	lines := make([]string, 0, len(rec.Vitals)+len(rec.Remarks)+len(rec.Actions))
	for _, v := range rec.Vitals {
		lines = append(lines, fmt.Sprintf("[%s] Vitals: HR %d, SpO2 %d%%, BP %s (Logged by %s)",
			stamp(v.Timestamp), v.HeartRate, v.SpO2, v.BloodPressure, v.Source))
	}
	for _, r := range rec.Remarks {
		lines = append(lines, fmt.Sprintf("[%s] Remark: %s (By %s)", stamp(r.Timestamp), r.Text, r.Author))
	}
	for _, a := range rec.Actions {
		lines = append(lines, fmt.Sprintf("[%s] Action: %s - %s (By %s)", stamp(a.Timestamp), a.Type, a.Label, a.Author))
	}
	return lines
}

// BuildEducationalPrompt frames the latest intervention as a teaching moment
// and references only the latest reading.
func BuildEducationalPrompt(rec record.PatientRecord, lastActionLabel string) string {
	hr, spo2 := "n/a", "n/a"
	if v, ok := rec.LatestVital(); ok {
		hr = strconv.Itoa(v.HeartRate)
		spo2 = strconv.Itoa(v.SpO2)
	}
	return fmt.Sprintf(educationalTemplate, lastActionLabel, hr, spo2)
}
