package report

// prompts.go keeps the prompt scaffolding and the degraded texts shown when
// generation fails.

const (
	// LegalReportFallback replaces the report when generation fails.
	LegalReportFallback = "Failed to generate report. Please check API configuration."

	// EducationalSummaryFallback replaces the teaching summary when
	// generation fails.
	EducationalSummaryFallback = "Learning module unavailable."

	legalPreamble = "Generate a professional Medico-Legal Patient Report based on the following clinical timeline:"

	legalSections = "Format the output as a formal medical document with sections:\n" +
		"1. Incident Summary\n" +
		"2. Clinical Progression (Timestamped)\n" +
		"3. Management & Decision Logic\n" +
		"4. Legal Authentication & Chain of Command"

	educationalTemplate = "Act as a Senior Teaching Physician. A Junior Resident just saw you perform the action: \"%s\".\n" +
		"Briefly explain the medical reasoning (Pathophysiology) behind this decision based on the current vitals:\n" +
		"HR: %s,\n" +
		"SpO2: %s%%.\n\n" +
		"Keep it concise, encouraging, and educational for a Junior Resident."

	// TimestampLayout renders instants the way a bedside clock reads.
	TimestampLayout = "3:04:05 PM"
)

// Sampling configuration of the two request shapes.
const (
	LegalTemperature       float32 = 0.7
	LegalTopP              float32 = 0.95
	EducationalTemperature float32 = 0.9
)
