package intelligence

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
)

// Stage names a generation step. Used in logs, metrics and pipeline stage errors.
type Stage string

const (
	StageSummary     Stage = "summary"
	StageActionItems Stage = "action_items"
	StageDecisions   Stage = "decisions"
	StageFollowup    Stage = "followup"
	StageQA          Stage = "qa"
)

// TruncationMarker is appended to transcripts cut at the stage budget
const TruncationMarker = "\n\n[... transcript truncated ...]"

// Per-stage transcript budgets, in characters
var stageBudgets = map[Stage]int{
	StageSummary:     24000,
	StageActionItems: 20000,
	StageDecisions:   20000,
	StageFollowup:    12000,
	StageQA:          30000,
}

// Budget returns the transcript character budget of a stage
func Budget(stage Stage) int {
	return stageBudgets[stage]
}

// Truncate cuts text to at most budget characters and appends TruncationMarker when it did
func Truncate(text string, budget int) string {
	if budget <= 0 || utf8.RuneCountInString(text) <= budget {
		return text
	}
	runes := []rune(text)
	return string(runes[:budget]) + TruncationMarker
}

// FormatTimestamp renders seconds as MM:SS
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// FormatSegments renders one "[MM:SS] Speaker: text" line per segment
func FormatSegments(segments []entities.TranscriptSegment) string {
	var b strings.Builder
	for i, seg := range segments {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%s] %s: %s", FormatTimestamp(seg.Start), seg.Speaker, strings.TrimSpace(seg.Text))
	}
	return b.String()
}

// transcriptBody is what a stage sees of the transcript. A user edit wins over segments.
func transcriptBody(t *entities.MeetingTranscript) string {
	if t.EditedText != nil && strings.TrimSpace(*t.EditedText) != "" {
		return *t.EditedText
	}
	if len(t.Segments) > 0 {
		return FormatSegments(t.Segments)
	}
	return t.RawText
}

func boundedTranscript(stage Stage, t *entities.MeetingTranscript) string {
	return Truncate(transcriptBody(t), Budget(stage))
}

func speakerList(profiles []entities.SpeakerProfile) string {
	if len(profiles) == 0 {
		return "unknown"
	}
	names := make([]string, 0, len(profiles))
	for _, p := range profiles {
		label := p.Label
		if p.Name != nil && *p.Name != "" {
			label = fmt.Sprintf("%s (%s)", p.Label, *p.Name)
		}
		names = append(names, label)
	}
	return strings.Join(names, ", ")
}

const summaryContract = `Respond with a single JSON object and nothing else:
{"summary": "markdown text", "key_points": ["..."], "topics": ["..."]}`

var summaryInstructions = map[entities.SummaryStyle]string{
	entities.SummaryStyleExecutive: `You summarize meetings for busy executives.
Lead with outcomes and decisions, then risks and open questions. Keep it under 200 words.
Use only information present in the transcript.
` + summaryContract,

	entities.SummaryStyleChronological: `You write chronological meeting summaries.
Walk through the discussion in the order it happened, one short paragraph per topic, naming who raised what.
Use only information present in the transcript.
` + summaryContract,

	entities.SummaryStyleSales: `You summarize sales calls for an account team.
Cover the customer's pain points, budget and timeline signals, objections, competitors mentioned, and agreed next steps.
Use only information present in the transcript.
` + summaryContract,
}

const actionItemsInstruction = `You extract action items from meeting transcripts.
An action item is a concrete task someone committed to or was asked to do. Ignore vague intentions.
For each item give the owner as it appears in the transcript (speaker label or name), an owner email only if stated,
a priority of high, medium or low, a due date as YYYY-MM-DD only if stated, the transcript timestamp where it was said,
and your confidence between 0 and 1.
Respond with a JSON array and nothing else:
[{"description": "...", "owner": "...", "owner_email": "...", "priority": "medium", "due_date": "", "timestamp": "MM:SS", "confidence": 0.9}]
Return [] when there are no action items.`

const decisionsInstruction = `You extract decisions from meeting transcripts.
A decision is an explicit agreement, approval or choice the group settled on. Proposals and open debates are not decisions.
Only report decisions you are confident were actually made; do not invent any.
Respond with a JSON array and nothing else:
[{"decision": "...", "context": "...", "impact_area": "...", "timestamp": "MM:SS", "confidence": 0.9}]
Return [] when no decision was made.`

const followupInstruction = `You draft follow-up emails after meetings on behalf of the sender.
Thank attendees, recap the key outcomes, list action items with owners, and propose next steps.
Write the body in simple markdown (**bold**, "- " bullets, blank lines between paragraphs).
Respond with a single JSON object and nothing else:
{"subject": "...", "body": "markdown body", "html_body": "optional HTML rendering of the body"}`

const qaInstruction = `You answer questions about a single meeting using only its transcript.
Every transcript line starts with [MM:SS] and the speaker.
If the transcript does not contain the answer, say that the information is not in the transcript. Never guess.
Cite the lines that support your answer.
Respond with a single JSON object and nothing else:
{"answer": "...", "citations": [{"timestamp": "MM:SS", "speaker": "...", "quote": "..."}], "confidence": 0.0}`

func styleGuidance(style *entities.StyleProfile) string {
	if style == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("\nMatch the sender's usual writing style:\n")
	if len(style.GreetingPatterns) > 0 {
		fmt.Fprintf(&b, "- Greetings they use: %s\n", strings.Join(style.GreetingPatterns, " | "))
	}
	if len(style.SignOffPatterns) > 0 {
		fmt.Fprintf(&b, "- Sign-offs they use: %s\n", strings.Join(style.SignOffPatterns, " | "))
	}
	fmt.Fprintf(&b, "- Formality: %.1f of 1.0\n", style.Formality)
	fmt.Fprintf(&b, "- Warmth: %.1f of 1.0\n", style.Warmth)
	return b.String()
}
