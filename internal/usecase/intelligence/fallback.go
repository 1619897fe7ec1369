package intelligence

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
)

const (
	actionItemThreshold = 0.6
	decisionThreshold   = 0.7
	fallbackLimit       = 10
)

var (
	actionItemPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\baction items?\s*:`),
		regexp.MustCompile(`(?i)\bwill\s+[a-z]+`),
		regexp.MustCompile(`(?i)\bneeds?\s+to\s+[a-z]+`),
	}
	decisionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bdecided\s+to\b`),
		regexp.MustCompile(`(?i)\bapproved\s*:`),
		regexp.MustCompile(`(?i)\bagreed\s+that\b`),
	}

	sentencePattern    = regexp.MustCompile(`[^.!?\n]+[.!?]*`)
	actionLabelPattern = regexp.MustCompile(`(?i)^.*?\baction items?\s*:\s*`)
)

// fallbackHit is one transcript sentence matching a lexical pattern
type fallbackHit struct {
	Text      string
	Speaker   string
	Timestamp *float64
}

// scanTranscript finds up to fallbackLimit distinct sentences matching any pattern.
// Segments are scanned when the transcript has no user edit so hits keep their timestamp.
func scanTranscript(t *entities.MeetingTranscript, patterns []*regexp.Regexp) []fallbackHit {
	var hits []fallbackHit
	seen := make(map[string]struct{})

	add := func(sentence, speaker string, ts *float64) bool {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" || !matchesAny(sentence, patterns) {
			return false
		}
		key := strings.ToLower(sentence)
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
		hits = append(hits, fallbackHit{Text: sentence, Speaker: speaker, Timestamp: ts})
		return len(hits) >= fallbackLimit
	}

	edited := t.EditedText != nil && strings.TrimSpace(*t.EditedText) != ""
	if !edited && len(t.Segments) > 0 {
		for _, seg := range t.Segments {
			start := seg.Start
			for _, sentence := range splitSentences(seg.Text) {
				if add(sentence, seg.Speaker, &start) {
					return hits
				}
			}
		}
		return hits
	}

	for _, sentence := range splitSentences(t.Text()) {
		if add(sentence, "", nil) {
			return hits
		}
	}
	return hits
}

func matchesAny(s string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func splitSentences(text string) []string {
	return sentencePattern.FindAllString(text, -1)
}

// fallbackActionItems synthesizes low-confidence items from the transcript itself
func fallbackActionItems(meetingID uuid.UUID, t *entities.MeetingTranscript, owners *ownerResolver) []*entities.ActionItem {
	hits := scanTranscript(t, actionItemPatterns)
	items := make([]*entities.ActionItem, 0, len(hits))
	for _, hit := range hits {
		description := hit.Text
		if stripped := strings.TrimSpace(actionLabelPattern.ReplaceAllString(description, "")); stripped != "" {
			description = stripped
		}
		item := entities.NewActionItem(meetingID, description, entities.ActionItemPriorityMedium, actionItemThreshold)
		item.SourceTimestamp = hit.Timestamp
		if hit.Speaker != "" {
			item.OwnerName, item.OwnerEmail, item.OwnerSpeaker = owners.Resolve(hit.Speaker, "")
		}
		items = append(items, item)
	}
	return items
}

// fallbackDecisions synthesizes low-confidence decisions from the transcript itself
func fallbackDecisions(meetingID uuid.UUID, t *entities.MeetingTranscript) []*entities.Decision {
	hits := scanTranscript(t, decisionPatterns)
	decisions := make([]*entities.Decision, 0, len(hits))
	for _, hit := range hits {
		d := entities.NewDecision(meetingID, hit.Text, decisionThreshold)
		d.SourceTimestamp = hit.Timestamp
		decisions = append(decisions, d)
	}
	return decisions
}

// leadSentences returns up to n sentences from the start of text
func leadSentences(text string, n int) string {
	sentences := splitSentences(text)
	if len(sentences) > n {
		sentences = sentences[:n]
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}
	return strings.Join(sentences, " ")
}
