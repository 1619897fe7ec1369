package transcript

import (
	"strings"

	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
)

// Normalize turns a raw speech-to-text response into speaker-attributed segments,
// derives speaker statistics and applies custom vocabulary correction.
func Normalize(raw *RawTranscript, customWords []string) *Result {
	if raw == nil {
		raw = &RawTranscript{}
	}

	var segments []entities.TranscriptSegment
	if len(raw.Utterances) > 0 {
		segments = segmentsFromUtterances(raw.Utterances)
	} else {
		segments = MergeWords(raw.Words)
	}

	speakers := BuildSpeakerProfiles(segments)

	text := raw.Text
	if text == "" {
		parts := make([]string, 0, len(segments))
		for _, s := range segments {
			parts = append(parts, s.Text)
		}
		text = strings.Join(parts, " ")
	}

	words := cleanVocabulary(customWords)
	if len(words) > 0 {
		corrector := NewCorrector(words)
		text = corrector.Apply(text)
		for i := range segments {
			segments[i].Text = corrector.Apply(segments[i].Text)
		}
	}

	return &Result{
		Text:        text,
		Segments:    segments,
		Speakers:    speakers,
		Language:    raw.Language,
		Confidence:  overallConfidence(raw),
		CustomWords: words,
		ProviderID:  raw.ProviderID,
	}
}

func segmentsFromUtterances(utterances []RawUtterance) []entities.TranscriptSegment {
	segments := make([]entities.TranscriptSegment, 0, len(utterances))
	for _, u := range utterances {
		segments = append(segments, entities.TranscriptSegment{
			Start:      u.Start,
			End:        u.End,
			Speaker:    SpeakerLabel(u.Speaker),
			Text:       strings.TrimSpace(u.Text),
			Confidence: u.Confidence,
			IsFinal:    true,
		})
	}
	return segments
}

// MergeWords groups consecutive words of the same speaker into segments.
// Segment confidence is re-averaged with each appended word: (current + word) / 2.
func MergeWords(words []RawWord) []entities.TranscriptSegment {
	var segments []entities.TranscriptSegment
	var current *entities.TranscriptSegment

	for _, w := range words {
		label := SpeakerLabel(w.Speaker)
		if current == nil || current.Speaker != label {
			if current != nil {
				segments = append(segments, *current)
			}
			current = &entities.TranscriptSegment{
				Start:      w.Start,
				End:        w.End,
				Speaker:    label,
				Text:       w.Text,
				Confidence: w.Confidence,
				IsFinal:    true,
			}
			continue
		}
		current.Text += " " + w.Text
		current.End = w.End
		current.Confidence = (current.Confidence + w.Confidence) / 2
	}
	if current != nil {
		segments = append(segments, *current)
	}
	return segments
}

// SpeakerLabel renders a provider speaker tag for display
func SpeakerLabel(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return "Unknown"
	}
	return "Speaker " + tag
}

// BuildSpeakerProfiles aggregates word counts and speaking time per speaker,
// indexed in order of first appearance.
func BuildSpeakerProfiles(segments []entities.TranscriptSegment) []entities.SpeakerProfile {
	index := make(map[string]int)
	var profiles []entities.SpeakerProfile

	for _, s := range segments {
		i, ok := index[s.Speaker]
		if !ok {
			i = len(profiles)
			index[s.Speaker] = i
			profiles = append(profiles, entities.SpeakerProfile{Index: i, Label: s.Speaker})
		}
		profiles[i].WordCount += len(strings.Fields(s.Text))
		profiles[i].SpeakingTime += s.Duration()
	}
	return profiles
}

func overallConfidence(raw *RawTranscript) float64 {
	if raw.Confidence != nil {
		return *raw.Confidence
	}
	if len(raw.Words) > 0 {
		var sum float64
		for _, w := range raw.Words {
			sum += w.Confidence
		}
		return sum / float64(len(raw.Words))
	}
	if len(raw.Utterances) > 0 {
		var sum float64
		for _, u := range raw.Utterances {
			sum += u.Confidence
		}
		return sum / float64(len(raw.Utterances))
	}
	return 0
}

func cleanVocabulary(words []string) []string {
	seen := make(map[string]bool, len(words))
	var out []string
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}
