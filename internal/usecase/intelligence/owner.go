package intelligence

import (
	"strings"

	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
)

// ownerResolver links a free-text owner to a known speaker or attendee.
// Email matches win over name and label matches.
type ownerResolver struct {
	speakerByEmail  map[string]entities.SpeakerProfile
	speakerByName   map[string]entities.SpeakerProfile
	attendeeByEmail map[string]entities.Attendee
	attendeeByName  map[string]entities.Attendee
}

func newOwnerResolver(profiles []entities.SpeakerProfile, attendees []entities.Attendee) *ownerResolver {
	r := &ownerResolver{
		speakerByEmail:  make(map[string]entities.SpeakerProfile),
		speakerByName:   make(map[string]entities.SpeakerProfile),
		attendeeByEmail: make(map[string]entities.Attendee),
		attendeeByName:  make(map[string]entities.Attendee),
	}
	for _, p := range profiles {
		if p.Email != nil && *p.Email != "" {
			r.speakerByEmail[normalizeKey(*p.Email)] = p
		}
		if p.Name != nil && *p.Name != "" {
			r.speakerByName[normalizeKey(*p.Name)] = p
		}
		r.speakerByName[normalizeKey(p.Label)] = p
	}
	for _, a := range attendees {
		if a.Email != "" {
			r.attendeeByEmail[normalizeKey(a.Email)] = a
		}
		if a.DisplayName != "" {
			r.attendeeByName[normalizeKey(a.DisplayName)] = a
		}
	}
	return r
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Resolve returns the owner's name, email and speaker label. Unmatched input is returned as given.
func (r *ownerResolver) Resolve(name, email string) (ownerName, ownerEmail, speaker *string) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" && email == "" {
		return nil, nil, nil
	}
	// models sometimes put the email in the owner field
	if email == "" && strings.Contains(name, "@") {
		email, name = name, ""
	}

	if email != "" {
		if p, ok := r.speakerByEmail[normalizeKey(email)]; ok {
			return fromProfile(p, name, email)
		}
	}
	if name != "" {
		if p, ok := r.speakerByName[normalizeKey(name)]; ok {
			return fromProfile(p, name, email)
		}
	}
	if email != "" {
		if a, ok := r.attendeeByEmail[normalizeKey(email)]; ok {
			return fromAttendee(a, name)
		}
	}
	if name != "" {
		if a, ok := r.attendeeByName[normalizeKey(name)]; ok {
			return fromAttendee(a, name)
		}
	}
	return optString(name), optString(email), nil
}

func fromProfile(p entities.SpeakerProfile, name, email string) (*string, *string, *string) {
	ownerName, ownerEmail := optString(name), optString(email)
	if p.Name != nil && *p.Name != "" {
		ownerName = p.Name
	}
	if p.Email != nil && *p.Email != "" {
		ownerEmail = p.Email
	}
	return ownerName, ownerEmail, optString(p.Label)
}

func fromAttendee(a entities.Attendee, name string) (*string, *string, *string) {
	ownerName := optString(a.DisplayName)
	if ownerName == nil {
		ownerName = optString(name)
	}
	return ownerName, optString(a.Email), nil
}
