package conversation

import (
	"context"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/themobileprof/paintrack-be/internal/extraction"
	"github.com/themobileprof/paintrack-be/internal/patterns"
	"github.com/themobileprof/paintrack-be/internal/store"
)

// Navigator is invoked by name when the user asks to leave the chat.
type Navigator interface {
	Navigate(userID, destination string)
}

// Reply is one assistant turn. Fallback marks a reply chosen because no
// rule matched; a richer generator may replace it.
type Reply struct {
	Text           string   `json:"text"`
	Suggestions    []string `json:"suggestions,omitempty"`
	Saved          bool     `json:"saved"`
	SavedEntryID   string   `json:"saved_entry_id,omitempty"`
	Navigate       string   `json:"navigate,omitempty"`
	AwaitingPicker bool     `json:"awaiting_picker,omitempty"`
	Fallback       bool     `json:"-"`
}

// FallbackPrompts is the fixed open-ended prompt set the policy picks from
// when no rule matches. Callers should treat the choice as "one of these",
// not a specific string.
var FallbackPrompts = []string{
	"How are you feeling right now?",
	"Tell me more about what's going on.",
	"Is there anything about your pain you'd like to track?",
	"I'm listening. What would you like to log today?",
}

// sessionThreshold is the pain level at which the policy opens an episode.
const sessionThreshold = 7

// Policy drives the scripted companion: it runs extraction over each
// message, tracks what information is still missing, persists confirmed
// entries, and picks the next utterance.
type Policy struct {
	logs     store.LogStore
	sessions store.SessionStore
	profiles store.ProfileStore
	states   *Manager
	nav      Navigator
}

func NewPolicy(logs store.LogStore, sessions store.SessionStore, profiles store.ProfileStore, nav Navigator) *Policy {
	return &Policy{
		logs:     logs,
		sessions: sessions,
		profiles: profiles,
		states:   NewManager(),
		nav:      nav,
	}
}

// HandleMessage processes one user turn. prior holds the user's earlier
// messages this conversation, oldest first; extraction accumulates over
// them while the pain level is read from message alone.
func (p *Policy) HandleMessage(ctx context.Context, userID, message string, prior []string) Reply {
	st := p.states.Get(userID)
	lower := strings.ToLower(message)

	// The picker owns the turn until its explicit confirm arrives.
	if st.PickerActive {
		return Reply{
			Text:           "Take your time with the body map. Confirm your areas when you're ready.",
			AwaitingPicker: true,
		}
	}

	if wantsInsights(lower) {
		if p.nav != nil {
			p.nav.Navigate(userID, "insights")
		}
		return Reply{Text: "Here's your progress so far.", Navigate: "insights"}
	}

	if st.Await == AwaitLocation {
		return p.handleAwaitedLocation(ctx, userID, st, message, lower)
	}

	// A pending "did the medication help?" question claims the turn when
	// the message answers it; anything else means the user moved on.
	if st.MedFollowUpID != "" {
		if reply, ok := p.handleMedFollowUp(ctx, userID, st, message, lower); ok {
			return reply
		}
		st.MedFollowUpID = ""
		st.MedFollowUpMeds = nil
	}

	extracted := extraction.Extract(message, prior)
	mergePending(&st.Pending, extracted)

	if resolvesSession(lower) {
		return p.resolveSession(ctx, userID, st)
	}

	// Missing rating: ask for one before anything else.
	if st.Pending.PainLevel == nil {
		if extraction.MentionsPain(message) {
			return Reply{
				Text:        "I'm sorry you're hurting. On a scale of 0-10, how bad is it right now?",
				Suggestions: []string{"3", "5", "7", "9"},
			}
		}
		if len(st.Pending.Medications) > 0 {
			return p.medicationFollowUp(st, message)
		}
		return p.fallback()
	}

	// Rating known: decide whether a location must be collected first.
	if len(st.Pending.Locations) == 0 {
		profile := p.profile(ctx, userID)
		if !profile.PainIsConsistent {
			st.Await = AwaitLocation
			return Reply{
				Text:        "Got it. Where is the pain?",
				Suggestions: p.locationPills(ctx, userID, profile),
			}
		}
		// Consistent pain: seed from the profile defaults.
		st.Pending.Locations = append([]string(nil), profile.DefaultPainLocations...)
	}

	return p.saveEntry(ctx, userID, st, message)
}

// ConfirmLocations resumes a turn suspended on the location picker. The
// external picker hands back the final list; the policy persists and
// replies as if the user had typed the locations.
func (p *Policy) ConfirmLocations(ctx context.Context, userID string, locations []string) Reply {
	st := p.states.Get(userID)
	st.PickerActive = false
	st.Await = AwaitNone
	st.Pending.Locations = dedupe(locations)

	if st.Pending.PainLevel == nil {
		return Reply{
			Text:        "Noted those areas. On a scale of 0-10, how bad is the pain?",
			Suggestions: []string{"3", "5", "7", "9"},
		}
	}
	return p.saveEntry(ctx, userID, st, "")
}

// Reset drops a user's conversation state.
func (p *Policy) Reset(userID string) {
	p.states.Reset(userID)
}

func (p *Policy) handleAwaitedLocation(ctx context.Context, userID string, st *State, message, lower string) Reply {
	if wantsPicker(lower) {
		st.PickerActive = true
		return Reply{
			Text:           "Opening the body map. Select every area that hurts and confirm.",
			AwaitingPicker: true,
		}
	}

	if label, ok := extraction.QuickLocationMatch(message); ok {
		st.Pending.Locations = []string{label}
		st.Await = AwaitNone
		return p.saveEntry(ctx, userID, st, message)
	}

	// Unrecognized answer: keep waiting, re-offer the pills.
	return Reply{
		Text:        "I didn't catch the location. Where does it hurt?",
		Suggestions: p.locationPills(ctx, userID, p.profile(ctx, userID)),
	}
}

// saveEntry persists the pending record. On failure the cursor and the
// extracted data survive so a retry never re-asks answered questions.
func (p *Policy) saveEntry(ctx context.Context, userID string, st *State, message string) Reply {
	entry := &store.PainLogEntry{
		UserID:      userID,
		LoggedAt:    time.Now(),
		PainLevel:   st.Pending.PainLevel,
		Locations:   st.Pending.Locations,
		Triggers:    st.Pending.Triggers,
		Medications: st.Pending.Medications,
		Symptoms:    st.Pending.Symptoms,
		Notes:       st.Pending.Notes,
	}

	if err := p.logs.SaveLog(ctx, entry); err != nil {
		log.Printf("save failed for user=%s: %v", userID, err)
		return Reply{
			Text: "I couldn't save that just now. Your details are still here - want to try again?",
		}
	}

	level := *entry.PainLevel
	p.maybeOpenSession(ctx, userID, level)

	st.Pending = extractionZero()
	st.Await = AwaitNone

	reply := Reply{
		Saved:        true,
		SavedEntryID: entry.ID,
	}

	switch {
	case hasIneffectiveMedication(entry.Medications):
		reply.Text = "Logged it. Since that didn't help, is there something else you can take, or a prescribed option?"
	case len(entry.Medications) > 0 && message != "" && !extraction.StatesIneffective(message):
		reply.Text = "Logged it. Did the medication help?"
		reply.Suggestions = []string{"Yes, it helped", "Not really"}
		st.MedFollowUpID = entry.ID
		st.MedFollowUpMeds = entry.Medications
	case len(entry.Triggers) == 0:
		reply.Text = "Logged it. Any idea what might have triggered this one?"
		reply.Suggestions = []string{"Stress", "Poor sleep", "Screen time", "Not sure"}
	default:
		reply.Text = "Logged it. " + severityQuestion(level)
	}
	return reply
}

func (p *Policy) medicationFollowUp(st *State, message string) Reply {
	lower := strings.ToLower(message)
	switch {
	case answersHelped(lower):
		setPendingMedEffect(st, true)
		return Reply{Text: "Good to hear it helped. I've noted that."}
	case answersNotHelped(lower), hasIneffectiveMedication(st.Pending.Medications):
		setPendingMedEffect(st, false)
		return Reply{
			Text: "Sorry it isn't helping. Is there an alternative or a prescribed medication you could try?",
		}
	}
	return Reply{
		Text:        "Did it help?",
		Suggestions: []string{"Yes, it helped", "Not really"},
	}
}

// handleMedFollowUp applies a "did the medication help?" answer to the
// entry that was already saved. Returns ok=false when the message is not
// an effectiveness answer.
func (p *Policy) handleMedFollowUp(ctx context.Context, userID string, st *State, message, lower string) (Reply, bool) {
	var effective bool
	switch {
	case answersHelped(lower):
		effective = true
	case answersNotHelped(lower):
		effective = false
	default:
		return Reply{}, false
	}

	meds := make([]store.MedicationDose, len(st.MedFollowUpMeds))
	copy(meds, st.MedFollowUpMeds)
	for i := range meds {
		v := effective
		meds[i].Effective = &v
	}

	entryID := st.MedFollowUpID
	st.MedFollowUpID = ""
	st.MedFollowUpMeds = nil

	if err := p.logs.UpdateLog(ctx, userID, entryID, store.LogPatch{Medications: &meds}); err != nil {
		log.Printf("medication follow-up update failed for user=%s: %v", userID, err)
	}

	if effective {
		return Reply{Text: "Good to hear it helped. I've noted that."}, true
	}
	return Reply{
		Text: "Noted that it didn't help. Is there something else you can take, or a prescribed option?",
	}, true
}

// setPendingMedEffect records an effectiveness answer on every pending
// dose. An explicit answer overrides whatever the extraction inferred.
func setPendingMedEffect(st *State, effective bool) {
	for i := range st.Pending.Medications {
		v := effective
		st.Pending.Medications[i].Effective = &v
	}
}

func answersHelped(lower string) bool {
	return strings.Contains(lower, "it helped") ||
		strings.Contains(lower, "helped a lot") ||
		strings.Contains(lower, "helped a bit") ||
		lower == "yes" || lower == "yep"
}

func answersNotHelped(lower string) bool {
	return strings.Contains(lower, "not really") ||
		strings.Contains(lower, "no relief") ||
		extraction.StatesIneffective(lower) ||
		lower == "no" || lower == "nope"
}

// fallback picks one of the open-ended prompts. The choice is explicitly
// non-deterministic.
func (p *Policy) fallback() Reply {
	return Reply{Text: FallbackPrompts[rand.Intn(len(FallbackPrompts))], Fallback: true}
}

// severityQuestion dispatches on fixed numeric ranges; first matching range
// wins and the ranges are mutually exclusive by construction.
func severityQuestion(level int) string {
	switch {
	case level >= 7:
		return "That's a lot. Have you been able to take anything or rest?"
	case level >= 4:
		return "When did it start?"
	default:
		return "Is this typical for you, or does it feel different?"
	}
}

func (p *Policy) maybeOpenSession(ctx context.Context, userID string, level int) {
	if level < sessionThreshold {
		return
	}
	if _, err := p.sessions.UnresolvedSession(ctx, userID); err == nil {
		// Never a second open episode.
		return
	}
	if _, err := p.sessions.OpenSession(ctx, userID, level); err != nil {
		log.Printf("open session failed for user=%s: %v", userID, err)
	}
}

func (p *Policy) resolveSession(ctx context.Context, userID string, st *State) Reply {
	endLevel := 0
	if st.Pending.PainLevel != nil {
		endLevel = *st.Pending.PainLevel
	}
	if _, err := p.sessions.ResolveSession(ctx, userID, endLevel); err != nil {
		if err == store.ErrNoOpenSession {
			return Reply{Text: "Glad you're feeling better!"}
		}
		log.Printf("resolve session failed for user=%s: %v", userID, err)
		return Reply{Text: "Glad you're feeling better!"}
	}
	st.Pending = extractionZero()
	return Reply{Text: "Glad it's easing off. I've closed out that episode."}
}

func (p *Policy) profile(ctx context.Context, userID string) *store.Profile {
	profile, err := p.profiles.GetProfile(ctx, userID)
	if err != nil || profile == nil {
		// No profile yet: assume the location question is needed.
		return &store.Profile{UserID: userID}
	}
	return profile
}

// locationPills builds the quick-reply pills for the location question:
// the user's frequent or default locations plus the picker handoff.
func (p *Policy) locationPills(ctx context.Context, userID string, profile *store.Profile) []string {
	pills := make([]string, 0, 4)
	for _, loc := range profile.DefaultPainLocations {
		pills = append(pills, loc)
		if len(pills) == 3 {
			break
		}
	}
	if len(pills) == 0 {
		pills = append(pills, "Forehead", "Temples", "Neck")
	}
	return append(pills, "Choose specific areas")
}

// HistoryPatterns exposes suggestion computation to transports that render
// quick replies alongside the policy's own.
func HistoryPatterns(history []store.PainLogEntry) patterns.UserPatterns {
	return patterns.ComputePatterns(history)
}

func wantsInsights(lower string) bool {
	return strings.Contains(lower, "show insights") ||
		strings.Contains(lower, "show my progress") ||
		strings.Contains(lower, "see my insights")
}

func wantsPicker(lower string) bool {
	return strings.Contains(lower, "choose specific") ||
		strings.Contains(lower, "specific area") ||
		strings.Contains(lower, "body map")
}

func resolvesSession(lower string) bool {
	return strings.Contains(lower, "pain is gone") ||
		strings.Contains(lower, "it's gone") ||
		strings.Contains(lower, "its gone") ||
		strings.Contains(lower, "all better now") ||
		strings.Contains(lower, "subsided")
}

func hasIneffectiveMedication(meds []store.MedicationDose) bool {
	for _, med := range meds {
		if med.Effective != nil && !*med.Effective {
			return true
		}
	}
	return false
}

// mergePending folds a fresh extraction into the accumulated record. The
// pain level always reflects the latest message; set-valued fields union.
func mergePending(pending *extraction.ExtractedPainData, latest extraction.ExtractedPainData) {
	if latest.PainLevel != nil {
		pending.PainLevel = latest.PainLevel
	}
	pending.Locations = union(pending.Locations, latest.Locations)
	pending.Triggers = union(pending.Triggers, latest.Triggers)
	pending.Symptoms = union(pending.Symptoms, latest.Symptoms)
	pending.Medications = mergeMedications(pending.Medications, latest.Medications)
	if latest.Notes != "" {
		pending.Notes = latest.Notes
	}
}

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	out := append([]string(nil), a...)
	for _, s := range a {
		seen[s] = true
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func mergeMedications(a, b []store.MedicationDose) []store.MedicationDose {
	out := append([]store.MedicationDose(nil), a...)
	for _, med := range b {
		replaced := false
		for i := range out {
			if out[i].Name == med.Name {
				out[i] = med // the newer judgment wins
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, med)
		}
	}
	return out
}

func dedupe(items []string) []string {
	return union(nil, items)
}

func extractionZero() extraction.ExtractedPainData {
	return extraction.ExtractedPainData{}
}
