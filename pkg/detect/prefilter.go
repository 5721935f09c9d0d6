package detect

import (
	"regexp"
	"strings"
	"time"

	"github.com/venueflow/venueflow/pkg/dateparse"
	"github.com/venueflow/venueflow/pkg/models"
)

var (
	emailRe       = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	postalRe      = regexp.MustCompile(`\b\d{5}\b`)
	confirmRe     = regexp.MustCompile(`(?i)\b(confirm|confirmed|bestätige|bestätigt)\b`)
	participantRe = regexp.MustCompile(`(?i)\b\d{1,4}\s*(people|persons?|participants?|guests?|pax|attendees|personen|gäste)\b`)
	revisionRe    = regexp.MustCompile(`(?i)\b(change|switch|reschedule|instead|actually|move|ändern|stattdessen|verschieben)\b`)
	acceptRe      = regexp.MustCompile(`(?i)\b(accept|sounds good|looks (great|good|perfect)|we('| wi)ll take|go ahead|that works)\b`)
	roomWordRe    = regexp.MustCompile(`(?i)\b(room|raum|saal)\b`)
)

// hasRepeatRun reports a run of at least n identical characters.
func hasRepeatRun(text string, n int) bool {
	var prev rune
	run := 0
	for _, r := range text {
		if r == prev {
			run++
			if run >= n {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}

// Multi-word interrogative openers always count as a question signal.
var multiWordInterrogatives = []string{
	"can you", "could you", "is there", "are there", "do you", "does the",
	"would it", "what is", "what are", "how much", "how many",
}

// Single-word interrogatives only count at message start or with a "?".
var singleWordInterrogatives = []string{"what", "which", "when", "where", "who", "how", "why"}

var singleWordRes = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(singleWordInterrogatives))
	for _, w := range singleWordInterrogatives {
		m[w] = regexp.MustCompile(`\b` + w + `\b`)
	}
	return m
}()

// IsGibberish applies keyboard-mash heuristics: long repeated-character
// runs, vowel-free words, or a low letter ratio.
func IsGibberish(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return true
	}
	if hasRepeatRun(t, 6) {
		return true
	}

	letters, total := 0, 0
	for _, r := range t {
		if r == ' ' || r == '\n' || r == '\t' {
			continue
		}
		total++
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r > 127 {
			letters++
		}
	}
	if total > 0 && float64(letters)/float64(total) < 0.5 {
		return true
	}

	// A message of only vowel-free "words" is keyboard mash.
	words := strings.Fields(strings.ToLower(t))
	if len(words) == 0 {
		return true
	}
	vowelless := 0
	for _, w := range words {
		letterCount := 0
		hasVowel := false
		for _, r := range w {
			if r >= 'a' && r <= 'z' {
				letterCount++
				if strings.ContainsRune("aeiouyäöü", r) {
					hasVowel = true
				}
			}
		}
		if letterCount >= 4 && !hasVowel {
			vowelless++
		}
	}
	return vowelless == len(words) && len(words) > 0 && !dateparse.ContainsDate(t, time.Now())
}

// Prefilter computes the free deterministic signals for a message. It runs
// before (and regardless of) any LLM call.
func Prefilter(body string, now time.Time) models.PrefilterFlags {
	flags := models.PrefilterFlags{}
	if IsGibberish(body) {
		flags.Gibberish = true
		return flags
	}

	lower := strings.ToLower(body)
	flags.HasEmail = emailRe.MatchString(body)
	flags.HasPostalCode = postalRe.MatchString(body)
	flags.HasConfirmWord = confirmRe.MatchString(body)
	flags.HasDate = dateparse.ContainsDate(body, now)
	flags.HasParticipants = participantRe.MatchString(body)
	flags.HasRevisionSignal = revisionRe.MatchString(body)

	for _, phrase := range multiWordInterrogatives {
		if strings.Contains(lower, phrase) {
			flags.HasQuestionSignal = true
			break
		}
	}
	if !flags.HasQuestionSignal {
		for _, w := range singleWordInterrogatives {
			if strings.HasPrefix(lower, w+" ") ||
				(strings.Contains(lower, "?") && singleWordRes[w].MatchString(lower)) {
				flags.HasQuestionSignal = true
				break
			}
		}
	}

	flags.HasWorkflowSignal = flags.HasDate || flags.HasParticipants ||
		flags.HasConfirmWord || flags.HasRevisionSignal ||
		acceptRe.MatchString(body) || roomWordRe.MatchString(body)
	return flags
}
