// Package notify defines the operator notification channel used by a
// derivation run, plus small implementations for recording, discarding
// and fanning out messages.
package notify

// Notifier presents messages to the operator. Both calls block until the
// operator has acknowledged the message.
type Notifier interface {
	// Inform shows an informational message.
	Inform(msg string)

	// Confirm asks the operator to allow a non-fatal condition.
	// It returns true if the run should proceed.
	Confirm(msg string) bool
}

// Discard drops every message and confirms everything.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Inform(string)       {}
func (discard) Confirm(string) bool { return true }

// Recorder keeps every message it receives. Confirm answers are taken from
// Answers in order; once exhausted, Default is returned.
type Recorder struct {
	Messages []string
	Prompts  []string
	Answers  []bool
	Default  bool
}

// NewRecorder returns a Recorder that confirms by default.
func NewRecorder() *Recorder {
	return &Recorder{Default: true}
}

// Inform records msg.
func (r *Recorder) Inform(msg string) {
	r.Messages = append(r.Messages, msg)
}

// Confirm records msg and returns the next scripted answer.
func (r *Recorder) Confirm(msg string) bool {
	r.Prompts = append(r.Prompts, msg)
	if len(r.Answers) == 0 {
		return r.Default
	}
	answer := r.Answers[0]
	r.Answers = r.Answers[1:]
	return answer
}

// Tee forwards messages to every notifier. Confirm asks the primary (first)
// notifier and only informs the rest of the prompt.
type Tee []Notifier

// Inform forwards msg to every notifier.
func (t Tee) Inform(msg string) {
	for _, n := range t {
		n.Inform(msg)
	}
}

// Confirm asks the first notifier.
func (t Tee) Confirm(msg string) bool {
	if len(t) == 0 {
		return true
	}
	for _, n := range t[1:] {
		n.Inform(msg)
	}
	return t[0].Confirm(msg)
}
