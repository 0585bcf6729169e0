package conversation

import (
	"context"
	"strings"

	"github.com/example/standup-bot/internal/application"
	"github.com/example/standup-bot/internal/session"
)

const (
	keywordCancel = "cancel"
	keywordSkip   = "skip"
	keywordAuto   = "auto"
	keywordNone   = "none"
)

// target is where a flow goes once a step has been answered or skipped.
type target struct {
	state    session.State
	step     int
	complete bool
}

func toStep(step int) target { return target{step: step} }

func toState(state session.State) target { return target{state: state} }

var done = target{complete: true}

// step is one question of a flow. Its position in flow.steps is the
// session step that asks it.
type step struct {
	field  string
	prompt func(tx *session.Tx) string
	// parse validates the raw answer and returns the value to store. An
	// error is shown to the user and the step is asked again.
	parse func(tx *session.Tx, raw string) (string, error)
	next  target
	// skip is where the "skip" keyword leads. Nil means the keyword is an
	// ordinary answer.
	skip *target
}

// completion runs the domain operation of a flow once every field is collected.
type completion func(ctx context.Context, e *Engine, msg Message, tx *session.Tx) (string, error)

// flow is the declarative description of one conversation state.
type flow struct {
	restart   string
	cancelled string
	failure   string
	steps     []step
	complete  completion
}

// flows maps every active state to its flow. The standup flow spans three
// states with one step each.
type flows map[session.State]*flow

func (fs flows) lookup(state session.State, index int) (*flow, *step, bool) {
	f, ok := fs[state]
	if !ok || index < 0 || index >= len(f.steps) {
		return f, nil, false
	}
	return f, &f.steps[index], true
}

func staticPrompt(text string) func(*session.Tx) string {
	return func(*session.Tx) string { return text }
}

func isKeyword(message, keyword string) bool {
	return strings.EqualFold(strings.TrimSpace(message), keyword)
}

// advance answers the pending step of an active session.
func (e *Engine) advance(ctx context.Context, msg Message, tx *session.Tx) string {
	state := tx.State()
	f, st, ok := e.flows.lookup(state, tx.Step())
	if !ok {
		return e.lost(ctx, tx, f)
	}

	text := strings.TrimSpace(msg.Text)
	if isKeyword(text, keywordCancel) {
		tx.Reset()
		return f.cancelled
	}

	var dest target
	switch {
	case st.skip != nil && isKeyword(text, keywordSkip):
		dest = *st.skip
	default:
		value := text
		if st.parse != nil {
			parsed, err := st.parse(tx, text)
			if err != nil {
				return "❌ " + err.Error() + "\n\n" + st.prompt(tx)
			}
			value = parsed
		}
		tx.Put(st.field, value)
		dest = st.next
	}

	if dest.complete {
		return e.finish(ctx, msg, tx, f)
	}
	if dest.state != "" {
		tx.SetState(dest.state)
	} else {
		tx.JumpTo(dest.step)
	}
	_, nextStep, ok := e.flows.lookup(tx.State(), tx.Step())
	if !ok {
		return e.lost(ctx, tx, f)
	}
	return nextStep.prompt(tx)
}

// finish runs the flow's domain operation. The session is reset whether or
// not the operation succeeds.
func (e *Engine) finish(ctx context.Context, msg Message, tx *session.Tx, f *flow) string {
	if f.complete == nil {
		return e.lost(ctx, tx, f)
	}
	reply, err := f.complete(ctx, e, msg, tx)
	tx.Reset()
	if err != nil {
		e.loggerFor(ctx, "finish", msg.Identity).WarnContext(ctx, "conversation operation failed", "error", err)
		return f.failure + application.UserMessage(err)
	}
	return reply
}

// lost handles a (state, step) pair no flow describes.
func (e *Engine) lost(ctx context.Context, tx *session.Tx, f *flow) string {
	e.loggerFor(ctx, "advance", tx.Session().Identity).WarnContext(ctx, "session in unknown position, resetting",
		"state", string(tx.State()), "step", tx.Step())
	tx.Reset()
	restart := "/help"
	if f != nil && f.restart != "" {
		restart = f.restart
	}
	return somethingWentWrong(restart)
}

func somethingWentWrong(restart string) string {
	return "Something went wrong. Please try again with **" + restart + "**"
}
