package conversation

import (
	"context"
	"testing"

	"github.com/example/standup-bot/internal/session"
)

func TestFlowTableIsConsistent(t *testing.T) {
	check := func(t *testing.T, owner session.State, from int, dest target) {
		t.Helper()
		switch {
		case dest.complete:
			if conversationFlows[owner].complete == nil {
				t.Fatalf("%s step %d completes a flow without a completion", owner, from)
			}
		case dest.state != "":
			if _, _, ok := conversationFlows.lookup(dest.state, 0); !ok {
				t.Fatalf("%s step %d moves to unknown state %s", owner, from, dest.state)
			}
		default:
			if _, _, ok := conversationFlows.lookup(owner, dest.step); !ok {
				t.Fatalf("%s step %d jumps to unknown step %d", owner, from, dest.step)
			}
			if dest.step <= from {
				t.Fatalf("%s step %d does not move forward (to %d)", owner, from, dest.step)
			}
		}
	}

	for state, f := range conversationFlows {
		if !state.IsActive() {
			t.Fatalf("idle state %q must not have a flow", state)
		}
		if f.restart == "" || f.cancelled == "" || f.failure == "" {
			t.Fatalf("%s flow is missing replies", state)
		}
		for i, st := range f.steps {
			if st.field == "" || st.prompt == nil {
				t.Fatalf("%s step %d is missing its field or prompt", state, i)
			}
			check(t, state, i, st.next)
			if st.skip != nil {
				check(t, state, i, *st.skip)
			}
		}
	}
}

func TestEveryActiveStateHasAFlow(t *testing.T) {
	states := []session.State{
		session.StateRegisteringOrg, session.StateCreatingTeam, session.StateAddingUser,
		session.StateStandupYesterday, session.StateStandupToday, session.StateStandupBlockers,
		session.StateUpdatingGitHub, session.StateUpdatingJira,
	}
	for _, state := range states {
		if _, ok := conversationFlows[state]; !ok {
			t.Fatalf("expected a flow for %s", state)
		}
	}
}

func TestCancelAtAnyStepResetsSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for state, f := range conversationFlows {
		for i := range f.steps {
			for _, keyword := range []string{"cancel", " CANCEL "} {
				err := h.sessions.Turn(ctx, "U1", func(tx *session.Tx) error {
					tx.SetState(state)
					tx.JumpTo(i)
					tx.Put(fieldOrgName, "partial")
					tx.PutLines(fieldCommits, []string{"a", "b"})
					return nil
				})
				if err != nil {
					t.Fatalf("failed to prepare session: %v", err)
				}
				if reply := h.say("U1", keyword); reply != f.cancelled {
					t.Fatalf("%s step %d: expected %q, got %q", state, i, f.cancelled, reply)
				}
				h.expectIdle("U1")
			}
		}
	}
}

func TestUnknownPositionResetsWithRestartHint(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	cases := []struct {
		state session.State
		step  int
		want  string
	}{
		{session.StateCreatingTeam, 9, "Something went wrong. Please try again with **/create-team**"},
		{session.StateStandupToday, 1, "Something went wrong. Please try again with **standup**"},
		{session.State("ARCHIVED_FLOW"), 0, "Something went wrong. Please try again with **/help**"},
	}
	for _, tc := range cases {
		if err := h.sessions.Turn(ctx, "U1", func(tx *session.Tx) error {
			tx.SetState(tc.state)
			tx.JumpTo(tc.step)
			tx.Put(fieldTeamName, "left over")
			return nil
		}); err != nil {
			t.Fatalf("failed to prepare session: %v", err)
		}
		if reply := h.say("U1", "anything"); reply != tc.want {
			t.Fatalf("%s/%d: expected %q, got %q", tc.state, tc.step, tc.want, reply)
		}
		h.expectIdle("U1")
	}
}

func TestSkipIsAnAnswerWhereNotOffered(t *testing.T) {
	h := newHarness(t)
	h.say("U1", "register org")
	h.say("U1", "skip")
	if got, _ := h.session("U1").Get(fieldOrgName); got != "skip" {
		t.Fatalf("expected skip to be stored as the name, got %q", got)
	}
}

func TestParseYesterday(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_ = h.sessions.Turn(ctx, "U1", func(tx *session.Tx) error {
		if got, err := parseYesterday(tx, "  wrote docs "); err != nil || got != "wrote docs" {
			t.Fatalf("expected trimmed answer, got %q, %v", got, err)
		}
		if _, err := parseYesterday(tx, "   "); err == nil {
			t.Fatalf("expected empty answer to be rejected")
		}
		if _, err := parseYesterday(tx, "AUTO"); err == nil {
			t.Fatalf("expected auto without fetched work to be rejected")
		}
		tx.PutLines(fieldIssues, []string{"[ENG-2] Fix - To Do"})
		if got, err := parseYesterday(tx, "auto"); err != nil || got != "• [ENG-2] Fix - To Do" {
			t.Fatalf("expected issue line, got %q, %v", got, err)
		}
		return nil
	})
}

func TestParseBlockers(t *testing.T) {
	cases := map[string]string{
		"none":            "",
		" None ":          "",
		"waiting on QA":   "waiting on QA",
		"":                "",
		"no blockers atm": "no blockers atm",
	}
	for in, want := range cases {
		got, err := parseBlockers(nil, in)
		if err != nil || got != want {
			t.Fatalf("parseBlockers(%q): expected %q, got %q (%v)", in, want, got, err)
		}
	}
}
