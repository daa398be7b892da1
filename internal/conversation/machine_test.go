package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/scam-report-bot/internal/domain/valueobject"
	"github.com/ignatzorin/scam-report-bot/internal/gateway"
	"github.com/ignatzorin/scam-report-bot/internal/logger"
	"github.com/ignatzorin/scam-report-bot/internal/messages"
	"github.com/ignatzorin/scam-report-bot/internal/pkg/apperror"
	"github.com/ignatzorin/scam-report-bot/internal/service"
	"github.com/ignatzorin/scam-report-bot/internal/testutil"
)

var (
	reviewGroup = gateway.Destination{ChatID: -1001}
	community   = gateway.Destination{Username: "@community"}
)

type fixture struct {
	states    *MemoryStore
	reports   *testutil.ReportRepo
	blacklist *testutil.BlacklistRepo
	messenger *testutil.Messenger
	machine   *Machine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger.Discard()

	f := &fixture{
		states:    NewMemoryStore(),
		reports:   testutil.NewReportRepo(),
		blacklist: testutil.NewBlacklistRepo(),
		messenger: testutil.NewMessenger(),
	}
	gate := service.NewGatingService(f.messenger, f.blacklist, community)
	resolver := testutil.Resolver{IDs: map[string]int64{"scammeruser": 5550001}}
	f.machine = NewMachine(f.states, gate, f.reports, f.messenger, resolver, reviewGroup)
	return f
}

func (f *fixture) send(t *testing.T, userID int64, text string) Outcome {
	t.Helper()
	outcome, err := f.machine.HandleMessage(context.Background(), userID, text)
	require.NoError(t, err)
	return outcome
}

func TestMachine_FullSubmission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.messenger.Members[111] = "member"

	verdict, err := f.machine.Start(ctx, 111)
	require.NoError(t, err)
	require.True(t, verdict.Allowed)
	assert.Equal(t, messages.PromptScammer, f.messenger.Last(gateway.User(111)).Text)

	assert.Equal(t, OutcomeAdvanced, f.send(t, 111, "scammeruser"))
	assert.Equal(t, messages.PromptAmount, f.messenger.Last(gateway.User(111)).Text)
	assert.Equal(t, OutcomeAdvanced, f.send(t, 111, "$50"))
	assert.Equal(t, OutcomeAdvanced, f.send(t, 111, "Took my money and blocked me"))
	assert.Equal(t, OutcomeSubmitted, f.send(t, 111, "https://t.me/c/123/45"))

	report, err := f.reports.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, valueobject.ReportStatusPending, report.Status)
	assert.Equal(t, int64(111), report.ReporterID)
	assert.Equal(t, "scammeruser", report.Scammer)
	assert.True(t, report.ScammerID.Valid)
	assert.Equal(t, int64(5550001), report.ScammerID.Int64)
	assert.Equal(t, "$50", report.Amount)
	assert.Equal(t, "Took my money and blocked me", report.Description)
	assert.Equal(t, "https://t.me/c/123/45", report.ProofLink)

	review := f.messenger.Last(reviewGroup)
	require.NotEmpty(t, review.Text)
	require.Len(t, review.Controls, 1)
	assert.Equal(t, "accept_1", review.Controls[0][0].Data)
	assert.Equal(t, "deny_1", review.Controls[0][1].Data)
	assert.Equal(t, "blacklist_1", review.Controls[0][2].Data)
	assert.True(t, report.ReviewMessageID.Valid)
	assert.Equal(t, int64(review.MessageID), report.ReviewMessageID.Int64)

	assert.Equal(t, messages.ReportSubmitted, f.messenger.Last(gateway.User(111)).Text)
	assert.Zero(t, f.states.Len())
}

func TestMachine_UnresolvedHandleDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.messenger.Members[111] = "member"

	_, err := f.machine.Start(ctx, 111)
	require.NoError(t, err)
	for _, text := range []string{"alice99", "10 USDT", "Never delivered the goods", "https://t.me/c/1/2"} {
		f.send(t, 111, text)
	}

	report, err := f.reports.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.False(t, report.ScammerID.Valid)
}

func TestMachine_InvalidInputDoesNotAdvance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.messenger.Members[111] = "member"
	_, err := f.machine.Start(ctx, 111)
	require.NoError(t, err)

	assert.Equal(t, OutcomeRetry, f.send(t, 111, "@al_ice99"))
	assert.Equal(t, messages.InvalidScammer, f.messenger.Last(gateway.User(111)).Text)
	state, ok, _ := f.states.Get(ctx, 111)
	require.True(t, ok)
	assert.Equal(t, StepScammer, state.Step)

	assert.Equal(t, OutcomeAdvanced, f.send(t, 111, "alice99"))

	assert.Equal(t, OutcomeRetry, f.send(t, 111, strings.Repeat("9", 33)))
	assert.Equal(t, messages.InvalidAmount, f.messenger.Last(gateway.User(111)).Text)
	state, _, _ = f.states.Get(ctx, 111)
	assert.Equal(t, StepAmount, state.Step)
	assert.Empty(t, state.Draft.Amount)

	assert.Equal(t, OutcomeAdvanced, f.send(t, 111, "$5"))

	assert.Equal(t, OutcomeRetry, f.send(t, 111, "bad"))
	state, _, _ = f.states.Get(ctx, 111)
	assert.Equal(t, StepDescription, state.Step)

	assert.Equal(t, OutcomeAdvanced, f.send(t, 111, "Never delivered the goods"))
	assert.Equal(t, OutcomeRetry, f.send(t, 111, "t.me"))
	assert.Equal(t, messages.InvalidProof, f.messenger.Last(gateway.User(111)).Text)
	state, _, _ = f.states.Get(ctx, 111)
	assert.Equal(t, StepProof, state.Step)

	all, _ := f.reports.ListAll(ctx)
	assert.Empty(t, all)
}

func TestMachine_IgnoresCommandsAndStrangers(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, OutcomeIgnored, f.send(t, 999, "scammeruser"))
	assert.Empty(t, f.messenger.Sent)

	f.messenger.Members[111] = "member"
	_, err := f.machine.Start(context.Background(), 111)
	require.NoError(t, err)
	before := len(f.messenger.Sent)
	assert.Equal(t, OutcomeIgnored, f.send(t, 111, "/lookup alice"))
	assert.Len(t, f.messenger.Sent, before)
}

func TestMachine_StartDeniedForNonMember(t *testing.T) {
	f := newFixture(t)

	verdict, err := f.machine.Start(context.Background(), 111)
	require.NoError(t, err)
	assert.False(t, verdict.Allowed)
	assert.Equal(t, messages.MustJoinChannel, f.messenger.Last(gateway.User(111)).Text)
	assert.Zero(t, f.states.Len())
}

func TestMachine_StartOverwritesAbandonedState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.messenger.Members[111] = "member"

	_, err := f.machine.Start(ctx, 111)
	require.NoError(t, err)
	f.send(t, 111, "alice99")
	f.send(t, 111, "$5")

	_, err = f.machine.Start(ctx, 111)
	require.NoError(t, err)
	state, ok, _ := f.states.Get(ctx, 111)
	require.True(t, ok)
	assert.Equal(t, StepScammer, state.Step)
	assert.Empty(t, state.Draft.Scammer)
}

func TestMachine_CorruptedStateAborts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Поле шага 1 испорчено уже после проверки.
	require.NoError(t, f.states.Put(ctx, State{
		UserID: 111,
		Step:   StepProof,
		Draft:  Draft{Scammer: "_bad_", Amount: "$5", Description: "some description"},
	}))

	assert.Equal(t, OutcomeAborted, f.send(t, 111, "https://t.me/c/1/2"))
	assert.Equal(t, messages.ReportInvalid, f.messenger.Last(gateway.User(111)).Text)
	assert.Zero(t, f.states.Len())
	all, _ := f.reports.ListAll(ctx)
	assert.Empty(t, all)
}

func TestMachine_StoreFailureKeepsLastStep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.reports.CreateErr = errors.New("connection reset")

	require.NoError(t, f.states.Put(ctx, State{
		UserID: 111,
		Step:   StepProof,
		Draft:  Draft{Scammer: "alice99", Amount: "$5", Description: "some description"},
	}))

	_, err := f.machine.HandleMessage(ctx, 111, "https://t.me/c/1/2")
	assert.Error(t, err)
	assert.Equal(t, "Something went wrong. Please try again later.", f.messenger.Last(gateway.User(111)).Text)

	state, ok, _ := f.states.Get(ctx, 111)
	require.True(t, ok)
	assert.Equal(t, StepProof, state.Step)

	f.reports.CreateErr = nil
	assert.Equal(t, OutcomeSubmitted, f.send(t, 111, "https://t.me/c/1/2"))
}

func TestMachine_ReviewPostFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.messenger.FailTo[reviewGroup] = errors.New("chat not found")

	require.NoError(t, f.states.Put(ctx, State{
		UserID: 111,
		Step:   StepProof,
		Draft:  Draft{Scammer: "alice99", Amount: "$5", Description: "some description"},
	}))

	outcome, err := f.machine.HandleMessage(ctx, 111, "https://t.me/c/1/2")
	assert.Error(t, err)
	assert.Equal(t, OutcomeSubmitted, outcome)
	assert.Zero(t, f.states.Len())

	report, err := f.reports.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.False(t, report.ReviewMessageID.Valid)
}

// brokenStore отказывает на чтении или записи, как недоступный Redis.
type brokenStore struct {
	*MemoryStore
	getErr error
	putErr error
}

func (s *brokenStore) Get(ctx context.Context, userID int64) (State, bool, error) {
	if s.getErr != nil {
		return State{}, false, s.getErr
	}
	return s.MemoryStore.Get(ctx, userID)
}

func (s *brokenStore) Put(ctx context.Context, state State) error {
	if s.putErr != nil {
		return s.putErr
	}
	return s.MemoryStore.Put(ctx, state)
}

func TestMachine_StateStoreFailureReportedToUser(t *testing.T) {
	cases := map[string]*brokenStore{
		"get": {MemoryStore: NewMemoryStore(), getErr: errors.New("redis: connection refused")},
		"put": {MemoryStore: NewMemoryStore(), putErr: errors.New("redis: connection refused")},
	}
	for name, store := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			require.NoError(t, store.MemoryStore.Put(ctx, State{UserID: 111, Step: StepScammer}))
			f.machine.states = store

			outcome, err := f.machine.HandleMessage(ctx, 111, "scammeruser")
			cause := store.getErr
			if cause == nil {
				cause = store.putErr
			}
			assert.ErrorIs(t, err, cause)
			assert.Equal(t, OutcomeIgnored, outcome)

			sent := f.messenger.SentTo(gateway.User(111))
			require.Len(t, sent, 1)
			assert.Equal(t, apperror.GenericFailure, sent[0].Text)

			state, ok, _ := store.MemoryStore.Get(ctx, 111)
			require.True(t, ok)
			assert.Equal(t, StepScammer, state.Step)
		})
	}
}

func TestMachine_EmptyTextIgnored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.messenger.Members[111] = "member"
	_, err := f.machine.Start(ctx, 111)
	require.NoError(t, err)
	before := len(f.messenger.Sent)

	assert.Equal(t, OutcomeIgnored, f.send(t, 111, ""))
	assert.Len(t, f.messenger.Sent, before)
	state, _, _ := f.states.Get(ctx, 111)
	assert.Equal(t, StepScammer, state.Step)
}

func TestMachine_UnknownStepAborts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.states.Put(ctx, State{UserID: 111, Step: Step(9)}))

	assert.Equal(t, OutcomeAborted, f.send(t, 111, "alice99"))
	assert.Equal(t, messages.ReportInvalid, f.messenger.Last(gateway.User(111)).Text)
	assert.Zero(t, f.states.Len())
}
