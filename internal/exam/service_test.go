package exam_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mind-engage/exam-simulator/internal/exam"
)

/* ---------------- fakes ---------------- */

type fakeSets struct {
	sets map[string][]exam.Question
}

func (f *fakeSets) List(context.Context) ([]string, error) {
	out := make([]string, 0, len(f.sets))
	for k := range f.sets {
		out = append(out, k)
	}
	return out, nil
}

func (f *fakeSets) Load(_ context.Context, set string) ([]exam.Question, error) {
	qs, ok := f.sets[set]
	if !ok {
		return nil, errNotFound
	}
	return qs, nil
}

var errNotFound = errors.New("set not found")

type fakeNarrator struct {
	texts []string
}

func (f *fakeNarrator) Narrate(_ context.Context, text string) string {
	f.texts = append(f.texts, text)
	return fmt.Sprintf("/audio/%d.wav", len(f.texts))
}

type fakeArchive struct {
	mu      sync.Mutex
	saved   map[string]exam.Report
	saves   int
	saveErr error
}

func (f *fakeArchive) Save(_ context.Context, r exam.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.saved[r.SessionID] = r
	return nil
}

func (f *fakeArchive) Get(_ context.Context, id string) (exam.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.saved[id]
	if !ok {
		return exam.Report{}, exam.ErrSessionNotFound
	}
	return r, nil
}

type fakeEvents struct {
	mu    sync.Mutex
	types []string
}

func (f *fakeEvents) Append(_ context.Context, typ, _ string, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.types = append(f.types, typ)
	return nil
}

type fixture struct {
	svc      *exam.Service
	reg      *exam.Registry
	narrator *fakeNarrator
	archive  *fakeArchive
	events   *fakeEvents
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		reg:      exam.NewRegistry(),
		narrator: &fakeNarrator{},
		archive:  &fakeArchive{saved: map[string]exam.Report{}},
		events:   &fakeEvents{},
		now:      time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	sets := &fakeSets{sets: map[string][]exam.Question{
		"SAA-C03": {
			{Question: "Durable storage?", Options: []string{"S3", "EC2 instance store"}, Correct: "S3"},
			{Question: "Managed SQL?", Options: []string{"RDS", "SQS"}, Correct: "RDS"},
			{Question: "Queue?", Options: []string{"SNS", "SQS"}, Correct: "SQS"},
		},
	}}
	f.svc = exam.NewService(sets, f.reg, zap.NewNop(),
		exam.WithNarrator(f.narrator),
		exam.WithArchive(f.archive),
		exam.WithEvents(f.events),
		exam.WithClock(func() time.Time { return f.now }),
	)
	return f
}

/* ---------------- tests ---------------- */

func TestService_StartTrainingWithAudioNarrates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st, err := f.svc.Start(ctx, exam.StartRequest{Set: "SAA-C03", Mode: "training", Audio: true})
	require.NoError(t, err)
	assert.NotEmpty(t, st.SessionID)
	assert.Equal(t, "Question 1: Durable storage?", st.Text)
	assert.Equal(t, "/audio/1.wav", st.Audio)
	assert.Equal(t, []string{"Durable storage? S3 EC2 instance store"}, f.narrator.texts)
	assert.Equal(t, 1, f.reg.Len())
	assert.Equal(t, []string{exam.EventSessionStarted}, f.events.types)

	ans, err := f.svc.Answer(ctx, st.SessionID, "S3")
	require.NoError(t, err)
	assert.True(t, ans.Correct)
	assert.Equal(t, "/audio/2.wav", ans.Audio)
	assert.Equal(t, "Correct! The answer is: S3", f.narrator.texts[1])
}

func TestService_TimedNeverNarrates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st, err := f.svc.Start(ctx, exam.StartRequest{Set: "SAA-C03", Mode: "timed", Limit: 2, Audio: true})
	require.NoError(t, err)
	assert.Empty(t, st.Audio)

	_, err = f.svc.Answer(ctx, st.SessionID, "S3")
	require.NoError(t, err)
	nx, err := f.svc.Next(ctx, st.SessionID)
	require.NoError(t, err)
	assert.True(t, nx.ReadyToFinish)
	assert.Empty(t, f.narrator.texts)
}

func TestService_StartUnknownSet(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Start(context.Background(), exam.StartRequest{Set: "nope"})
	require.ErrorIs(t, err, errNotFound)
	assert.Equal(t, 0, f.reg.Len())
}

func TestService_StartInvalidMode(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Start(context.Background(), exam.StartRequest{Set: "SAA-C03", Mode: "blitz"})
	require.ErrorIs(t, err, exam.ErrInvalidMode)
}

func TestService_UnknownSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Current(ctx, "missing")
	assert.ErrorIs(t, err, exam.ErrSessionNotFound)
	_, err = f.svc.Answer(ctx, "missing", "S3")
	assert.ErrorIs(t, err, exam.ErrSessionNotFound)
	_, err = f.svc.Finish(ctx, "missing")
	assert.ErrorIs(t, err, exam.ErrSessionNotFound)
	assert.ErrorIs(t, f.svc.Abandon(ctx, "missing"), exam.ErrSessionNotFound)
}

func TestService_FinishArchivesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st, err := f.svc.Start(ctx, exam.StartRequest{Set: "SAA-C03"})
	require.NoError(t, err)
	for _, choice := range []string{"S3", "RDS", "SNS"} {
		_, err := f.svc.Answer(ctx, st.SessionID, choice)
		require.NoError(t, err)
		_, err = f.svc.Next(ctx, st.SessionID)
		require.NoError(t, err)
	}
	f.now = f.now.Add(90 * time.Second)

	r, err := f.svc.Finish(ctx, st.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 66.67, r.Score)
	assert.Equal(t, 90*time.Second, r.Elapsed)
	assert.Contains(t, f.archive.saved, st.SessionID)

	_, err = f.svc.Finish(ctx, st.SessionID)
	require.NoError(t, err)
	assert.Equal(t, []string{exam.EventSessionStarted, exam.EventSessionFinished}, f.events.types)

	got, err := f.svc.Report(ctx, st.SessionID)
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestService_ConcurrentFinishArchivesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st, err := f.svc.Start(ctx, exam.StartRequest{Set: "SAA-C03"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	reports := make([]exam.Report, 8)
	for i := range reports {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := f.svc.Finish(ctx, st.SessionID)
			assert.NoError(t, err)
			reports[i] = r
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, f.archive.saves)
	assert.Equal(t, []string{exam.EventSessionStarted, exam.EventSessionFinished}, f.events.types)
	for _, r := range reports[1:] {
		assert.Equal(t, reports[0], r)
	}
}

func TestService_FinishSurvivesArchiveFailure(t *testing.T) {
	f := newFixture(t)
	f.archive.saveErr = errors.New("disk full")
	ctx := context.Background()

	st, err := f.svc.Start(ctx, exam.StartRequest{Set: "SAA-C03"})
	require.NoError(t, err)
	r, err := f.svc.Finish(ctx, st.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 3, r.Total)
}

func TestService_ReportBeforeFinish(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st, err := f.svc.Start(ctx, exam.StartRequest{Set: "SAA-C03"})
	require.NoError(t, err)

	_, err = f.svc.Report(ctx, st.SessionID)
	assert.ErrorIs(t, err, exam.ErrNotFinished)
}

func TestService_ReportFromArchiveAfterAbandon(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st, err := f.svc.Start(ctx, exam.StartRequest{Set: "SAA-C03"})
	require.NoError(t, err)
	_, err = f.svc.Finish(ctx, st.SessionID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Abandon(ctx, st.SessionID))
	assert.Equal(t, 0, f.reg.Len())

	r, err := f.svc.Report(ctx, st.SessionID)
	require.NoError(t, err)
	assert.Equal(t, st.SessionID, r.SessionID)
}

func TestService_SessionsAreIndependent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Start(ctx, exam.StartRequest{Set: "SAA-C03"})
	require.NoError(t, err)
	b, err := f.svc.Start(ctx, exam.StartRequest{Set: "SAA-C03"})
	require.NoError(t, err)
	require.NotEqual(t, a.SessionID, b.SessionID)

	_, err = f.svc.Answer(ctx, a.SessionID, "EC2 instance store")
	require.NoError(t, err)
	_, err = f.svc.Next(ctx, a.SessionID)
	require.NoError(t, err)

	bv, err := f.svc.Current(ctx, b.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 0, bv.Index)
	assert.Nil(t, bv.UserAnswer)
}

func TestService_ElapsedAndExplanation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st, err := f.svc.Start(ctx, exam.StartRequest{Set: "SAA-C03"})
	require.NoError(t, err)

	f.now = f.now.Add(61 * time.Second)
	d, err := f.svc.Elapsed(ctx, st.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "01:01", exam.FormatElapsed(d))

	e, err := f.svc.Explanation(ctx, st.SessionID)
	require.NoError(t, err)
	assert.Equal(t, exam.NoExplanation, e)
}

func TestService_SweepIdle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	old, err := f.svc.Start(ctx, exam.StartRequest{Set: "SAA-C03"})
	require.NoError(t, err)

	f.now = f.now.Add(3 * time.Hour)
	fresh, err := f.svc.Start(ctx, exam.StartRequest{Set: "SAA-C03"})
	require.NoError(t, err)

	assert.Equal(t, 1, f.svc.SweepIdle(2*time.Hour))
	_, err = f.svc.Current(ctx, old.SessionID)
	assert.ErrorIs(t, err, exam.ErrSessionNotFound)
	_, err = f.svc.Current(ctx, fresh.SessionID)
	assert.NoError(t, err)
}
