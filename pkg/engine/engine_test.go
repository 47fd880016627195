package engine_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/angusholder/sqltool/pkg/engine"
	"github.com/angusholder/sqltool/pkg/progress"
	"github.com/angusholder/sqltool/pkg/tool"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObject struct {
	name string
}

func (o *fakeObject) FullName() string { return o.name }

type fakeSettings struct {
	objects []*fakeObject
	loadErr error
	loaded  bool
}

func (s *fakeSettings) ObjectList() []*fakeObject { return s.objects }

func (s *fakeSettings) LoadConfiguration(ctx context.Context, properties map[string]any) error {
	s.loaded = true
	return s.loadErr
}

type fakeSession struct {
	object   string
	executed []string
	execErrs map[string]error
	closed   bool
}

func (s *fakeSession) Execute(ctx context.Context, script string) error {
	s.executed = append(s.executed, script)
	return s.execErrs[script]
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeProvider struct {
	sessions map[string]*fakeSession
	openErrs map[string]error
	opened   []string
}

func newFakeProvider(objects ...string) *fakeProvider {
	p := &fakeProvider{sessions: map[string]*fakeSession{}}
	for _, name := range objects {
		p.sessions[name] = &fakeSession{object: name}
	}
	return p
}

func (p *fakeProvider) OpenSession(ctx context.Context, mon progress.Monitor, object *fakeObject, purpose string) (tool.Session, error) {
	p.opened = append(p.opened, object.name)
	if err := p.openErrs[object.name]; err != nil {
		return nil, err
	}

	session, ok := p.sessions[object.name]
	if !ok {
		session = &fakeSession{object: object.name}
		p.sessions[object.name] = session
	}
	return session, nil
}

type fakeHandler struct {
	settings *fakeSettings
	actions  map[string][]*tool.Action
	genErrs  map[string]error
	genCalls []string
}

func (h *fakeHandler) CreateSettings() *fakeSettings { return h.settings }

func (h *fakeHandler) GenerateActions(ctx context.Context, session tool.Session, settings *fakeSettings, object *fakeObject) ([]*tool.Action, error) {
	h.genCalls = append(h.genCalls, object.name)
	if err := h.genErrs[object.name]; err != nil {
		return nil, err
	}
	return h.actions[object.name], nil
}

type fakeStat struct {
	tool.ExecutionStatistics

	label      string
	stampCalls int
}

func (s *fakeStat) SetExecutionTime(d time.Duration) {
	s.stampCalls++
	s.ExecutionStatistics.SetExecutionTime(d)
}

// statsHandler is a fakeHandler that also declares the statistics
// capability.
type statsHandler struct {
	*fakeHandler

	statsErr   error
	statsCalls []string
}

func (h *statsHandler) ExecuteStatistics(ctx context.Context, object *fakeObject, settings *fakeSettings, action *tool.Action, session tool.Session) ([]tool.Statistics, error) {
	h.statsCalls = append(h.statsCalls, object.name)
	if h.statsErr != nil {
		return nil, h.statsErr
	}
	return []tool.Statistics{&fakeStat{label: object.name + "/" + action.Title}}, nil
}

type recordMonitor struct {
	label       string
	total       int
	worked      int
	subTasks    []string
	doneCalls   int
	cancelAfter int // cancel once this many units were worked; -1 disables
}

func newRecordMonitor() *recordMonitor { return &recordMonitor{cancelAfter: -1} }

func (m *recordMonitor) Begin(label string, totalUnits int) {
	m.label = label
	m.total = totalUnits
}

func (m *recordMonitor) SubTask(label string) { m.subTasks = append(m.subTasks, label) }
func (m *recordMonitor) Worked(units int)     { m.worked += units }
func (m *recordMonitor) Done()                { m.doneCalls++ }

func (m *recordMonitor) Canceled() bool {
	return m.cancelAfter >= 0 && m.worked >= m.cancelAfter
}

type statsDelivery struct {
	object  *fakeObject
	action  *tool.Action
	records []tool.Statistics
}

type recordListener struct {
	started    []any
	finished   []any
	finishErrs []error
	deliveries []statsDelivery
}

func (l *recordListener) TaskStarted(subject any) { l.started = append(l.started, subject) }

func (l *recordListener) TaskFinished(subject any, err error) {
	l.finished = append(l.finished, subject)
	l.finishErrs = append(l.finishErrs, err)
}

func (l *recordListener) HandleActionStatistics(object *fakeObject, action *tool.Action, session tool.Session, records []tool.Statistics) {
	l.deliveries = append(l.deliveries, statsDelivery{object: object, action: action, records: records})
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func objects(names ...string) []*fakeObject {
	out := make([]*fakeObject, len(names))
	for i, name := range names {
		out[i] = &fakeObject{name: name}
	}
	return out
}

func newEngine(h tool.Handler[*fakeObject, *fakeSettings], p *fakeProvider) *engine.Engine[*fakeObject, *fakeSettings] {
	return engine.New(engine.Config[*fakeObject, *fakeSettings]{
		Handler:  h,
		Sessions: p,
		Logger:   testLogger(),
	})
}

func testTask() *tool.Task {
	return &tool.Task{Name: "test-task", Tool: "test", Properties: map[string]any{}}
}

func TestEngine_Execute_GeneratorOncePerObjectInOrder(t *testing.T) {
	settings := &fakeSettings{objects: objects("t1", "t2", "t3")}
	handler := &fakeHandler{
		settings: settings,
		actions: map[string][]*tool.Action{
			"t1": {tool.NewAction("a", "UPDATE 1")},
			"t2": {tool.NewAction("b", "UPDATE 2")},
			"t3": {tool.NewAction("c", "UPDATE 3")},
		},
	}
	provider := newFakeProvider("t1", "t2", "t3")
	listener := &recordListener{}

	summary, err := newEngine(handler, provider).Execute(context.Background(), testTask(), settings, newRecordMonitor(), listener)
	require.NoError(t, err)

	assert.Equal(t, []string{"t1", "t2", "t3"}, handler.genCalls)
	assert.Equal(t, []string{"t1", "t2", "t3"}, provider.opened)
	assert.Equal(t, 3, summary.Objects)
	assert.Equal(t, 3, summary.Actions)
}

func TestEngine_Execute_CommentsNeverExecuted(t *testing.T) {
	settings := &fakeSettings{objects: objects("t1")}
	handler := &fakeHandler{
		settings: settings,
		actions: map[string][]*tool.Action{
			"t1": {
				tool.NewComment("-- header"),
				tool.NewAction("blank", "   "),
				tool.NewAction("real", "UPDATE STATISTICS t1"),
			},
		},
	}
	provider := newFakeProvider("t1")

	summary, err := newEngine(handler, provider).Execute(context.Background(), testTask(), settings, newRecordMonitor(), &recordListener{})
	require.NoError(t, err)

	assert.Equal(t, []string{"UPDATE STATISTICS t1"}, provider.sessions["t1"].executed)
	assert.Equal(t, 1, summary.Actions)
	assert.Equal(t, 2, summary.Skipped)
}

func TestEngine_Execute_IsolatesActionErrors(t *testing.T) {
	// Scenario: the second of three actions on t1 fails. The remaining
	// action on t1 and all of t2 still execute, and the finish callback
	// carries no error.
	settings := &fakeSettings{objects: objects("t1", "t2")}
	handler := &fakeHandler{
		settings: settings,
		actions: map[string][]*tool.Action{
			"t1": {
				tool.NewAction("a", "OK 1"),
				tool.NewAction("b", "BOOM"),
				tool.NewAction("c", "OK 2"),
			},
			"t2": {tool.NewAction("d", "OK 3")},
		},
	}
	provider := newFakeProvider("t1", "t2")
	provider.sessions["t1"].execErrs = map[string]error{"BOOM": errors.New("table corrupted")}
	listener := &recordListener{}

	summary, err := newEngine(handler, provider).Execute(context.Background(), testTask(), settings, newRecordMonitor(), listener)
	require.NoError(t, err)

	assert.Equal(t, []string{"OK 1", "BOOM", "OK 2"}, provider.sessions["t1"].executed)
	assert.Equal(t, []string{"OK 3"}, provider.sessions["t2"].executed)

	require.Len(t, listener.finishErrs, 1)
	assert.NoError(t, listener.finishErrs[0])

	assert.Equal(t, 3, summary.Actions)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Isolated, 1)
	assert.True(t, tool.IsStatementError(summary.Isolated[0]))
}

func TestEngine_Execute_GeneratorFailureAborts(t *testing.T) {
	// Scenario: t1's generator fails. t2's generator is never invoked and
	// the finish callback carries the error.
	settings := &fakeSettings{objects: objects("t1", "t2")}
	handler := &fakeHandler{
		settings: settings,
		genErrs:  map[string]error{"t1": errors.New("unsupported engine")},
	}
	provider := newFakeProvider("t1", "t2")
	listener := &recordListener{}

	_, err := newEngine(handler, provider).Execute(context.Background(), testTask(), settings, newRecordMonitor(), listener)
	require.Error(t, err)
	assert.True(t, tool.IsGenerationError(err))

	assert.Equal(t, []string{"t1"}, handler.genCalls)
	assert.Equal(t, []string{"t1"}, provider.opened)
	assert.True(t, provider.sessions["t1"].closed, "session must be released on generator failure")

	require.Len(t, listener.finishErrs, 1)
	assert.Equal(t, err, listener.finishErrs[0])
}

func TestEngine_Execute_EmptyObjectList(t *testing.T) {
	settings := &fakeSettings{}
	handler := &fakeHandler{settings: settings}
	mon := newRecordMonitor()
	listener := &recordListener{}

	summary, err := newEngine(handler, newFakeProvider()).Execute(context.Background(), testTask(), settings, mon, listener)
	require.NoError(t, err)

	assert.Equal(t, 0, mon.worked)
	assert.Equal(t, 1, mon.doneCalls)
	assert.Equal(t, 0, summary.Objects)
	require.Len(t, listener.finishErrs, 1)
	assert.NoError(t, listener.finishErrs[0])
}

func TestEngine_Execute_SessionOpenFailureSkipsObject(t *testing.T) {
	settings := &fakeSettings{objects: objects("t1", "t2")}
	handler := &fakeHandler{
		settings: settings,
		actions: map[string][]*tool.Action{
			"t2": {tool.NewAction("a", "UPDATE 2")},
		},
	}
	provider := newFakeProvider("t2")
	provider.openErrs = map[string]error{"t1": errors.New("connection refused")}

	summary, err := newEngine(handler, provider).Execute(context.Background(), testTask(), settings, newRecordMonitor(), &recordListener{})

	// The first failure of the run surfaces, but t2 was still processed.
	require.Error(t, err)
	assert.True(t, tool.IsSessionError(err))
	assert.Equal(t, []string{"t2"}, handler.genCalls)
	assert.Equal(t, []string{"UPDATE 2"}, provider.sessions["t2"].executed)
	assert.Equal(t, 2, summary.Objects)
}

func TestEngine_Execute_Cancellation(t *testing.T) {
	settings := &fakeSettings{objects: objects("t1", "t2")}
	handler := &fakeHandler{
		settings: settings,
		actions: map[string][]*tool.Action{
			"t1": {
				tool.NewAction("a", "OK 1"),
				tool.NewAction("b", "OK 2"),
			},
			"t2": {tool.NewAction("c", "OK 3")},
		},
	}
	provider := newFakeProvider("t1", "t2")

	// Cancel once the first action has been counted.
	mon := newRecordMonitor()
	mon.cancelAfter = 1

	summary, err := newEngine(handler, provider).Execute(context.Background(), testTask(), settings, mon, &recordListener{})
	require.NoError(t, err)

	assert.Equal(t, []string{"OK 1"}, provider.sessions["t1"].executed)
	assert.True(t, provider.sessions["t1"].closed, "session must be released after cancellation")
	assert.Empty(t, provider.sessions["t2"].executed, "no further objects may start")
	assert.Equal(t, []string{"t1"}, handler.genCalls)
	assert.Equal(t, 1, summary.Actions)
}

func TestEngine_Execute_ProgressAccounting(t *testing.T) {
	settings := &fakeSettings{objects: objects("t1", "t2")}
	handler := &fakeHandler{
		settings: settings,
		actions: map[string][]*tool.Action{
			"t1": {
				tool.NewComment("-- t1"),
				tool.NewAction("a", "OK 1"),
				tool.NewAction("b", "OK 2"),
			},
			"t2": {tool.NewAction("c", "OK 3")},
		},
	}
	provider := newFakeProvider("t1", "t2")
	mon := newRecordMonitor()

	_, err := newEngine(handler, provider).Execute(context.Background(), testTask(), settings, mon, &recordListener{})
	require.NoError(t, err)

	// One unit per action (executed, failed, or skipped) plus one per
	// completed object: (3+1) + (1+1).
	assert.Equal(t, 6, mon.worked)
	assert.Equal(t, 2, mon.total)
	assert.Equal(t, 1, mon.doneCalls)
}

func TestEngine_Execute_SessionsClosedOnAllPaths(t *testing.T) {
	settings := &fakeSettings{objects: objects("t1", "t2")}
	handler := &fakeHandler{
		settings: settings,
		actions: map[string][]*tool.Action{
			"t1": {tool.NewAction("a", "BOOM")},
			"t2": {tool.NewAction("b", "OK")},
		},
	}
	provider := newFakeProvider("t1", "t2")
	provider.sessions["t1"].execErrs = map[string]error{"BOOM": errors.New("boom")}

	_, err := newEngine(handler, provider).Execute(context.Background(), testTask(), settings, newRecordMonitor(), &recordListener{})
	require.NoError(t, err)

	assert.True(t, provider.sessions["t1"].closed)
	assert.True(t, provider.sessions["t2"].closed)
}

func TestEngine_Execute_StatisticsDelivered(t *testing.T) {
	settings := &fakeSettings{objects: objects("t1", "t2")}
	handler := &statsHandler{fakeHandler: &fakeHandler{
		settings: settings,
		actions: map[string][]*tool.Action{
			"t1": {
				tool.NewComment("-- skipped"),
				tool.NewAction("a", "OK 1"),
			},
			"t2": {tool.NewAction("b", "OK 2")},
		},
	}}
	provider := newFakeProvider("t1", "t2")
	listener := &recordListener{}

	eng := newEngine(handler, provider)
	assert.True(t, eng.Capabilities().Statistics)

	_, err := eng.Execute(context.Background(), testTask(), settings, newRecordMonitor(), listener)
	require.NoError(t, err)

	// Statistics only for executed actions, in action order, each stamped
	// exactly once with the measured execution time.
	assert.Equal(t, []string{"t1", "t2"}, handler.statsCalls)
	require.Len(t, listener.deliveries, 2)
	assert.Equal(t, "t1", listener.deliveries[0].object.name)
	assert.Equal(t, "t2", listener.deliveries[1].object.name)

	for _, delivery := range listener.deliveries {
		require.Len(t, delivery.records, 1)
		stat := delivery.records[0].(*fakeStat)
		assert.Equal(t, 1, stat.stampCalls)
	}
}

func TestEngine_Execute_StatisticsSkippedForPlainListener(t *testing.T) {
	settings := &fakeSettings{objects: objects("t1")}
	handler := &statsHandler{fakeHandler: &fakeHandler{
		settings: settings,
		actions: map[string][]*tool.Action{
			"t1": {tool.NewAction("a", "OK")},
		},
	}}
	provider := newFakeProvider("t1")

	// tool.NopListener does not implement RunListener, so statistics are
	// never requested.
	_, err := newEngine(handler, provider).Execute(context.Background(), testTask(), settings, newRecordMonitor(), tool.NopListener{})
	require.NoError(t, err)

	assert.Empty(t, handler.statsCalls)
}

func TestEngine_Execute_StatisticsErrorIsIsolated(t *testing.T) {
	settings := &fakeSettings{objects: objects("t1")}
	handler := &statsHandler{
		fakeHandler: &fakeHandler{
			settings: settings,
			actions: map[string][]*tool.Action{
				"t1": {tool.NewAction("a", "OK")},
			},
		},
		statsErr: errors.New("system.parts unavailable"),
	}
	provider := newFakeProvider("t1")
	listener := &recordListener{}

	summary, err := newEngine(handler, provider).Execute(context.Background(), testTask(), settings, newRecordMonitor(), listener)
	require.NoError(t, err)

	assert.Empty(t, listener.deliveries)
	assert.Equal(t, 1, summary.Actions, "the action itself still counts as executed")
}

func TestEngine_Capabilities(t *testing.T) {
	plain := &fakeHandler{settings: &fakeSettings{}}
	caps := newEngine(plain, newFakeProvider()).Capabilities()
	assert.False(t, caps.Statistics)
	assert.False(t, caps.NeedsConfirmation)

	withStats := &statsHandler{fakeHandler: &fakeHandler{settings: &fakeSettings{}}}
	caps = newEngine(withStats, newFakeProvider()).Capabilities()
	assert.True(t, caps.Statistics)
}

func TestEngine_RunTask_NotifiesBothGranularities(t *testing.T) {
	settings := &fakeSettings{objects: objects("t1")}
	handler := &fakeHandler{
		settings: settings,
		actions: map[string][]*tool.Action{
			"t1": {tool.NewAction("a", "OK")},
		},
	}
	provider := newFakeProvider("t1")
	listener := &recordListener{}
	task := testTask()

	var logStream strings.Builder
	summary, err := newEngine(handler, provider).RunTask(context.Background(), task, newRecordMonitor(), listener, &logStream)
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.True(t, settings.loaded)

	// Settings-level notification wraps the task-level one.
	require.Equal(t, []any{settings, task}, listener.started)
	require.Equal(t, []any{task, settings}, listener.finished)
	assert.Equal(t, []error{nil, nil}, listener.finishErrs)

	assert.Equal(t, "Tool execution finished\n", logStream.String())
}

func TestEngine_RunTask_ConfigurationError(t *testing.T) {
	settings := &fakeSettings{
		loadErr: &tool.ConfigurationError{Property: "objects", Err: errors.New("property is required")},
	}
	handler := &fakeHandler{settings: settings}
	listener := &recordListener{}

	_, err := newEngine(handler, newFakeProvider()).RunTask(context.Background(), testTask(), newRecordMonitor(), listener, nil)
	require.Error(t, err)
	assert.True(t, tool.IsConfigurationError(err))

	// Configuration failures surface before any execution or notification.
	assert.Empty(t, listener.started)
	assert.Empty(t, listener.finished)
	assert.Empty(t, handler.genCalls)
}
