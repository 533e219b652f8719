package forms

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitrone/repack/cli/internal/api"
	"github.com/gravitrone/repack/cli/internal/records"
)

type alert struct {
	Title    string
	Text     string
	Severity Severity
}

// recorder implements every presenter interface and keeps what it was told.
type recorder struct {
	mu        sync.Mutex
	alerts    []alert
	invalid   map[string]bool
	feedback  map[string]string
	cleared   int
	spinner   bool
	spinOns   int
	navigated []string
	resets    int
}

func newRecorder() *recorder {
	return &recorder{invalid: map[string]bool{}, feedback: map[string]string{}}
}

func (r *recorder) ShowAlert(title, text string, severity Severity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alert{title, text, severity})
}

func (r *recorder) ClearFieldErrors() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleared++
	r.invalid = map[string]bool{}
	r.feedback = map[string]string{}
}

func (r *recorder) MarkInvalid(field string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalid[field] = true
}

func (r *recorder) SetFeedback(field, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feedback[field] = text
}

func (r *recorder) ShowSpinner() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spinner = true
	r.spinOns++
}

func (r *recorder) HideSpinner() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spinner = false
}

func (r *recorder) Navigate(target string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.navigated = append(r.navigated, target)
}

func (r *recorder) ClearPasswords() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets++
}

func (r *recorder) view() View {
	return View{Alerts: r, Fields: r, Spinner: r, Navigator: r, Passwords: r}
}

func (r *recorder) invalidFields() []string {
	var out []string
	for _, name := range []string{"current_password", "password", "re_password", "email", "first_name", "two_factor_auth"} {
		if r.invalid[name] {
			out = append(out, name)
		}
	}
	return out
}

type call struct {
	Endpoint api.Endpoint
	Payload  any
}

// stubSubmitter answers every call with result or err.
type stubSubmitter struct {
	mu     sync.Mutex
	calls  []call
	result *api.Result
	err    error
	block  chan struct{}
}

func (s *stubSubmitter) Submit(ctx context.Context, ep api.Endpoint, payload any) (*api.Result, error) {
	s.mu.Lock()
	s.calls = append(s.calls, call{ep, payload})
	s.mu.Unlock()
	if s.block != nil {
		<-s.block
	}
	return s.result, s.err
}

func (s *stubSubmitter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type countingRenderer struct {
	renders int
	counts  int
}

func (c *countingRenderer) RenderRecords()       { c.renders++ }
func (c *countingRenderer) UpdateSelectedCount() { c.counts++ }

func sampleViewModel(t *testing.T) (*records.ViewModel, *countingRenderer) {
	t.Helper()
	r := &countingRenderer{}
	vm := records.NewViewModel(r)
	vm.Replace([]records.Record{
		{ID: "3", Status: records.StatusProcessing},
		{ID: "5", Status: records.StatusNotProcessed},
		{ID: "7", Status: records.StatusProcessing},
		{ID: "9", Status: records.StatusFailed},
	})
	*r = countingRenderer{}
	return vm, r
}

func statuses(vm *records.ViewModel) map[records.ID]records.Status {
	out := map[records.ID]records.Status{}
	for _, rec := range vm.Records() {
		out[rec.ID] = rec.Status
	}
	return out
}

func TestRejectedSubmissionMarksEveryField(t *testing.T) {
	rec := newRecorder()
	sub := &stubSubmitter{result: &api.Result{
		Success: false,
		Fields: api.FieldErrors{
			"email":      {"Enter a valid email address."},
			"first_name": {"Too long.", "<b>Required</b>."},
		},
	}}
	ctrl := NewProfileController(sub, rec.view())

	outcome := ctrl.Submit(context.Background(), ProfileForm{Email: "bad"})

	assert.Equal(t, OutcomeRejected, outcome)
	assert.Equal(t, []string{"email", "first_name"}, rec.invalidFields())
	assert.Equal(t, "Enter a valid email address.", rec.feedback["email"])
	assert.Equal(t, "Too long.\nRequired.", rec.feedback["first_name"])
	assert.Empty(t, rec.alerts)
	assert.Equal(t, 1, rec.cleared)
}

func TestFormLevelErrorsBecomeAlert(t *testing.T) {
	rec := newRecorder()
	sub := &stubSubmitter{result: &api.Result{Fields: api.FieldErrors{"__all__": {"Try again."}}}}
	ctrl := NewSecurityController(sub, rec.view())

	assert.Equal(t, OutcomeRejected, ctrl.Submit(context.Background(), SecurityForm{TwoFactorAuth: true}))
	require.Len(t, rec.alerts, 1)
	assert.Equal(t, alert{"Security", "Try again.", SeverityError}, rec.alerts[0])
	assert.Empty(t, rec.invalidFields())
}

func TestPasswordEqualToCurrentIsRejectedLocally(t *testing.T) {
	rec := newRecorder()
	sub := &stubSubmitter{result: &api.Result{Success: true}}
	ctrl := NewPasswordController(sub, rec.view())

	outcome := ctrl.Submit(context.Background(), PasswordForm{CurrentPassword: "same", Password: "same", RePassword: "other"})

	assert.Equal(t, OutcomeInvalid, outcome)
	assert.Zero(t, sub.count())
	assert.Equal(t, []string{"current_password", "password"}, rec.invalidFields())
	assert.Equal(t, "passwords must not be equal", rec.feedback["current_password"])
	assert.Equal(t, "passwords must not be equal", rec.feedback["password"])
	assert.NotContains(t, rec.feedback, "re_password")
}

func TestPasswordRepeatMismatchIsRejectedLocally(t *testing.T) {
	rec := newRecorder()
	sub := &stubSubmitter{result: &api.Result{Success: true}}
	ctrl := NewPasswordController(sub, rec.view())

	outcome := ctrl.Submit(context.Background(), PasswordForm{CurrentPassword: "old", Password: "new-one", RePassword: "new-two"})

	assert.Equal(t, OutcomeInvalid, outcome)
	assert.Zero(t, sub.count())
	assert.Equal(t, []string{"password", "re_password"}, rec.invalidFields())
	assert.Equal(t, "passwords do not match", rec.feedback["re_password"])
}

func TestPasswordSuccessClearsPasswords(t *testing.T) {
	rec := newRecorder()
	sub := &stubSubmitter{result: &api.Result{Success: true}}
	ctrl := NewPasswordController(sub, rec.view())

	outcome := ctrl.Submit(context.Background(), PasswordForm{CurrentPassword: "old", Password: "new", RePassword: "new"})

	assert.Equal(t, OutcomeSucceeded, outcome)
	require.Equal(t, 1, sub.count())
	assert.Equal(t, api.ChangePassword, sub.calls[0].Endpoint)
	assert.Equal(t, 1, rec.resets)
	assert.Equal(t, []alert{{"Change password", "Password changed successfully.", SeveritySuccess}}, rec.alerts)
}

func TestProfileRedirectNavigates(t *testing.T) {
	rec := newRecorder()
	sub := &stubSubmitter{result: &api.Result{Success: true, Redirect: "/login/"}}
	ctrl := NewProfileController(sub, rec.view())

	assert.Equal(t, OutcomeRedirected, ctrl.Submit(context.Background(), ProfileForm{Email: "a@b.c"}))
	assert.Equal(t, []string{"/login/"}, rec.navigated)
	assert.Empty(t, rec.alerts)
}

func TestSecurityIgnoresRedirect(t *testing.T) {
	rec := newRecorder()
	sub := &stubSubmitter{result: &api.Result{Success: true, Redirect: "/elsewhere/"}}
	ctrl := NewSecurityController(sub, rec.view())

	assert.Equal(t, OutcomeSucceeded, ctrl.Submit(context.Background(), SecurityForm{}))
	assert.Empty(t, rec.navigated)
}

func TestRecordsEmptySelectionWarnsWithoutRequest(t *testing.T) {
	for name, build := range map[string]func(*records.ViewModel, Submitter, View, ...Option) *RecordsController{
		"process":   NewProcessController,
		"terminate": NewTerminateController,
		"upload":    NewUploadController,
	} {
		t.Run(name, func(t *testing.T) {
			vm, _ := sampleViewModel(t)
			rec := newRecorder()
			sub := &stubSubmitter{result: &api.Result{Success: true}}

			outcome := build(vm, sub, rec.view()).Submit(context.Background())

			assert.Equal(t, OutcomeAborted, outcome)
			assert.Zero(t, sub.count())
			require.Len(t, rec.alerts, 1)
			assert.Equal(t, SeverityWarning, rec.alerts[0].Severity)
			assert.False(t, rec.spinner)
		})
	}
}

func TestTerminateMarksReturnedIDsCompleted(t *testing.T) {
	vm, renderer := sampleViewModel(t)
	vm.Select("3", "7")
	*renderer = countingRenderer{}
	rec := newRecorder()
	sub := &stubSubmitter{result: &api.Result{Success: true, RecordingIDs: api.IDList{"3", "7"}}}

	outcome := NewTerminateController(vm, sub, rec.view()).Submit(context.Background())

	assert.Equal(t, OutcomeSucceeded, outcome)
	require.Equal(t, 1, sub.count())
	assert.Equal(t, RecordsForm{RecordingIDs: "3,7"}, sub.calls[0].Payload)
	assert.Equal(t, map[records.ID]records.Status{
		"3": records.StatusCompleted,
		"5": records.StatusNotProcessed,
		"7": records.StatusCompleted,
		"9": records.StatusFailed,
	}, statuses(vm))
	assert.Zero(t, vm.SelectedCount())
	assert.Equal(t, 1, renderer.renders)
	assert.Equal(t, 1, renderer.counts)
	assert.Equal(t, SeveritySuccess, rec.alerts[len(rec.alerts)-1].Severity)
}

func TestProcessAppliesPerRecordStatuses(t *testing.T) {
	vm, renderer := sampleViewModel(t)
	vm.Select("5")
	*renderer = countingRenderer{}
	rec := newRecorder()
	sub := &stubSubmitter{result: &api.Result{
		Success:    true,
		Recordings: []records.StatusUpdate{{RecordID: "5", Status: records.StatusWaiting}},
	}}

	outcome := NewProcessController(vm, sub, rec.view()).Submit(context.Background())

	assert.Equal(t, OutcomeSucceeded, outcome)
	got := statuses(vm)
	assert.Equal(t, records.StatusWaiting, got["5"])
	assert.Equal(t, records.StatusProcessing, got["3"])
	assert.Zero(t, vm.SelectedCount())
	assert.Equal(t, 1, renderer.renders)
}

func TestUploadClearsSelectionOnly(t *testing.T) {
	vm, renderer := sampleViewModel(t)
	vm.Select("3", "9")
	before := statuses(vm)
	*renderer = countingRenderer{}
	rec := newRecorder()
	sub := &stubSubmitter{result: &api.Result{Success: true, RecordingIDs: api.IDList{"3", "9"}}}

	outcome := NewUploadController(vm, sub, rec.view()).Submit(context.Background())

	assert.Equal(t, OutcomeSucceeded, outcome)
	assert.Equal(t, before, statuses(vm))
	assert.Zero(t, vm.SelectedCount())
	assert.Equal(t, 1, renderer.renders)
	assert.Equal(t, 1, renderer.counts)
}

func TestRecordsRejectionShowsServerMessage(t *testing.T) {
	vm, _ := sampleViewModel(t)
	vm.Select("3")
	rec := newRecorder()
	sub := &stubSubmitter{result: &api.Result{
		Success: false,
		Message: &api.Message{Title: "Processing", Text: "Already <i>queued</i>.", Type: "warning"},
	}}

	outcome := NewProcessController(vm, sub, rec.view()).Submit(context.Background())

	assert.Equal(t, OutcomeRejected, outcome)
	assert.Equal(t, []alert{{"Processing", "Already queued.", SeverityWarning}}, rec.alerts)
	assert.Equal(t, 1, vm.SelectedCount())
	assert.False(t, rec.spinner)
}

func TestTransportFailureKeepsState(t *testing.T) {
	vm, renderer := sampleViewModel(t)
	vm.Select("3", "7")
	before := statuses(vm)
	*renderer = countingRenderer{}
	rec := newRecorder()
	sub := &stubSubmitter{err: &api.TransportError{Method: http.MethodPost, Path: "/api/records/terminate/", Err: errors.New("connection refused")}}

	outcome := NewTerminateController(vm, sub, rec.view()).Submit(context.Background())

	assert.Equal(t, OutcomeFailed, outcome)
	assert.Equal(t, 1, rec.spinOns)
	assert.False(t, rec.spinner)
	assert.Equal(t, []alert{{"Error", "An error occurred, please try again later.", SeverityError}}, rec.alerts)
	assert.Equal(t, before, statuses(vm))
	assert.Equal(t, []records.ID{"3", "7"}, vm.SelectedIDs())
	assert.Zero(t, renderer.renders)
	assert.Empty(t, rec.invalidFields())
}

func TestSecondSubmissionWhileInFlightIsBusy(t *testing.T) {
	vm, _ := sampleViewModel(t)
	vm.Select("3")
	rec := newRecorder()
	sub := &stubSubmitter{result: &api.Result{Success: true}, block: make(chan struct{})}
	ctrl := NewUploadController(vm, sub, rec.view())

	done := make(chan Outcome)
	go func() { done <- ctrl.Submit(context.Background()) }()
	require.Eventually(t, func() bool { return sub.count() == 1 }, time.Second, time.Millisecond)

	assert.True(t, ctrl.Busy())
	assert.Equal(t, OutcomeBusy, ctrl.Submit(context.Background()))

	close(sub.block)
	assert.Equal(t, OutcomeSucceeded, <-done)
	assert.False(t, ctrl.Busy())
	assert.Equal(t, 1, sub.count())
}

func TestControllerAgainstService(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/api/records/process/", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "5,9", r.PostForm.Get("recording_ids"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"recordings":[{"record_id":5,"status":2},{"record_id":"9","status":3}]}`))
	}).Methods(http.MethodPost)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	client, err := api.NewClient(srv.URL, api.WithSession("s", "c"))
	require.NoError(t, err)

	vm, _ := sampleViewModel(t)
	vm.Select("9", "5")
	rec := newRecorder()

	outcome := NewProcessController(vm, client, rec.view()).Submit(context.Background())

	require.Equal(t, OutcomeSucceeded, outcome)
	got := statuses(vm)
	assert.Equal(t, records.StatusWaiting, got["5"])
	assert.Equal(t, records.StatusProcessing, got["9"])
}

func TestValidateProfile(t *testing.T) {
	assert.NoError(t, ValidateProfile(ProfileForm{Email: "op@example.com"}))
	assert.Error(t, ValidateProfile(ProfileForm{Email: "not-an-email"}))
	assert.Error(t, ValidateProfile(ProfileForm{}))
}

func TestParseSeverityAndClean(t *testing.T) {
	assert.Equal(t, SeverityWarning, ParseSeverity(" Warning "))
	assert.Equal(t, SeverityInfo, ParseSeverity("question"))
	assert.Equal(t, "a & b", Clean("<p>a &amp; b</p>"))
	assert.Equal(t, "one\ntwo", JoinMessages([]string{"one", " ", "<br/>two"}))
	assert.Equal(t, "succeeded", OutcomeSucceeded.String())
	assert.True(t, OutcomeRedirected.OK())
	assert.False(t, OutcomeBusy.OK())
}
