package forms

import (
	"context"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/gravitrone/repack/cli/internal/api"
	"github.com/gravitrone/repack/cli/internal/logging"
)

// Outcome reports how a submission ended.
type Outcome int

const (
	// OutcomeAborted means a local guard stopped the submission, e.g. an
	// empty selection.
	OutcomeAborted Outcome = iota
	// OutcomeBusy means an earlier submission of the same form is in flight.
	OutcomeBusy
	// OutcomeInvalid means local validation marked fields invalid.
	OutcomeInvalid
	// OutcomeRejected means the service answered success false.
	OutcomeRejected
	OutcomeSucceeded
	OutcomeRedirected
	// OutcomeFailed means the request never produced a result.
	OutcomeFailed
)

var outcomeNames = map[Outcome]string{
	OutcomeAborted:    "aborted",
	OutcomeBusy:       "busy",
	OutcomeInvalid:    "invalid",
	OutcomeRejected:   "rejected",
	OutcomeSucceeded:  "succeeded",
	OutcomeRedirected: "redirected",
	OutcomeFailed:     "failed",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// OK reports whether the service accepted the submission.
func (o Outcome) OK() bool {
	return o == OutcomeSucceeded || o == OutcomeRedirected
}

const (
	failureTitle = "Error"
	failureText  = "An error occurred, please try again later."
)

// Submitter sends one form to the service.
type Submitter interface {
	Submit(ctx context.Context, ep api.Endpoint, payload any) (*api.Result, error)
}

// Option customises a controller.
type Option func(*controller)

// WithLogger sets the logger failures are written to.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// successAlert is the fixed alert a form shows when the service accepts it.
type successAlert struct {
	title string
	text  string
}

// controller is the submission flow shared by every form.
type controller struct {
	endpoint  api.Endpoint
	submitter Submitter
	view      View
	logger    logrus.FieldLogger
	success   successAlert
	// rejectAlert shows the server's message when it refuses a submission.
	rejectAlert bool
	// follow enables redirects on success.
	follow bool

	busy atomic.Bool
}

func newController(ep api.Endpoint, s Submitter, view View, success successAlert, opts []Option) *controller {
	c := &controller{
		endpoint:  ep,
		submitter: s,
		view:      view,
		logger:    logging.Discard(),
		success:   success,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Busy reports whether a submission is in flight.
func (c *controller) Busy() bool {
	return c.busy.Load()
}

// Endpoint returns the form's target.
func (c *controller) Endpoint() api.Endpoint {
	return c.endpoint
}

func (c *controller) acquire() bool {
	return c.busy.CompareAndSwap(false, true)
}

func (c *controller) release() {
	c.busy.Store(false)
}

// send issues the request and dispatches the result. onSuccess runs before
// the success alert. The caller must hold the busy flag.
func (c *controller) send(ctx context.Context, payload any, onSuccess func(*api.Result)) Outcome {
	c.view.showSpinner()
	result, err := c.submitter.Submit(ctx, c.endpoint, payload)
	c.view.hideSpinner()

	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"form":       c.endpoint.Name,
			"endpoint":   c.endpoint.Path,
			"request_id": api.RequestIDOf(err),
		}).WithError(err).Error("form submission failed")
		c.view.alert(failureTitle, failureText, SeverityError)
		return OutcomeFailed
	}

	if !result.Success {
		c.reject(result)
		return OutcomeRejected
	}

	if c.follow && result.Redirect != "" && c.view.Navigator != nil {
		c.view.Navigator.Navigate(result.Redirect)
		return OutcomeRedirected
	}

	if onSuccess != nil {
		onSuccess(result)
	}
	c.view.alert(c.success.title, c.success.text, SeveritySuccess)
	return OutcomeSucceeded
}

func (c *controller) reject(result *api.Result) {
	fields, general := result.Fields.Split()
	for _, name := range fields.Names() {
		c.view.fieldError(name, JoinMessages(fields[name]))
	}
	if len(general) > 0 {
		c.view.alert(formTitle(c.endpoint.Name), JoinMessages(general), SeverityError)
	}
	if c.rejectAlert && result.Message != nil {
		c.view.alert(Clean(result.Message.Title), Clean(result.Message.Text), ParseSeverity(result.Message.Type))
	}
	c.logger.WithFields(logrus.Fields{
		"form":       c.endpoint.Name,
		"request_id": result.RequestID,
		"fields":     len(fields),
	}).Debug("form rejected")
}

func formTitle(name string) string {
	switch name {
	case api.ProfileInfo.Name:
		return profileSuccess.title
	case api.ChangePassword.Name:
		return passwordSuccess.title
	case api.Security.Name:
		return securitySuccess.title
	}
	if name == "" {
		return failureTitle
	}
	return "Recordings"
}
