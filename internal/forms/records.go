package forms

import (
	"context"

	"github.com/gravitrone/repack/cli/internal/api"
	"github.com/gravitrone/repack/cli/internal/records"
)

// RecordsForm is the payload of the three records operations.
type RecordsForm struct {
	RecordingIDs string `form:"recording_ids"`
}

// operation describes one records batch endpoint.
type operation struct {
	endpoint api.Endpoint
	success  successAlert
	empty    successAlert
	apply    func(vm *records.ViewModel, sent []records.ID, result *api.Result)
}

var (
	processOp = operation{
		endpoint: api.ProcessRecords,
		success:  successAlert{title: "Success", text: "Recordings queued for processing."},
		empty:    successAlert{title: "Processing", text: "No recordings selected for processing."},
		apply: func(vm *records.ViewModel, _ []records.ID, result *api.Result) {
			vm.CommitBatch(result.Recordings)
		},
	}
	terminateOp = operation{
		endpoint: api.TerminateRecords,
		success:  successAlert{title: "Success", text: "Selected recordings terminated."},
		empty:    successAlert{title: "Warning", text: "No recordings selected to terminate."},
		apply: func(vm *records.ViewModel, sent []records.ID, result *api.Result) {
			ids := []records.ID(result.RecordingIDs)
			if len(ids) == 0 {
				ids = sent
			}
			vm.CommitBatch(records.StatusesFor(ids, records.StatusCompleted))
		},
	}
	uploadOp = operation{
		endpoint: api.UploadRecords,
		success:  successAlert{title: "Success", text: "Selected recordings queued for upload."},
		empty:    successAlert{title: "Warning", text: "No recordings selected to upload."},
		apply: func(vm *records.ViewModel, _ []records.ID, _ *api.Result) {
			vm.CommitBatch(nil)
		},
	}
)

// RecordsController runs one batch operation over the selected records.
type RecordsController struct {
	*controller
	op operation
	vm *records.ViewModel
}

func newRecordsController(op operation, vm *records.ViewModel, s Submitter, view View, opts []Option) *RecordsController {
	c := newController(op.endpoint, s, view, op.success, opts)
	c.rejectAlert = true
	return &RecordsController{controller: c, op: op, vm: vm}
}

// NewProcessController queues the selected records for processing. Each
// record takes the status the service reports for it.
func NewProcessController(vm *records.ViewModel, s Submitter, view View, opts ...Option) *RecordsController {
	return newRecordsController(processOp, vm, s, view, opts)
}

// NewTerminateController stops the selected records and marks them completed.
func NewTerminateController(vm *records.ViewModel, s Submitter, view View, opts ...Option) *RecordsController {
	return newRecordsController(terminateOp, vm, s, view, opts)
}

// NewUploadController queues the selected records for upload. Statuses are
// left alone; the next refresh shows what the service did.
func NewUploadController(vm *records.ViewModel, s Submitter, view View, opts ...Option) *RecordsController {
	return newRecordsController(uploadOp, vm, s, view, opts)
}

// Submit sends the current selection. With nothing selected it warns and
// sends nothing.
func (c *RecordsController) Submit(ctx context.Context) Outcome {
	if !c.acquire() {
		return OutcomeBusy
	}
	defer c.release()

	ids := c.vm.SelectedIDs()
	if len(ids) == 0 {
		c.view.hideSpinner()
		c.view.alert(c.op.empty.title, c.op.empty.text, SeverityWarning)
		c.logger.WithField("form", c.endpoint.Name).Debug("nothing selected")
		return OutcomeAborted
	}

	c.view.clearFields()
	form := RecordsForm{RecordingIDs: records.JoinIDs(ids)}
	return c.send(ctx, form, func(result *api.Result) {
		c.op.apply(c.vm, ids, result)
	})
}
