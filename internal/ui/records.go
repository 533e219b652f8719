package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/gravitrone/repack/cli/internal/api"
	"github.com/gravitrone/repack/cli/internal/config"
	"github.com/gravitrone/repack/cli/internal/forms"
	"github.com/gravitrone/repack/cli/internal/records"
	"github.com/gravitrone/repack/cli/internal/ui/components"
)

// --- Messages ---

type roomsLoadedMsg struct{ rooms []records.Room }
type recordsLoadedMsg struct {
	roomID int
	items  []records.Record
}

// recordsFailedMsg reports a room listing that could not be loaded.
type recordsFailedMsg struct {
	roomID int
	err    error
}

// --- Records Model ---

// RecordsModel lists the recordings of one room and runs the batch
// operations over the selection.
type RecordsModel struct {
	ctx    context.Context
	client *api.Client
	config *config.Config
	fb     *feedback

	vm        *records.ViewModel
	process   *forms.RecordsController
	terminate *forms.RecordsController
	upload    *forms.RecordsController

	list    *components.List
	roomID  int
	rooms   []records.Room
	picker  *components.List
	picking bool
	loading bool

	confirming bool
	inflight   int
	frame      int

	width  int
	height int
}

// NewRecordsModel builds the records tab. fb receives every controller
// callback and the view model repaints.
func NewRecordsModel(ctx context.Context, client *api.Client, cfg *config.Config, fb *feedback, logger logrus.FieldLogger) RecordsModel {
	vm := records.NewViewModel(fb)
	view := fb.formView(formRecords)
	m := RecordsModel{
		ctx:       ctx,
		client:    client,
		config:    cfg,
		fb:        fb,
		vm:        vm,
		process:   forms.NewProcessController(vm, client, view, forms.WithLogger(logger)),
		terminate: forms.NewTerminateController(vm, client, view, forms.WithLogger(logger)),
		upload:    forms.NewUploadController(vm, client, view, forms.WithLogger(logger)),
		list:      components.NewList(15),
		picker:    components.NewList(10),
	}
	if cfg != nil {
		m.roomID = cfg.RoomID
	}
	return m
}

func (m RecordsModel) Init() tea.Cmd {
	if m.client == nil {
		return nil
	}
	if m.roomID == 0 {
		return m.loadRooms
	}
	return m.loadRecords(m.roomID)
}

func (m RecordsModel) Update(msg tea.Msg) (RecordsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case roomsLoadedMsg:
		m.rooms = msg.rooms
		names := make([]string, len(msg.rooms))
		for i, room := range msg.rooms {
			names[i] = room.Name
		}
		m.picker.SetItems(names)
		if m.roomID == 0 {
			m.picking = true
		}
		return m, nil

	case recordsLoadedMsg:
		m.loading = false
		if msg.roomID != m.roomID {
			return m, nil
		}
		m.vm.Replace(msg.items)
		m.repaint(true)
		return m, nil

	case recordsFailedMsg:
		if msg.roomID == m.roomID {
			m.loading = false
		}
		err := msg.err
		return m, func() tea.Msg { return errMsg{err} }

	case submitDoneMsg:
		if msg.form != formRecords {
			return m, nil
		}
		if m.inflight > 0 {
			m.inflight--
		}
		m.repaint(false)
		return m, nil

	case spinnerTickMsg:
		if msg.form != formRecords {
			return m, nil
		}
		m.frame++
		if m.inflight > 0 || m.fb.isSpinning(formRecords) {
			return m, spinnerTick(formRecords)
		}
		return m, nil

	case tea.KeyMsg:
		if m.confirming {
			switch {
			case isKey(msg, "y"), isEnter(msg):
				m.confirming = false
				return m.submit(m.terminate)
			case isKey(msg, "n"), isBack(msg):
				m.confirming = false
			}
			return m, nil
		}
		if m.picking {
			return m.handlePickerKeys(msg)
		}

		switch {
		case isDown(msg):
			m.list.Down()
		case isUp(msg):
			m.list.Up()
		case isSpace(msg):
			if rec, ok := m.current(); ok {
				m.vm.Toggle(rec.ID)
			}
		case isKey(msg, "b"):
			m.vm.ToggleAll()
		case isBack(msg):
			m.vm.ClearSelection()
		case isKey(msg, "p"):
			return m.submit(m.process)
		case isKey(msg, "u"):
			return m.submit(m.upload)
		case isKey(msg, "t"):
			if m.vm.SelectedCount() == 0 {
				// Let the controller report the empty selection.
				return m.submit(m.terminate)
			}
			m.confirming = true
		case isKey(msg, "r"):
			if m.roomID > 0 {
				m.loading = true
				return m, m.loadRecords(m.roomID)
			}
		case isKey(msg, "o"):
			m.picking = true
			if len(m.rooms) == 0 {
				return m, m.loadRooms
			}
		}
		m.repaint(false)
	}
	return m, nil
}

func (m RecordsModel) handlePickerKeys(msg tea.KeyMsg) (RecordsModel, tea.Cmd) {
	switch {
	case isDown(msg):
		m.picker.Down()
	case isUp(msg):
		m.picker.Up()
	case isBack(msg):
		m.picking = false
	case isEnter(msg):
		idx := m.picker.Selected()
		if idx < 0 || idx >= len(m.rooms) {
			return m, nil
		}
		m.picking = false
		m.roomID = m.rooms[idx].ID
		m.vm.Replace(nil)
		m.loading = true
		return m, tea.Batch(m.loadRecords(m.roomID), m.rememberRoom(m.roomID))
	}
	return m, nil
}

// submit runs one controller off the UI goroutine. The spinner keeps
// ticking until the controller reports back.
func (m RecordsModel) submit(c *forms.RecordsController) (RecordsModel, tea.Cmd) {
	if m.client == nil {
		return m, nil
	}
	m.inflight++
	ctx := m.ctx
	run := func() tea.Msg {
		return submitDoneMsg{form: formRecords, outcome: c.Submit(ctx)}
	}
	return m, tea.Batch(run, spinnerTick(formRecords))
}

// repaint copies the view model into the list. Controllers and key handlers
// both mutate the view model; the list only mirrors it.
func (m *RecordsModel) repaint(force bool) {
	rows, _ := m.fb.takeRepaint()
	if !rows && !force && len(m.list.Items) == m.vm.Len() {
		return
	}
	list := m.vm.Records()
	ids := make([]string, len(list))
	for i, rec := range list {
		ids[i] = rec.ID.String()
	}
	if force {
		m.list.SetItems(ids)
		return
	}
	m.list.Refresh(ids)
}

func (m RecordsModel) current() (records.Record, bool) {
	idx := m.list.Selected()
	if idx < 0 || idx >= len(m.list.Items) {
		return records.Record{}, false
	}
	return m.vm.Record(records.ID(m.list.Items[idx]))
}

// dirty reports whether leaving now would drop a pending choice.
func (m RecordsModel) dirty() bool {
	return m.confirming || m.inflight > 0
}

func (m RecordsModel) View() string {
	if m.picking {
		return m.renderPicker()
	}
	if m.roomID == 0 {
		return components.Indent(components.EmptyStateBox(
			"Recordings",
			"No room selected.",
			[]string{"Press o to choose a room."},
			m.width,
		), 1)
	}
	if m.loading {
		return "  " + MutedStyle.Render("Loading recordings...")
	}
	if m.confirming {
		return components.Indent(components.ConfirmSummaryDialog("Terminate Recordings", m.terminateSummary(), m.width), 1)
	}

	countLine := fmt.Sprintf("room %s · %d recordings", m.roomLabel(), m.vm.Len())
	if count := m.vm.SelectedCount(); count > 0 {
		countLine = fmt.Sprintf("%s · selected: %d", countLine, count)
	}
	countLine = MutedStyle.Render(countLine)
	if m.fb.isSpinning(formRecords) {
		countLine += "  " + AccentStyle.Render(spinnerFrame(m.frame)+" sending")
	}
	if errs := m.renderFieldErrors(); errs != "" {
		countLine += "\n" + errs
	}

	if m.vm.Len() == 0 {
		body := countLine + "\n\n" + MutedStyle.Render("No recordings in this room.")
		return components.Indent(components.TitledBox("Recordings", body, m.width), 1)
	}

	tableWidth := recordsTableWidth(m.width)
	cols := recordColumns(tableWidth)
	visible := m.list.Visible()
	rows := make([][]string, 0, len(visible))
	active := -1
	for i := range visible {
		absIdx := m.list.RelToAbs(i)
		rec, ok := m.vm.Record(records.ID(m.list.Items[absIdx]))
		if !ok {
			continue
		}
		if m.list.IsSelected(absIdx) {
			active = len(rows)
		}
		mark := "[ ]"
		if m.vm.IsSelected(rec.ID) {
			mark = "[X]"
		}
		rows = append(rows, []string{
			mark,
			components.ClampTextWidthEllipsis(rec.ID.String(), cols[1].Width),
			statusStyle(rec.Status).Render(rec.Status.Label()),
			formatCreated(rec.Created),
			formatLength(rec),
		})
	}
	table := components.TableGridWithActiveRow(cols, rows, tableWidth, active)
	// Full ids do not fit a box, so the table is drawn unframed.
	header := SelectedStyle.Render("Recordings") + "  " + countLine
	return components.Indent(header+"\n\n"+table, 1)
}

// renderFieldErrors shows what the service rejected in the last batch.
// recording_ids errors stand alone; any other field is named.
func (m RecordsModel) renderFieldErrors() string {
	var lines []string
	for _, field := range m.fb.invalidFields(formRecords) {
		text, _ := m.fb.fieldError(formRecords, field)
		text = components.SanitizeOneLine(text)
		if text == "" {
			text = "invalid"
		}
		if field != "recording_ids" {
			text = field + ": " + text
		}
		lines = append(lines, ErrorStyle.Render(text))
	}
	return strings.Join(lines, "\n")
}

func (m RecordsModel) renderPicker() string {
	if len(m.rooms) == 0 {
		return "  " + MutedStyle.Render("Loading rooms...")
	}
	lines := ""
	for i, name := range m.picker.Visible() {
		absIdx := m.picker.RelToAbs(i)
		line := "  " + components.SanitizeOneLine(name)
		if m.picker.IsSelected(absIdx) {
			line = SelectedStyle.Render("> " + components.SanitizeOneLine(name))
		}
		lines += line + "\n"
	}
	return components.Indent(components.TitledBox("Choose Room", lines, m.width), 1)
}

func (m RecordsModel) terminateSummary() []components.TableRow {
	ids := m.vm.SelectedIDs()
	rows := []components.TableRow{
		{Label: "Room", Value: m.roomLabel()},
		{Label: "Recordings", Value: strconv.Itoa(len(ids))},
	}
	for i, id := range ids {
		if i == 5 {
			rows = append(rows, components.TableRow{Label: "", Value: fmt.Sprintf("+%d more", len(ids)-5)})
			break
		}
		rows = append(rows, components.TableRow{Label: "", Value: id.String()})
	}
	return rows
}

func (m RecordsModel) roomLabel() string {
	for _, room := range m.rooms {
		if room.ID == m.roomID {
			return components.SanitizeOneLine(room.Name)
		}
	}
	return strconv.Itoa(m.roomID)
}

// --- Loaders ---

func (m RecordsModel) loadRooms() tea.Msg {
	rooms, err := m.client.ListRooms(m.ctx)
	if err != nil {
		return errMsg{err}
	}
	return roomsLoadedMsg{rooms}
}

func (m RecordsModel) loadRecords(roomID int) tea.Cmd {
	return func() tea.Msg {
		items, err := m.client.ListRecords(m.ctx, roomID)
		if err != nil {
			return recordsFailedMsg{roomID: roomID, err: err}
		}
		return recordsLoadedMsg{roomID: roomID, items: items}
	}
}

func (m RecordsModel) rememberRoom(roomID int) tea.Cmd {
	cfg := m.config
	if cfg == nil {
		return nil
	}
	return func() tea.Msg {
		cfg.RoomID = roomID
		if err := cfg.Save(); err != nil {
			return errMsg{errors.Wrap(err, "save config")}
		}
		return nil
	}
}

// --- Rendering helpers ---

func recordsTableWidth(termWidth int) int {
	w := termWidth - 4
	if w > 120 {
		w = 120
	}
	if w < 60 {
		w = 60
	}
	return w
}

func recordColumns(tableWidth int) []components.TableColumn {
	markWidth, statusWidth, createdWidth, lengthWidth := 3, 14, 16, 9
	// Four separators between five columns.
	idWidth := tableWidth - (markWidth + statusWidth + createdWidth + lengthWidth) - 4
	if idWidth < 20 {
		idWidth = 20
	}
	return []components.TableColumn{
		{Header: "", Width: markWidth, Align: lipgloss.Left},
		{Header: "Recording", Width: idWidth, Align: lipgloss.Left, Flex: true},
		{Header: "Status", Width: statusWidth, Align: lipgloss.Left},
		{Header: "Created", Width: createdWidth, Align: lipgloss.Left},
		{Header: "Length", Width: lengthWidth, Align: lipgloss.Right},
	}
}

func statusStyle(s records.Status) lipgloss.Style {
	switch s {
	case records.StatusCompleted, records.StatusUploaded:
		return SuccessStyle
	case records.StatusFailed:
		return ErrorStyle
	case records.StatusWaiting, records.StatusProcessing:
		return WarningStyle
	}
	return NormalStyle
}

func formatCreated(t records.Timestamp) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatLength(rec records.Record) string {
	d := rec.Duration()
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}
