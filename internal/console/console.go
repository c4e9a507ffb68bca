// Copyright (C) 2020 The boone Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package console implements the optional interactive dashboard mentioned
// in spec.md §7 ("interactive front-end pretty-prints the most recent
// error"): a live, terminal-based view of the most recent events, the
// registered handlers, and the Connection Supervisor states.
package console

import (
	"fmt"
	"sync"
	std_time "time"

	tp_runes "github.com/codeactual/homevent/internal/third_party/stackexchange/runes"

	"github.com/gdamore/tcell"
	"github.com/pkg/errors"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	cage_zap "github.com/codeactual/homevent/internal/cage/log/zap"
)

const (
	// EventListMaxLen is the static row length of the recent-events list.
	EventListMaxLen = 9

	// DetailListMaxLen is the static row length of the handler/connection
	// detail list.
	DetailListMaxLen = 2

	// DetailHandlerPos positions the registered-handler list as the first
	// status-detail list item.
	DetailHandlerPos = 0

	// DetailConnPos positions the connection-state list as the second
	// status-detail list item.
	DetailConnPos = 1

	// ListItemWidgetPad is the all-sides padding of every ListItemWidget.
	ListItemWidgetPad = 1

	// BodyBoxTopPad selects top-padding of ListItemWidget body areas.
	BodyBoxTopPad = 1
)

// ListItemWidget is used to represent the event list and the detail lists,
// grounded on internal/boone/ui.go's widget of the same name and shape.
type ListItemWidget struct {
	Container *tview.Flex
	Header    *tview.TextView
	Body      *tview.TextView
}

// NewListItemWidget returns a widget initialized with its container, header,
// and body areas.
func NewListItemWidget() *ListItemWidget {
	w := &ListItemWidget{}
	w.Container = tview.NewFlex()
	w.Container.SetDirection(tview.FlexRow)
	w.Container.SetBorderPadding(ListItemWidgetPad, ListItemWidgetPad, ListItemWidgetPad, ListItemWidgetPad)

	w.Header = tview.NewTextView()
	w.Header.SetWrap(true)
	w.Header.SetDynamicColors(true)

	w.Body = tview.NewTextView()
	w.Body.SetWrap(true)
	w.Body.SetDynamicColors(true)
	w.Body.SetBorderPadding(BodyBoxTopPad, 0, 0, 0)

	w.Container.AddItem(w.Header, 1, 0, false)
	w.Container.AddItem(w.Body, 0, 1, false)

	return w
}

// EventRow is one line the dashboard displays: a dispatched event, plus
// whether it represents an ExceptionEvent (rendered in a distinct color the
// way the original "pretty-prints the most recent error").
type EventRow struct {
	At      std_time.Time
	Tokens  []string
	IsError bool
}

// HandlerRow is one registered-handler summary line for the detail view.
type HandlerRow struct {
	ID   uint64
	Name string
	Prio int
	Doc  string
}

// ConnRow is one Connection Supervisor summary line for the detail view.
type ConnRow struct {
	Name  []string
	State string
}

// Dashboard is the live terminal view. It owns no business logic: callers
// push EventRow/HandlerRow/ConnRow updates in; Dashboard only renders.
type Dashboard struct {
	log *zap.Logger
	app *tview.Application

	eventListWidget     *tview.Flex
	eventListItemWidget [EventListMaxLen]*ListItemWidget

	detailListWidget     *tview.Flex
	detailListItemWidget [DetailListMaxLen]*ListItemWidget

	exitCh chan struct{}

	// mu guards events/handlers/conns: PushEvent/SetHandlers/SetConns may
	// be called from any goroutine dispatching an event (the Connection
	// Supervisor for each configured endpoint runs concurrently), while
	// render reads them from the tview application goroutine.
	mu       sync.Mutex
	events   []EventRow
	handlers []HandlerRow
	conns    []ConnRow

	activeWidget tview.Primitive
}

// NewDashboard returns a Dashboard ready for Init.
func NewDashboard(log *zap.Logger) *Dashboard {
	return &Dashboard{
		log:    log,
		exitCh: make(chan struct{}, 1),
	}
}

// ExitCh reports when the dashboard was closed via keyboard shortcut.
func (d *Dashboard) ExitCh() <-chan struct{} {
	return d.exitCh
}

// Init builds every widget and focuses the event list.
func (d *Dashboard) Init() {
	d.eventListWidget = tview.NewFlex()
	d.eventListWidget.SetDirection(tview.FlexRow)
	for pos := 0; pos < EventListMaxLen; pos++ {
		d.eventListItemWidget[pos] = NewListItemWidget()
		d.eventListWidget.AddItem(d.eventListItemWidget[pos].Container, 0, 1, false)
	}
	d.eventListWidget.SetFullScreen(true)

	d.detailListWidget = tview.NewFlex()
	d.detailListWidget.SetDirection(tview.FlexRow)
	for pos := 0; pos < DetailListMaxLen; pos++ {
		d.detailListItemWidget[pos] = NewListItemWidget()
		d.detailListWidget.AddItem(d.detailListItemWidget[pos].Container, 0, 1, false)
	}
	d.detailListWidget.SetFullScreen(true)

	d.app = tview.NewApplication().SetInputCapture(d.InputCapture)
	d.focusWidget(d.eventListWidget)
}

// Start runs the dashboard's event loop; it blocks until Stop is called.
// The 'q'/Ctrl-C shortcut does not stop the loop itself; it only signals
// ExitCh.
func (d *Dashboard) Start() error {
	defer d.app.Stop()
	if err := d.app.Run(); err != nil {
		return errors.Wrap(err, "failed to run dashboard")
	}
	return nil
}

// Stop ends rendering and keyboard capture; it unblocks Start.
func (d *Dashboard) Stop() {
	d.app.Stop()
}

// PushEvent records a new event row (prepended, most recent first) and
// re-renders the list.
func (d *Dashboard) PushEvent(row EventRow) {
	d.mu.Lock()
	d.events = append([]EventRow{row}, d.events...)
	if len(d.events) > EventListMaxLen {
		d.events = d.events[:EventListMaxLen]
	}
	d.mu.Unlock()

	d.log.Debug("dashboard event", cage_zap.Tag("console"), zap.Strings("tokens", row.Tokens))
	d.render()
}

// SetHandlers replaces the handler detail rows.
func (d *Dashboard) SetHandlers(rows []HandlerRow) {
	d.mu.Lock()
	d.handlers = rows
	d.mu.Unlock()
	d.render()
}

// SetConns replaces the connection detail rows.
func (d *Dashboard) SetConns(rows []ConnRow) {
	d.mu.Lock()
	d.conns = rows
	d.mu.Unlock()
	d.render()
}

func (d *Dashboard) render() {
	if d.app == nil {
		return
	}

	d.mu.Lock()
	events := append([]EventRow{}, d.events...)
	handlers := append([]HandlerRow{}, d.handlers...)
	conns := append([]ConnRow{}, d.conns...)
	d.mu.Unlock()

	d.app.QueueUpdateDraw(func() {
		for pos := 0; pos < EventListMaxLen; pos++ {
			if pos >= len(events) {
				d.eventListItemWidget[pos].Header.SetText("")
				d.eventListItemWidget[pos].Body.SetText("")
				continue
			}
			row := events[pos]
			color := "white"
			if row.IsError {
				color = "red"
			}
			d.eventListItemWidget[pos].Header.SetText(fmt.Sprintf(
				"[darkgray]%d) [%s]%s", pos+1, color, row.At.Format(std_time.Kitchen),
			))
			d.eventListItemWidget[pos].Body.SetText(fmt.Sprint(row.Tokens))
		}

		var handlerBody string
		for _, h := range handlers {
			handlerBody += fmt.Sprintf("id=%d prio=%d name=%q doc=%q\n", h.ID, h.Prio, h.Name, h.Doc)
		}
		d.detailListItemWidget[DetailHandlerPos].Header.SetText("[darkgray]1) [green]handlers")
		d.detailListItemWidget[DetailHandlerPos].Body.SetText(handlerBody)

		var connBody string
		for _, c := range conns {
			connBody += fmt.Sprintf("%v: %s\n", c.Name, c.State)
		}
		d.detailListItemWidget[DetailConnPos].Header.SetText("[darkgray]2) [green]connections")
		d.detailListItemWidget[DetailConnPos].Body.SetText(connBody)
	})
}

// InputCapture handles keyboard shortcuts: 'q'/Ctrl-C exits from anywhere,
// backspace returns from the detail view to the event list, and number keys
// switch between the two views.
func (d *Dashboard) InputCapture(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() == tcell.KeyCtrlC || event.Rune() == 'q' {
		d.exitCh <- struct{}{}
		return &tcell.EventKey{}
	}

	if event.Key() == tcell.KeyBackspace2 {
		d.focusWidget(d.eventListWidget)
		return event
	}

	if d.activeWidget == d.eventListWidget {
		if pos, err := tp_runes.ToInt(event.Rune()); err == nil && pos > 0 && pos-1 < DetailListMaxLen {
			d.focusWidget(d.detailListWidget)
		}
	}

	return event
}

func (d *Dashboard) focusWidget(w tview.Primitive) {
	d.app.SetRoot(w, true)
	d.activeWidget = w
}
