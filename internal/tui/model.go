// Package tui is the interactive terminal view of the expense list.
//
// It renders client.State and turns key presses into the client state
// handlers: e edits the selected row, d deletes it, enter in the form
// submits in whichever mode the state is in.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"expenses/internal/client"
	"expenses/internal/core"
)

type focus int

const (
	focusTable focus = iota
	focusName
	focusAmount
	focusCategory
)

const fieldCount = 3

// stateMsg carries the state produced by a handler that called the API.
type stateMsg struct {
	state client.State
}

type Model struct {
	ctx    context.Context
	api    client.API
	state  client.State
	table  table.Model
	inputs [fieldCount]textinput.Model
	focus  focus
	busy   bool
	keys   keyMap
	help   help.Model
}

// New returns the initial model in create mode with an empty cache.
// Init loads the list.
func New(ctx context.Context, api client.API) Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 5},
			{Title: "Name", Width: 24},
			{Title: "Amount", Width: 10},
			{Title: "Category", Width: 16},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	var inputs [fieldCount]textinput.Model
	for i, placeholder := range []string{"Name", "Amount", "Category (" + strings.Join(core.SuggestedCategories, ", ") + ")"} {
		in := textinput.New()
		in.Placeholder = placeholder
		in.CharLimit = 120
		in.Width = 40
		inputs[i] = in
	}

	m := Model{
		ctx:    ctx,
		api:    api,
		table:  t,
		inputs: inputs,
		keys:   defaultKeyMap(),
		help:   help.New(),
	}
	m.setState(client.NewState())
	return m
}

func (m Model) Init() tea.Cmd {
	return m.run(func(s client.State) client.State {
		return client.Refresh(m.ctx, m.api, s)
	})
}

// State returns the current application state.
func (m Model) State() client.State {
	return m.state
}

// run executes f off the update loop and delivers its result as a stateMsg.
func (m Model) run(f func(client.State) client.State) tea.Cmd {
	s := m.state
	return func() tea.Msg {
		return stateMsg{state: f(s)}
	}
}

func (m *Model) setState(s client.State) {
	m.state = s
	m.table.SetRows(rows(s.Expenses))
	values := [fieldCount]string{s.Form.Name, s.Form.Amount, s.Form.Category}
	for i := range m.inputs {
		m.inputs[i].SetValue(values[i])
	}
}

func rows(expenses []core.Expense) []table.Row {
	out := make([]table.Row, len(expenses))
	for i, e := range expenses {
		out[i] = table.Row{strconv.FormatInt(e.ID, 10), e.Name, e.Amount.String(), e.Category}
	}
	return out
}

func (m Model) formInput() core.ExpenseInput {
	return core.ExpenseInput{
		Name:     m.inputs[0].Value(),
		Amount:   m.inputs[1].Value(),
		Category: m.inputs[2].Value(),
	}
}

func (m Model) selected() (core.Expense, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.state.Expenses) {
		return core.Expense{}, false
	}
	return m.state.Expenses[i], true
}

func (m *Model) setFocus(f focus) tea.Cmd {
	m.focus = f
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	if f == focusTable {
		m.table.Focus()
		return nil
	}
	m.table.Blur()
	return m.inputs[int(f)-1].Focus()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case stateMsg:
		m.busy = false
		m.setState(msg.state)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		// The alert blocks everything until a key is pressed.
		if m.state.Alert != "" {
			m.state = m.state.DismissAlert()
			return m, nil
		}
		if m.busy {
			return m, nil
		}
		if m.focus == focusTable {
			return m.updateTable(msg)
		}
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Edit):
		if e, ok := m.selected(); ok {
			m.setState(client.Edit(m.state, e))
			return m, m.setFocus(focusName)
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		e, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.busy = true
		return m, m.run(func(s client.State) client.State {
			return client.Delete(m.ctx, m.api, s, e.ID)
		})

	case key.Matches(msg, m.keys.Refresh):
		m.busy = true
		return m, m.run(func(s client.State) client.State {
			return client.Refresh(m.ctx, m.api, s)
		})

	case key.Matches(msg, m.keys.Form):
		return m, m.setFocus(focusName)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.state = m.state.WithForm(m.formInput())
		return m, m.setFocus(focusTable)

	case key.Matches(msg, m.keys.Next):
		return m, m.setFocus(focus(int(m.focus)%fieldCount + 1))

	case key.Matches(msg, m.keys.Prev):
		return m, m.setFocus(focus((int(m.focus)+fieldCount-2)%fieldCount + 1))

	case key.Matches(msg, m.keys.Submit):
		m.state = m.state.WithForm(m.formInput())
		m.busy = true
		return m, m.run(func(s client.State) client.State {
			return client.Submit(m.ctx, m.api, s)
		})
	}

	i := int(m.focus) - 1
	var cmd tea.Cmd
	m.inputs[i], cmd = m.inputs[i].Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Expenses"))
	b.WriteString("  ")
	if m.state.Editing != nil {
		b.WriteString(modeStyle.Render(fmt.Sprintf("editing #%d", *m.state.Editing)))
	} else {
		b.WriteString(modeStyle.Render("adding"))
	}
	b.WriteString("\n\n")

	b.WriteString(tableBorder.Render(m.table.View()))
	b.WriteString("\n\n")

	for i, label := range []string{"Name", "Amount", "Category"} {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}

	if m.busy {
		b.WriteString(modeStyle.Render("working..."))
		b.WriteString("\n")
	}
	if m.state.Error != "" {
		b.WriteString(errorStyle.Render(m.state.Error))
		b.WriteString("\n")
	}
	if m.state.Alert != "" {
		b.WriteString(alertStyle.Render(m.state.Alert + "\n(press any key)"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.focus == focusTable {
		b.WriteString(m.help.View(tableHelp{m.keys}))
	} else {
		b.WriteString(m.help.View(formHelp{m.keys}))
	}
	b.WriteString("\n")
	return b.String()
}

// Run starts the full-screen program and blocks until the user quits.
func Run(ctx context.Context, api client.API) error {
	p := tea.NewProgram(New(ctx, api), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
