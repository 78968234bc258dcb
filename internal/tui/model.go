// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/apex/log"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/staranto/levctl/internal/asset"
	"github.com/staranto/levctl/internal/binding"
	"github.com/staranto/levctl/internal/listing"
)

// chrome is the number of screen lines that are not row slots.
const chrome = 4

// SlotsFor returns how many row slots fit a terminal height lines tall.
func SlotsFor(height int) int {
	if height-chrome < 1 {
		return 1
	}
	return height - chrome
}

// Requester binds screen slots to image keys. *binding.Client satisfies it.
type Requester interface {
	Request(rowID int, key string) error
	Cancel(rowID int)
}

// LoadFunc runs one page load and returns where it settled.
type LoadFunc func(context.Context) listing.Snapshot

// ImageStatus is what a slot knows about its image.
type ImageStatus int

const (
	ImageNone ImageStatus = iota
	ImageLoading
	ImageReady
	ImageFailed
)

// ImageState is the image half of one slot.
type ImageState struct {
	Key    string
	Status ImageStatus
	Info   asset.ImageInfo
	Err    error
}

// SnapshotMsg carries a finished page load.
type SnapshotMsg listing.Snapshot

// AssetMsg carries an image delivered to a slot.
type AssetMsg binding.Delivery

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Reload   key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	PageUp:   key.NewBinding(key.WithKeys("pgup", "b"), key.WithHelp("pgup", "page up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown", " ", "f"), key.WithHelp("pgdn", "page down")),
	Top:      key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
	Bottom:   key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
	Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	readyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	helpSeparator = dimStyle.Render(" • ")
)

// Model is the Bubble Tea model for the browse screen. A fixed number of
// slots show a window onto the rows; scrolling moves rows through the slots
// the way a recycled list view does, and each move rebinds the slot's image.
type Model struct {
	ctx  context.Context
	load LoadFunc
	req  Requester

	state   listing.State
	rows    []listing.Row
	message string

	slots  int
	offset int
	cursor int
	images map[int]ImageState

	spinner spinner.Model
	quit    bool
}

// New returns a Model showing at most slots rows at a time.
func New(ctx context.Context, load LoadFunc, req Requester, slots int) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	if slots < 1 {
		slots = 1
	}

	s := spinner.New()
	s.Spinner = spinner.Dot

	return Model{
		ctx:     ctx,
		load:    load,
		req:     req,
		state:   listing.Loading,
		slots:   slots,
		images:  make(map[int]ImageState),
		spinner: s,
	}
}

// Init starts the spinner and the first page load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd())
}

func (m Model) loadCmd() tea.Cmd {
	load, ctx := m.load, m.ctx
	return func() tea.Msg {
		return SnapshotMsg(load(ctx))
	}
}

// Update handles incoming messages. Slot requests are issued from here so
// they reach the binding in the order the screen changed.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SnapshotMsg:
		m.state = msg.State
		m.message = msg.Message
		if msg.State == listing.Loaded || msg.State == listing.Empty {
			m.rows = msg.Rows
			m.clamp()
		}
		m.bind()
		return m, nil

	case AssetMsg:
		m.deliver(binding.Delivery(msg))
		return m, nil

	case tea.WindowSizeMsg:
		slots := SlotsFor(msg.Height)
		for i := slots; i < m.slots; i++ {
			m.release(i)
		}
		m.slots = slots
		m.clamp()
		m.bind()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		for i := 0; i < m.slots; i++ {
			m.release(i)
		}
		m.quit = true
		return m, tea.Quit
	case key.Matches(msg, keys.Reload):
		if m.state == listing.Loading {
			return m, nil
		}
		m.state = listing.Loading
		m.message = ""
		for slot, st := range m.images {
			if st.Status == ImageFailed {
				delete(m.images, slot)
			}
		}
		return m, m.loadCmd()
	case key.Matches(msg, keys.Up):
		m.cursor--
	case key.Matches(msg, keys.Down):
		m.cursor++
	case key.Matches(msg, keys.PageUp):
		m.cursor -= m.slots
	case key.Matches(msg, keys.PageDown):
		m.cursor += m.slots
	case key.Matches(msg, keys.Top):
		m.cursor = 0
	case key.Matches(msg, keys.Bottom):
		m.cursor = len(m.rows) - 1
	default:
		return m, nil
	}

	before := m.offset
	m.clamp()
	if m.offset != before {
		m.bind()
	}
	return m, nil
}

// clamp keeps the cursor on a row and the cursor inside the window.
func (m *Model) clamp() {
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.slots {
		m.offset = m.cursor - m.slots + 1
	}
	if last := len(m.rows) - m.slots; m.offset > last {
		m.offset = last
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// bind points every slot at the row it now shows. A slot already bound to the
// same key is left alone; failed images are only retried on reload.
func (m *Model) bind() {
	if m.state != listing.Loaded {
		return
	}
	for i := 0; i < m.slots; i++ {
		idx := m.offset + i
		if idx >= len(m.rows) {
			m.release(i)
			continue
		}

		k := m.rows[idx].ImageKey
		if k == "" {
			m.release(i)
			continue
		}
		if st, ok := m.images[i]; ok && st.Key == k {
			continue
		}

		m.images[i] = ImageState{Key: k, Status: ImageLoading}
		if err := m.req.Request(i, k); err != nil {
			log.WithError(err).WithField("slot", i).Warn("image request rejected")
			m.images[i] = ImageState{Key: k, Status: ImageFailed, Err: err}
		}
	}
}

func (m *Model) release(slot int) {
	if m.req != nil {
		m.req.Cancel(slot)
	}
	delete(m.images, slot)
}

// deliver applies d to its slot if the slot still wants d.Key.
func (m *Model) deliver(d binding.Delivery) {
	st, ok := m.images[d.RowID]
	if !ok || st.Key != d.Key {
		return
	}

	if d.Err != nil {
		st.Status, st.Err = ImageFailed, d.Err
		m.images[d.RowID] = st
		return
	}

	info, err := asset.Describe(d.Data)
	if err != nil {
		st.Status, st.Err = ImageFailed, err
	} else {
		st.Status, st.Info, st.Err = ImageReady, info, nil
	}
	m.images[d.RowID] = st
}

// Rows returns the rows of the last successful load.
func (m Model) Rows() []listing.Row { return m.rows }

// State returns the list state.
func (m Model) State() listing.State { return m.state }

// Cursor returns the index of the selected row.
func (m Model) Cursor() int { return m.cursor }

// Offset returns the index of the row in the first slot.
func (m Model) Offset() int { return m.offset }

// Image returns the image state of a slot.
func (m Model) Image(slot int) (ImageState, bool) {
	st, ok := m.images[slot]
	return st, ok
}

// Quitting reports whether the user asked to leave.
func (m Model) Quitting() bool { return m.quit }

// View renders the header, the slots and a help line.
func (m Model) View() string {
	if m.quit {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Local Events"))
	if m.state == listing.Loaded {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %d/%d", m.cursor+1, len(m.rows))))
	}
	b.WriteString("\n\n")

	switch m.state {
	case listing.Loading:
		fmt.Fprintf(&b, "  %s Loading events...\n", m.spinner.View())
	case listing.Empty:
		fmt.Fprintf(&b, "  %s\n", m.message)
	case listing.Error:
		fmt.Fprintf(&b, "  %s\n", errorStyle.Render(m.message))
	default:
		for i := 0; i < m.slots; i++ {
			idx := m.offset + i
			if idx >= len(m.rows) {
				break
			}
			b.WriteString(m.renderRow(i, m.rows[idx], idx == m.cursor))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.help())
	return b.String()
}

func (m Model) renderRow(slot int, row listing.Row, selected bool) string {
	marker := "  "
	title := row.Title
	if selected {
		marker = cursorStyle.Render("> ")
		title = cursorStyle.Render(title)
	}
	return fmt.Sprintf("%s%s %s", marker, m.renderImage(slot), title)
}

func (m Model) renderImage(slot int) string {
	st, ok := m.images[slot]
	if !ok {
		return dimStyle.Render("[no image]")
	}
	switch st.Status {
	case ImageLoading:
		return "[" + m.spinner.View() + "]"
	case ImageReady:
		return readyStyle.Render(fmt.Sprintf("[%s %s]", st.Info, humanize.Bytes(uint64(st.Info.Bytes))))
	case ImageFailed:
		return errorStyle.Render("[" + imageError(st.Err) + "]")
	}
	return dimStyle.Render("[no image]")
}

func imageError(err error) string {
	switch {
	case errors.Is(err, asset.ErrInvalidKey):
		return "bad key"
	case err == nil:
		return "failed"
	}
	return "image failed"
}

func (m Model) help() string {
	bindings := []key.Binding{keys.Up, keys.Down, keys.PageDown, keys.Reload, keys.Quit}
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, dimStyle.Render(h.Key+" "+h.Desc))
	}
	return strings.Join(parts, helpSeparator)
}
