package tui

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/user/ytlearn/internal/config"
	"github.com/user/ytlearn/internal/db"
	"github.com/user/ytlearn/internal/indexer"
)

type view int

const (
	viewAll view = iota
	viewSearch
	viewAdd
)

var viewLabels = []string{"All", "Search", "Add"}

type model struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   *db.Store
	input   textinput.Model
	list    list.Model
	records []db.VideoRecord
	view    view
	editing bool // input has focus
	detail  bool // show the selected summary
	busy    bool
	status  string
	width   int
	height  int
	err     error
}

type recordItem struct {
	record db.VideoRecord
}

func (r recordItem) Title() string {
	return r.record.Title
}

func (r recordItem) Description() string {
	desc := r.record.Channel + " · " + r.record.CreatedAt.Local().Format("2006-01-02")
	if r.record.Keywords != "" {
		keywords := []rune(r.record.Keywords)
		if len(keywords) > 60 {
			keywords = append(keywords[:60], []rune("...")...)
		}
		desc += " · " + string(keywords)
	}
	return desc
}

func (r recordItem) FilterValue() string {
	return r.record.Title + " " + r.record.Summary + " " + r.record.Keywords
}

func initialModel(cfg *config.Config, logger *zap.Logger) model {
	if logger == nil {
		logger = zap.NewNop()
	}

	ti := textinput.New()
	ti.CharLimit = 512
	ti.Width = 50

	delegate := list.NewDefaultDelegate()
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "ytlearn"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return model{
		cfg:    cfg,
		logger: logger,
		input:  ti,
		list:   l,
		view:   viewAll,
	}
}

type initMsg struct {
	store   *db.Store
	records []db.VideoRecord
	err     error
}

type recordsMsg struct {
	records []db.VideoRecord
	err     error
}

type addMsg struct {
	reference string
	result    *indexer.IngestResult
	err       error
}

func (m model) Init() tea.Cmd {
	return m.initStore
}

func (m model) initStore() tea.Msg {
	store, err := db.NewStore(m.cfg.DataDir)
	if err != nil {
		return initMsg{err: err}
	}

	records, err := store.List(db.DefaultListLimit)
	if err != nil {
		return initMsg{store: store, err: err}
	}

	return initMsg{store: store, records: records}
}

func (m model) loadAll() tea.Msg {
	if m.store == nil {
		return recordsMsg{err: fmt.Errorf("store not initialized")}
	}
	records, err := m.store.List(db.DefaultListLimit)
	return recordsMsg{records: records, err: err}
}

func (m model) doSearch(term string) tea.Cmd {
	return func() tea.Msg {
		if m.store == nil {
			return recordsMsg{err: fmt.Errorf("store not initialized")}
		}

		records, err := m.store.Search(term)
		return recordsMsg{records: records, err: err}
	}
}

func (m model) doAdd(reference string) tea.Cmd {
	return func() tea.Msg {
		if m.store == nil {
			return addMsg{reference: reference, err: fmt.Errorf("store not initialized")}
		}
		res, err := indexer.New(m.cfg, m.store, m.logger).Ingest(context.Background(), reference, m.cfg.APIKey())
		return addMsg{reference: reference, result: res, err: err}
	}
}

// focus switches to v and gives the input focus when v takes input.
func (m *model) focus(v view) tea.Cmd {
	m.view = v
	m.detail = false
	m.input.SetValue("")
	switch v {
	case viewSearch:
		m.input.Placeholder = "Search videos..."
	case viewAdd:
		m.input.Placeholder = "Paste a YouTube URL..."
	default:
		m.editing = false
		m.input.Blur()
		return m.loadAll
	}
	m.editing = true
	m.input.Focus()
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.editing {
			switch msg.String() {
			case "esc":
				m.editing = false
				m.input.Blur()
				return m, nil
			case "enter":
				value := strings.TrimSpace(m.input.Value())
				m.editing = false
				m.input.Blur()
				if m.view == viewAdd {
					if value == "" || m.busy {
						return m, nil
					}
					m.busy = true
					m.status = "Processing " + value + "..."
					return m, m.doAdd(value)
				}
				return m, m.doSearch(value)
			}
			break
		}

		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "/":
			return m, m.focus(viewSearch)
		case "a":
			return m, m.focus(viewAdd)
		case "1", "2", "3":
			return m, m.focus(view(msg.String()[0] - '1'))
		case "tab":
			return m, m.focus((m.view + 1) % 3)
		case "esc":
			m.detail = false
			return m, nil
		case "enter":
			m.detail = !m.detail
			return m, nil
		case "j", "down":
			m.list.CursorDown()
			return m, nil
		case "k", "up":
			m.list.CursorUp()
			return m, nil
		case "g":
			m.list.Select(0)
			return m, nil
		case "G":
			items := m.list.Items()
			if len(items) > 0 {
				m.list.Select(len(items) - 1)
			}
			return m, nil
		case "o":
			if item, ok := m.list.SelectedItem().(recordItem); ok {
				openBrowser(item.record.Reference)
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-8)
		m.input.Width = msg.Width - 20

	case initMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.store = msg.store
		m.setRecords(msg.records)

	case recordsMsg:
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.setRecords(msg.records)

	case addMsg:
		m.busy = false
		m.status = addStatus(msg)
		if msg.err == nil {
			m.view = viewAll
			return m, m.loadAll
		}
		return m, nil
	}

	if m.editing {
		prev := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)

		if m.view == viewSearch {
			cmds = append(cmds, m.liveSearch(prev))
		}
	} else {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// liveSearch refreshes the results after the search input changed from prev.
// A cleared input goes back to the full list.
func (m model) liveSearch(prev string) tea.Cmd {
	value := m.input.Value()
	if value == prev {
		return nil
	}
	if strings.TrimSpace(value) == "" {
		return m.loadAll
	}
	return m.doSearch(value)
}

func addStatus(msg addMsg) string {
	switch {
	case errors.Is(msg.err, db.ErrDuplicate) && msg.result != nil:
		return "Already stored: " + msg.result.Record.Title
	case msg.err != nil:
		return "Error: " + msg.err.Error()
	case msg.result.Degraded():
		return "Added " + msg.result.Record.Title + " (summary generation failed)"
	default:
		return "Added " + msg.result.Record.Title
	}
}

func (m *model) setRecords(records []db.VideoRecord) {
	m.records = records
	items := make([]list.Item, 0, len(records))
	for _, r := range records {
		items = append(items, recordItem{record: r})
	}
	m.list.SetItems(items)
}

var (
	activeTab   = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	inactiveTab = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	inputStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
	detailStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

func (m model) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err)
	}

	var b strings.Builder

	tabs := make([]string, 0, len(viewLabels))
	for i, label := range viewLabels {
		text := fmt.Sprintf("[%d] %s", i+1, label)
		if view(i) == m.view {
			tabs = append(tabs, activeTab.Render(text))
		} else {
			tabs = append(tabs, inactiveTab.Render(text))
		}
	}
	b.WriteString(strings.Join(tabs, "  "))
	b.WriteString("\n")

	if m.view != viewAll {
		b.WriteString(inputStyle.Render(m.input.View()))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.detail {
		if item, ok := m.list.SelectedItem().(recordItem); ok {
			b.WriteString(detailStyle.Render(renderDetail(item.record)))
			b.WriteString("\n")
		}
	} else {
		b.WriteString(m.list.View())
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render(m.status))
	}

	help := "[j/k]nav [g/G]top/end [/]search [a]dd [1-3]views [Enter]summary [o]pen [q]uit"
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

func renderDetail(r db.VideoRecord) string {
	var b strings.Builder
	b.WriteString(activeTab.Render(r.Title))
	b.WriteString("\n")
	b.WriteString(r.Channel + " · " + r.Reference)
	b.WriteString("\n\n")
	b.WriteString(r.Summary)
	if r.Keywords != "" {
		b.WriteString("\n\nKeywords: " + r.Keywords)
	}
	return b.String()
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	}
	if cmd != nil {
		cmd.Start()
	}
}

// Run starts the TUI application
func Run(cfg *config.Config, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	// Anything below error level would draw over the alt screen.
	logger = logger.WithOptions(zap.IncreaseLevel(zapcore.ErrorLevel))

	m := initialModel(cfg, logger.Named("tui"))
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if fm, ok := final.(model); ok && fm.store != nil {
		fm.store.Close()
	}
	return err
}
