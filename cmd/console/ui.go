package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/moderntrail/trail-engine/pkg/game"
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config      *ConsoleConfig
	client      *http.Client
	gameState   *game.GameState
	logViewport viewport.Model
	ready       bool
	width       int
	height      int
	err         error
	loading     bool
	status      string

	selectedChoice int

	// Shop modal state
	showShopModal bool
	selectedItem  int
	shopItems     []game.Item

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type gameUpdatedMsg struct {
	gameState *game.GameState
	err       error
}

type snapshotSavedMsg struct {
	filename string
	err      error
}

type progressTickMsg struct{}

var (
	logPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	sidePanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(1).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	eventTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	logStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	selectedChoiceStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208")) // orange

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client, gs *game.GameState) ConsoleUI {
	vp := viewport.New(60, 20)
	vp.MouseWheelEnabled = true

	return ConsoleUI{
		config:      cfg,
		client:      client,
		gameState:   gs,
		logViewport: vp,
		shopItems:   game.ShopItems(),
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return nil
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}
	if m.showShopModal {
		return m.updateShopModal(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.writeLogContent()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case gameUpdatedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.gameState = msg.gameState
			m.selectedChoice = 0
		}
		m.writeLogContent()
		return m, nil

	case snapshotSavedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.status = "Saved " + msg.filename
		}
		return m, nil

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeLogContent()
			return m, progressTick()
		}
	}

	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	return m, cmd
}

func (m ConsoleUI) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
		m.showQuitModal = true
		return m, nil
	}
	if m.loading {
		return m, nil
	}
	m.status = ""

	gs := m.gameState
	if gs.IsOver() {
		switch msg.String() {
		case "e":
			m.loading = true
			return m, tea.Batch(m.saveSnapshot(), progressTick())
		case "q":
			return m, tea.Quit
		}
		return m, nil
	}

	if gs.CurrentEvent != nil {
		switch msg.Type {
		case tea.KeyUp:
			if m.selectedChoice > 0 {
				m.selectedChoice--
			}
			m.writeLogContent()
		case tea.KeyDown:
			if m.selectedChoice < len(gs.CurrentEvent.Choices)-1 {
				m.selectedChoice++
			}
			m.writeLogContent()
		case tea.KeyEnter:
			m.loading = true
			m.progressTick = 0
			return m, tea.Batch(m.choose(m.selectedChoice), progressTick())
		}
		return m, nil
	}

	switch msg.String() {
	case "enter", " ", "c":
		m.loading = true
		m.progressTick = 0
		return m, tea.Batch(m.continueDay(), progressTick())
	case "s":
		// The black market travels with you, but not into jail.
		if !gs.Immobile() {
			m.showShopModal = true
			m.selectedItem = 0
		}
	case "e":
		m.loading = true
		return m, tea.Batch(m.saveSnapshot(), progressTick())
	case "t":
		m.loading = true
		m.progressTick = 0
		return m, tea.Batch(m.testConnection(), progressTick())
	}
	return m, nil
}

func (m *ConsoleUI) resize() {
	m.logViewport.Width = int(float64(m.width)*0.68) - 4
	m.logViewport.Height = m.height - 4
}

// writeLogContent rebuilds the left panel: journey log, then the current
// event with its choices, or the travel prompt.
func (m *ConsoleUI) writeLogContent() {
	gs := m.gameState
	width := m.logViewport.Width - 4
	if width < 20 {
		width = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("THE MODERN AMERICAN TRAIL") + "\n")
	content.WriteString(promptStyle.Render("Flee to the Safe Haven of Vermont before it all falls apart.") + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")

	logStart := 0
	if len(gs.GameLog) > 12 {
		logStart = len(gs.GameLog) - 12
	}
	for _, entry := range gs.GameLog[logStart:] {
		line := fmt.Sprintf("Day %d — %s: %s", entry.Day, entry.Event, entry.Result)
		content.WriteString(logStyle.Render(wordwrap.String(line, width)) + "\n")
	}
	content.WriteString("\n")

	switch {
	case gs.IsWon():
		content.WriteString(titleStyle.Render("YOU MADE IT!") + "\n")
		content.WriteString(wordwrap.String(fmt.Sprintf(
			"After %d days on the road, your party crosses into the Safe Haven of Vermont.", gs.Day), width) + "\n\n")
		content.WriteString(promptStyle.Render("e: save the run · q: quit") + "\n")

	case gs.IsLost():
		content.WriteString(errorStyle.Render("THE TRAIL CLAIMS ANOTHER PARTY") + "\n")
		content.WriteString(wordwrap.String(fmt.Sprintf(
			"Your journey ends on day %d, %d miles short of Vermont.", gs.Day, gs.DistanceToNext), width) + "\n\n")
		content.WriteString(promptStyle.Render("e: save the run · q: quit") + "\n")

	case gs.CurrentEvent != nil:
		ev := gs.CurrentEvent
		content.WriteString(eventTitleStyle.Render(ev.Title) + "\n")
		content.WriteString(wordwrap.String(ev.Description, width) + "\n\n")
		for i, c := range ev.Choices {
			label := fmt.Sprintf("%d. %s", i+1, c.Text)
			if i == m.selectedChoice {
				content.WriteString(selectedChoiceStyle.Render("▶ "+label) + "\n")
			} else {
				content.WriteString(choiceStyle.Render("  "+label) + "\n")
			}
		}
		content.WriteString("\n" + promptStyle.Render("↑/↓ select · Enter choose") + "\n")

	default:
		if gs.Jailed {
			content.WriteString(warnStyle.Render(fmt.Sprintf(
				"Detained by ICE. Day %d in the facility.", gs.DaysInJail)) + "\n")
		} else if gs.StuckDays > 0 {
			content.WriteString(warnStyle.Render(fmt.Sprintf(
				"The party is stuck for %d more day(s).", gs.StuckDays)) + "\n")
		}
		content.WriteString(promptStyle.Render("Enter: continue the journey · s: black market · e: save · t: test AI connection") + "\n")
	}

	if m.loading {
		content.WriteString("\n" + m.renderProgressBar())
	}
	if m.err != nil {
		content.WriteString("\n" + errorStyle.Render("Error: "+m.err.Error()) + "\n")
	}
	if m.status != "" {
		content.WriteString("\n" + loadingStyle.Render(m.status) + "\n")
	}

	m.logViewport.SetContent(content.String())
	m.logViewport.GotoBottom()
}

func (m ConsoleUI) writeSidebar() string {
	gs := m.gameState
	var content strings.Builder
	content.WriteString(titleStyle.Render("PARTY STATUS") + "\n\n")

	content.WriteString(fmt.Sprintf("Day %d\n", gs.Day))
	content.WriteString(fmt.Sprintf("At: %s\n", gs.CurrentLocation().Name))
	content.WriteString(fmt.Sprintf("Next stop: %d miles\n", gs.DistanceToNext))
	content.WriteString(fmt.Sprintf("Traveled: %d miles\n\n", gs.TotalDistance))

	content.WriteString(fmt.Sprintf("Health:   %d\n", gs.Health))
	content.WriteString(fmt.Sprintf("Morale:   %d\n", gs.Morale))
	content.WriteString(fmt.Sprintf("Supplies: %d\n", gs.Supplies))
	content.WriteString(fmt.Sprintf("Money:    $%d\n\n", gs.Money))

	content.WriteString("Party:\n")
	if len(gs.Party) == 0 {
		content.WriteString(errorStyle.Render("  nobody left\n"))
	}
	for _, p := range gs.Party {
		content.WriteString(fmt.Sprintf("  %s (%s)\n    hp %d · morale %d\n", p.Name, p.Profession, p.Health, p.Morale))
	}
	content.WriteString("\n")

	if gs.Jailed {
		content.WriteString(warnStyle.Render(fmt.Sprintf("IN DETENTION (day %d)\n\n", gs.DaysInJail)))
	} else if gs.StuckDays > 0 {
		content.WriteString(warnStyle.Render(fmt.Sprintf("STUCK (%d days left)\n\n", gs.StuckDays)))
	}

	content.WriteString(promptStyle.Render("AI Narrator") + "\n")
	model := gs.APIStats.CurrentModel
	if model == "" {
		model = "none"
	}
	content.WriteString(fmt.Sprintf("  %s\n", model))
	if gs.APIStats.Connected {
		content.WriteString("  connected\n")
	} else {
		content.WriteString("  offline (fallback pool)\n")
	}
	content.WriteString(fmt.Sprintf("  AI events: %.0f%%\n", gs.APIStats.AIRatio()*100))
	content.WriteString(fmt.Sprintf("  tokens: %d\n", gs.APIStats.TotalTokensUsed))

	return content.String()
}

func (m ConsoleUI) continueDay() tea.Cmd {
	return func() tea.Msg {
		gs, err := continueDay(m.client, m.config.APIBaseURL, m.gameState.ID)
		return gameUpdatedMsg{gs, err}
	}
}

func (m ConsoleUI) choose(choice int) tea.Cmd {
	return func() tea.Msg {
		gs, err := chooseOption(m.client, m.config.APIBaseURL, m.gameState.ID, choice)
		return gameUpdatedMsg{gs, err}
	}
}

func (m ConsoleUI) buy(itemID string) tea.Cmd {
	return func() tea.Msg {
		gs, err := buyItem(m.client, m.config.APIBaseURL, m.gameState.ID, itemID)
		return gameUpdatedMsg{gs, err}
	}
}

func (m ConsoleUI) testConnection() tea.Cmd {
	return func() tea.Msg {
		gs, err := testModelConnection(m.client, m.config.APIBaseURL, m.gameState.ID)
		return gameUpdatedMsg{gs, err}
	}
}

func (m ConsoleUI) saveSnapshot() tea.Cmd {
	return func() tea.Msg {
		filename, data, err := exportSnapshot(m.client, m.config.APIBaseURL, m.gameState.ID)
		if err != nil {
			return snapshotSavedMsg{err: err}
		}
		if err := os.WriteFile(filename, data, 0o644); err != nil {
			return snapshotSavedMsg{err: err}
		}
		return snapshotSavedMsg{filename: filename}
	}
}

func (m ConsoleUI) updateShopModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case gameUpdatedMsg:
		m.loading = false
		m.showShopModal = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.gameState = msg.gameState
		}
		m.writeLogContent()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showShopModal = false
			return m, nil
		case tea.KeyUp:
			if m.selectedItem > 0 {
				m.selectedItem--
			}
		case tea.KeyDown:
			if m.selectedItem < len(m.shopItems)-1 {
				m.selectedItem++
			}
		case tea.KeyEnter:
			m.loading = true
			return m, tea.Batch(m.buy(m.shopItems[m.selectedItem].ID), progressTick())
		}
	}
	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N", "esc":
				m.showQuitModal = false
				return m, nil
			}
		}
	}
	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Abandon the Trail?"))
	content.WriteString("\n\n")
	content.WriteString("Your progress is saved on the server, but the road won't wait.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to keep going"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderShopModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("BLACK MARKET"))
	content.WriteString("\n\n")
	content.WriteString(fmt.Sprintf("You have $%d. Prices vary a little per deal.\n\n", m.gameState.Money))

	for i, item := range m.shopItems {
		label := fmt.Sprintf("%s — about $%d", item.Name, item.BasePrice)
		if i == m.selectedItem {
			content.WriteString(selectedChoiceStyle.Render("▶ "+label) + "\n")
			content.WriteString(promptStyle.Render("    "+item.Description) + "\n")
		} else {
			content.WriteString(choiceStyle.Render("  "+label) + "\n")
		}
	}

	content.WriteString("\n")
	content.WriteString(promptStyle.Render("↑/↓ browse, Enter to buy, Esc to leave"))

	modal := modalStyle.Width(64).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if m.showShopModal {
		return m.renderShopModal()
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	logWidth := int(float64(m.width)*0.68) - 4
	sideWidth := m.width - logWidth - 8

	logPanel := logPanelStyle.Width(logWidth).Height(m.height - 2).Render(m.logViewport.View())
	sidePanel := sidePanelStyle.Width(sideWidth).Height(m.height - 2).Render(m.writeSidebar())

	return lipgloss.JoinHorizontal(lipgloss.Top, logPanel, sidePanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.logViewport.Width - 6
	if usable <= 0 {
		usable = 30
	}
	if usable > 60 {
		usable = 60
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		switch {
		case i < filled:
			bar.WriteString("█")
		case i == filled && frame%4 < 2:
			bar.WriteString("▓")
		default:
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
