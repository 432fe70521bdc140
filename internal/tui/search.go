package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/openkcm/storefront-client/internal/catalog"
	"github.com/openkcm/storefront-client/internal/search"
)

// SearchUpdatedMsg carries a new snapshot of the search session.
type SearchUpdatedMsg struct {
	Session search.Session
}

// SearchNotifier returns a change callback for search.WithOnChange that
// forwards snapshots through b.
func SearchNotifier(b *Bridge) func(search.Session) {
	return func(s search.Session) {
		b.Send(SearchUpdatedMsg{Session: s})
	}
}

// SearchModel is a live product search. Typing feeds the controller;
// ctrl+n or page down loads the next page.
type SearchModel struct {
	ctrl *search.Controller

	input   textinput.Model
	session search.Session
	spinner spinner.Model
	status  status
	styles  Styles
}

func NewSearchModel(ctrl *search.Controller) SearchModel {
	input := textinput.New()
	input.Placeholder = "Search products"
	input.Prompt = "> "
	input.Focus()

	return SearchModel{
		ctrl:    ctrl,
		input:   input,
		session: ctrl.Session(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		styles:  DefaultStyles(),
	}
}

func (m SearchModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m SearchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.ctrl.Close()
			return m, tea.Quit
		case "ctrl+n", "pgdown":
			ctrl := m.ctrl
			return m, func() tea.Msg {
				ctrl.LoadMore()
				return SearchUpdatedMsg{Session: ctrl.Session()}
			}
		}

		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if value := m.input.Value(); value != before {
			m.ctrl.OnQueryChanged(value)
			m.session = m.ctrl.Session()
		}
		return m, cmd

	case SearchUpdatedMsg:
		m.session = msg.Session
		return m, nil

	case SignalMsg:
		m.status.apply(msg.Signal)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m SearchModel) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Product search"))
	b.WriteString("\n")
	b.WriteString(m.input.View() + "\n\n")

	if m.session.LoadingFirstPage {
		b.WriteString(m.spinner.View() + " Searching...\n")
	} else {
		for _, p := range m.session.Items {
			b.WriteString(m.styles.Item.Render(formatProduct(p, m.styles)) + "\n")
		}
		if len(m.session.Items) == 0 && strings.TrimSpace(m.session.Query) != "" {
			b.WriteString(m.styles.Help.Render("No products found") + "\n")
		}
	}

	if m.session.LoadingNextPage {
		b.WriteString(m.spinner.View() + " Loading more...\n")
	}
	if s := m.status.view(m.styles); s != "" {
		b.WriteString(s + "\n")
	}

	help := "esc: quit"
	if m.session.Page < m.session.TotalPages {
		help = fmt.Sprintf("page %d of %d • ctrl+n: more • %s", m.session.Page, m.session.TotalPages, help)
	}
	b.WriteString("\n" + m.styles.Help.Render(help))

	return b.String()
}

func formatProduct(p catalog.Product, styles Styles) string {
	price := p.Price
	if p.DiscountPrice > 0 && p.DiscountPrice < p.Price {
		price = p.DiscountPrice
	}

	return fmt.Sprintf("%s  %s", p.Name, styles.Price.Render(fmt.Sprintf("%.2f", price)))
}
