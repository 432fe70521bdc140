package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/openkcm/storefront-client/internal/reset"
)

// ResetFinishedMsg tells the reset screen that the completed session was dismissed.
type ResetFinishedMsg struct{}

type resetResultMsg struct {
	session reset.Session
	err     error
}

// ResetModel walks the user through the password reset steps.
// Enter submits the current step, esc goes back, ctrl+r sends a new code.
type ResetModel struct {
	ctx    context.Context
	wizard *reset.Wizard

	session  reset.Session
	email    textinput.Model
	otp      textinput.Model
	password textinput.Model
	confirm  textinput.Model
	spinner  spinner.Model
	status   status
	styles   Styles
	finished bool
}

func NewResetModel(ctx context.Context, w *reset.Wizard) ResetModel {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "Email: "

	otp := textinput.New()
	otp.Placeholder = "123456"
	otp.Prompt = "Code: "
	otp.CharLimit = 12

	password := textinput.New()
	password.Prompt = "New password: "
	password.EchoMode = textinput.EchoPassword

	confirm := textinput.New()
	confirm.Prompt = "Confirm password: "
	confirm.EchoMode = textinput.EchoPassword

	m := ResetModel{
		ctx:      ctx,
		wizard:   w,
		session:  w.Session(),
		email:    email,
		otp:      otp,
		password: password,
		confirm:  confirm,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		styles:   DefaultStyles(),
	}
	m.focusStep()

	return m
}

// Finished reports whether the completed session was dismissed.
func (m ResetModel) Finished() bool {
	return m.finished
}

func (m ResetModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m ResetModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case resetResultMsg:
		prev := m.session.Step
		m.session = msg.session
		if m.session.Step != prev {
			m.focusStep()
		}
		return m, nil

	case ResetFinishedMsg:
		m.finished = true
		return m, tea.Quit

	case SignalMsg:
		m.status.apply(msg.Signal)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateInput(msg)
}

func (m ResetModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.wizard.Abandon()
		return m, tea.Quit

	case "enter":
		if m.session.InFlight {
			return m, nil
		}
		if m.session.Step == reset.AwaitingNewPassword && m.password.Focused() {
			m.password.Blur()
			return m, m.confirm.Focus()
		}
		cmd := m.submit()
		if cmd != nil {
			m.session.InFlight = true
		}
		return m, cmd

	case "esc":
		m.session = m.wizard.Back()
		m.focusStep()
		return m, nil

	case "ctrl+r":
		if m.session.Step != reset.AwaitingOTP || m.session.InFlight {
			return m, nil
		}
		m.session.InFlight = true
		ctx, w := m.ctx, m.wizard
		return m, func() tea.Msg {
			s, err := w.ResendOTP(ctx)
			return resetResultMsg{session: s, err: err}
		}

	case "tab", "shift+tab":
		if m.session.Step == reset.AwaitingNewPassword {
			if m.password.Focused() {
				m.password.Blur()
				return m, m.confirm.Focus()
			}
			m.confirm.Blur()
			return m, m.password.Focus()
		}
	}

	return m.updateInput(msg)
}

func (m ResetModel) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.session.Step {
	case reset.AwaitingEmail:
		m.email, cmd = m.email.Update(msg)
	case reset.AwaitingOTP:
		m.otp, cmd = m.otp.Update(msg)
	case reset.AwaitingNewPassword:
		var cmds [2]tea.Cmd
		m.password, cmds[0] = m.password.Update(msg)
		m.confirm, cmds[1] = m.confirm.Update(msg)
		cmd = tea.Batch(cmds[:]...)
	case reset.Completed:
	}

	return m, cmd
}

func (m ResetModel) submit() tea.Cmd {
	ctx, w := m.ctx, m.wizard

	switch m.session.Step {
	case reset.AwaitingEmail:
		email := m.email.Value()
		return func() tea.Msg {
			s, err := w.SubmitEmail(ctx, email)
			return resetResultMsg{session: s, err: err}
		}
	case reset.AwaitingOTP:
		code := m.otp.Value()
		return func() tea.Msg {
			s, err := w.SubmitOTP(ctx, code)
			return resetResultMsg{session: s, err: err}
		}
	case reset.AwaitingNewPassword:
		password, confirmation := m.password.Value(), m.confirm.Value()
		return func() tea.Msg {
			s, err := w.SubmitPasswords(ctx, password, confirmation)
			return resetResultMsg{session: s, err: err}
		}
	case reset.Completed:
	}

	return nil
}

// focusStep focuses the input belonging to the current step.
func (m *ResetModel) focusStep() {
	m.email.Blur()
	m.otp.Blur()
	m.password.Blur()
	m.confirm.Blur()

	switch m.session.Step {
	case reset.AwaitingEmail:
		if m.email.Value() == "" {
			m.email.SetValue(m.session.Email)
		}
		m.email.Focus()
	case reset.AwaitingOTP:
		m.otp.Focus()
	case reset.AwaitingNewPassword:
		m.password.Focus()
	case reset.Completed:
		m.password.Reset()
		m.confirm.Reset()
	}
}

func (m ResetModel) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render(stepTitle(m.session.Step)))
	b.WriteString("\n")

	switch m.session.Step {
	case reset.AwaitingEmail:
		b.WriteString(m.email.View() + "\n")
	case reset.AwaitingOTP:
		b.WriteString(m.styles.Help.Render("A code was sent to "+m.session.Email) + "\n")
		b.WriteString(m.otp.View() + "\n")
	case reset.AwaitingNewPassword:
		b.WriteString(m.password.View() + "\n")
		b.WriteString(m.confirm.View() + "\n")
	case reset.Completed:
		b.WriteString(m.styles.Success.Render("Your password has been reset.") + "\n")
	}

	if m.session.InFlight || m.status.busy() {
		b.WriteString(m.spinner.View() + " Please wait...\n")
	}
	if m.session.LastError != "" {
		b.WriteString(m.styles.Error.Render(m.session.LastError) + "\n")
	}
	if s := m.status.view(m.styles); s != "" {
		b.WriteString(s + "\n")
	}

	b.WriteString("\n" + m.styles.Help.Render(stepHelp(m.session.Step)))

	return b.String()
}

func stepTitle(step reset.Step) string {
	switch step {
	case reset.AwaitingEmail:
		return "Forgot your password?"
	case reset.AwaitingOTP:
		return "Enter the verification code"
	case reset.AwaitingNewPassword:
		return "Choose a new password"
	case reset.Completed:
		return "All done"
	}

	return ""
}

func stepHelp(step reset.Step) string {
	switch step {
	case reset.AwaitingEmail:
		return "enter: send code • ctrl+c: quit"
	case reset.AwaitingOTP:
		return "enter: verify • ctrl+r: resend code • esc: back • ctrl+c: quit"
	case reset.AwaitingNewPassword:
		return "tab: switch field • enter: reset password • esc: back • ctrl+c: quit"
	case reset.Completed:
		return "returning to sign in..."
	}

	return ""
}
