package transcript

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vouchsec/vouch/internal/domain"
)

type RenderOptions struct {
	Now       time.Time
	FullTurns bool
}

type styles struct {
	title        lipgloss.Style
	header       lipgloss.Style
	empty        lipgloss.Style
	section      lipgloss.Style
	session      lipgloss.Style
	detail       lipgloss.Style
	active       lipgloss.Style
	approved     lipgloss.Style
	rejected     lipgloss.Style
	risk         lipgloss.Style
	investigator lipgloss.Style
	respondent   lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:        lipgloss.NewStyle().Bold(true),
		header:       lipgloss.NewStyle().Faint(true),
		empty:        lipgloss.NewStyle().Faint(true).Italic(true),
		section:      lipgloss.NewStyle().PaddingTop(1),
		session:      lipgloss.NewStyle().Bold(true),
		detail:       lipgloss.NewStyle().Faint(true),
		active:       lipgloss.NewStyle().Foreground(lipgloss.Color("69")),
		approved:     lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		rejected:     lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		risk:         lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		investigator: lipgloss.NewStyle().Foreground(lipgloss.Color("69")),
		respondent:   lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
	}
}

func renderView(sessions []domain.Session, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Verification Interviews"),
		s.header.Render(fmt.Sprintf("sessions: %d", len(sessions))),
	}

	if len(sessions) == 0 {
		lines = append(lines, s.empty.Render("No sessions recorded."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, session := range sessions {
		lines = append(lines, s.section.Render(renderSession(session, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderSession(session domain.Session, opts RenderOptions, s styles) string {
	parts := []string{
		s.session.Render(sessionTitle(session)),
		s.detail.Render(fmt.Sprintf("language: %s  turns: %d  updated: %s",
			session.Language, len(session.Turns), formatUpdated(session.UpdatedAt, opts.Now))),
		statusLine(session, s),
	}

	if len(session.Environment) > 0 {
		parts = append(parts, s.risk.Render(fmt.Sprintf("environment warnings: %d", len(session.Environment))))
	}

	if opts.FullTurns {
		parts = append(parts, renderTurns(session.Turns, s)...)
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderTurns(turns []domain.Turn, s styles) []string {
	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		if turn.Kind == domain.TurnInstruction {
			continue
		}
		style := s.investigator
		if turn.Role == domain.RoleRespondent {
			style = s.respondent
		}
		lines = append(lines, style.Render(fmt.Sprintf("  %s: %s", turn.Role, turn.Text)))
	}
	return lines
}

func sessionTitle(session domain.Session) string {
	id := string(session.ID)
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("Session %s", id)
}

func statusLine(session domain.Session, s styles) string {
	var status string
	switch session.Status {
	case domain.StatusApproved:
		status = s.approved.Render(string(session.Status))
	case domain.StatusRejected:
		status = s.rejected.Render(string(session.Status))
	default:
		status = s.active.Render(string(session.Status))
	}

	if session.RiskFlag {
		return lipgloss.JoinHorizontal(lipgloss.Top, "status: ", status, " ", s.risk.Render("[risk]"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, "status: ", status)
}

func formatUpdated(updatedAt, now time.Time) string {
	if updatedAt.IsZero() {
		return "never"
	}
	if now.IsZero() {
		return updatedAt.Format(time.RFC3339)
	}

	elapsed := now.Sub(updatedAt)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%dm ago", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(elapsed.Hours()))
	default:
		return updatedAt.Format("15:04 on 02 Jan")
	}
}

// Transcript renders one session's conversation as plain styled text, used by
// the terminal interview command after the session resolves.
func Transcript(session domain.Session) string {
	s := newStyles()
	lines := []string{s.title.Render(sessionTitle(session)), statusLine(session, s)}
	lines = append(lines, renderTurns(session.Turns, s)...)
	return strings.Join(lines, "\n")
}
