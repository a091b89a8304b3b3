package ui

import (
	"strings"

	"github.com/josephgoksu/CreditDesk/internal/explain"
	"github.com/josephgoksu/CreditDesk/internal/utils"
	"github.com/josephgoksu/CreditDesk/models"
)

// RenderTranscript renders a banker/agent conversation. Agent replies that
// are JSON (possibly fenced) are shown as a key/value dump.
func RenderTranscript(resp *models.AgentChatResponse, opts RenderOptions) string {
	var sb strings.Builder
	name := explain.ParseAgentName(resp.AgentName)
	title := AgentTitle(name)
	if name == explain.AgentUnknown {
		title = resp.AgentName
	}
	sb.WriteString(StyleHeader.Render("Conversation · "+title) + "\n\n")

	if len(resp.Messages) == 0 {
		sb.WriteString(StyleSubtle.Render("Aucun message.") + "\n")
		return sb.String()
	}

	for _, m := range resp.Messages {
		fromAgent := m.Role == "agent" || m.Role == "assistant"
		who := StylePrefixBanker.Render("Banquier")
		if fromAgent {
			who = StylePrefixAgent.Render("Agent")
		}
		sb.WriteString(who + " " + StyleSubtle.Render(FormatDateTime(m.CreatedAt.Time)) + "\n")

		if fromAgent {
			if d := utils.DecodeJSONObject(m.Content, utils.ModeWhole); d.OK {
				sb.WriteString(indent(RenderDump(d.Object, opts.maxItems()), "  "))
			} else {
				sb.WriteString(indent(WrapText(d.Cleaned, panelWidth(opts.Width)), "  ") + "\n")
			}
		} else {
			sb.WriteString(indent(WrapText(m.Content, panelWidth(opts.Width)), "  ") + "\n")
		}

		if len(m.StructuredOutput) > 0 {
			p := explain.Coerce(m.StructuredOutput)
			if !p.IsEmpty() {
				sb.WriteString(indent(StyleSubtle.Render("Sortie structurée:")+"\n"+RenderDump(p.Value(), opts.maxItems()), "  "))
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	out := strings.Join(lines, "\n")
	if strings.HasSuffix(text, "\n") {
		out += "\n"
	}
	return out
}
