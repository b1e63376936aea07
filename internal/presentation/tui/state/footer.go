package state

import "strings"

// FooterText returns the footer content for the current session.
func FooterText(session Session, statusMessage, helpText string) string {
	status := strings.TrimSpace(statusMessage)
	if status != "" && session != QuitView && session != DeleteClipView {
		if helpText == "" {
			return status
		}
		return status + "\n" + helpText
	}
	return helpText
}
