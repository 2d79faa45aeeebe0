// Package digest turns a backlog query result into the coloured,
// per-status attachment message posted to the status channel.
package digest

import (
	"fmt"

	slackapi "github.com/slack-go/slack"

	"dify-relay/internal/jira"
)

type statusStyle struct {
	name   string
	colour string
}

// statusOrder fixes both the set of reported workflow states and the order
// of the attachments in the digest. Issues in any other state are skipped.
var statusOrder = []statusStyle{
	{"0 Backlog", "#8FBC8F"},
	{"0 FUNNEL", "#00CED1"},
	{"1 COMMITTED", "#FFD700"},
	{"2 READY", "#FFA500"},
	{"3 IN PROGRESS", "#007bff"},
	{"4 VALIDATE", "#6A5ACD"},
	{"Finalizada", "#d9534f"},
}

// Build groups issues by status and renders one coloured attachment per
// non-empty status, in the fixed workflow order.
func Build(issues []jira.Issue) *slackapi.WebhookMessage {
	byStatus := make(map[string][]slackapi.AttachmentField)
	for _, issue := range issues {
		byStatus[issue.Status] = append(byStatus[issue.Status], slackapi.AttachmentField{
			Title: fmt.Sprintf("*%s*", issue.Key),
			Value: fmt.Sprintf("Resumen: _%s_\nEstado: *%s*", issue.Summary, issue.Status),
			Short: false,
		})
	}

	var attachments []slackapi.Attachment
	for _, st := range statusOrder {
		fields, ok := byStatus[st.name]
		if !ok {
			continue
		}
		attachments = append(attachments, slackapi.Attachment{
			Color:  st.colour,
			Title:  fmt.Sprintf("*%s*", st.name),
			Text:   "*Tareas:*",
			Fields: fields,
			Footer: "Jira",
		})
	}
	return &slackapi.WebhookMessage{Attachments: attachments}
}
