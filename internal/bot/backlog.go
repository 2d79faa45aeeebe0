package bot

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"dify-relay/internal/digest"
)

const (
	usageMessage = "Formato Invalido. Por favor usa: /tareas-jira Proyecto: <project_name> Tareas: <number_of_tasks>"
	badNumberMsg = "Numero de tareas invalido. Por favor proporciona un numero entero valido."
)

// HandleBacklogCommand parses a "proyecto: <PROJECT> tareas: <N>" command,
// schedules the backlog fetch in the background and acknowledges
// immediately. The returned body and status go back to the caller as the
// synchronous command response; the acknowledgement never waits on the
// tracker.
func (b *Bot) HandleBacklogCommand(channelID, text string) (string, int) {
	parts := strings.Fields(text)
	if len(parts) < 4 || !strings.EqualFold(parts[0], "proyecto:") || !strings.EqualFold(parts[2], "tareas:") {
		b.send(channelID, usageMessage)
		return usageMessage, http.StatusBadRequest
	}

	project := parts[1]
	numTasks, err := strconv.Atoi(parts[3])
	if err != nil || numTasks <= 0 {
		b.send(channelID, badNumberMsg)
		return badNumberMsg, http.StatusBadRequest
	}

	jql := fmt.Sprintf("project = %s", project)
	b.tasks.Go("backlog-digest", func(ctx context.Context) {
		b.ReportBacklog(jql, numTasks)
	})

	ack := fmt.Sprintf("Obteniendo %d tareas del proyecto %s.", numTasks, project)
	b.send(channelID, ack)
	return ack, http.StatusOK
}

// ReportBacklog queries the tracker and posts the digest. It runs on the
// worker pool for commands and directly from the cron scheduler; failures
// are logged, never propagated to a request path.
func (b *Bot) ReportBacklog(jql string, maxResults int) {
	issues, err := b.tracker.Search(jql, maxResults)
	if err != nil {
		log.Errorf("backlog query %q failed: %v", jql, err)
		return
	}
	if err := b.webhook.PostDigest(digest.Build(issues)); err != nil {
		log.Errorf("failed to deliver backlog digest: %v", err)
		return
	}
	log.Printf("backlog digest delivered for %q (%d issues)", jql, len(issues))
}
