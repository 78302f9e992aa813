package screen

import (
	"fmt"
	"io"
	"strings"
)

const (
	Title        = "Tasks"
	SyncLabel    = "Sync"
	SyncingLabel = "Syncing..."
	EmptyMessage = "No tasks found"
)

// Render writes the state as plain text: a header with the sync action,
// then one numbered line per task or the empty-state message.
func Render(w io.Writer, st State) {
	label := SyncLabel
	if st.Syncing {
		label = SyncingLabel
	}
	fmt.Fprintf(w, "%s  [%s]\n", Title, label)

	if len(st.Tasks) == 0 {
		fmt.Fprintln(w, EmptyMessage)
		return
	}
	for i, task := range st.Tasks {
		fmt.Fprintf(w, "%4d  %s  (%s)\n", i+1, displayTitle(task.Title), task.ID)
	}
}

// displayTitle keeps a task on one line.
func displayTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	return strings.ReplaceAll(title, "\n", " ")
}
