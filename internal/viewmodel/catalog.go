package viewmodel

import (
	"fmt"

	"github.com/rpggio/docket/internal/domain/item"
)

// Strings is the bundle of action texts shipped inside every snapshot.
type Strings struct {
	AddItem      string `json:"addItem"`
	EditItem     string `json:"editItem"`
	RemoveItem   string `json:"removeItem"`
	MarkComplete string `json:"markComplete"`
	MarkActive   string `json:"markActive"`
	ClearScope   string `json:"clearScope"`
	Undo         string `json:"undo"`
	DragHint     string `json:"dragHint"`
}

// Catalog holds every piece of display copy the core produces: bucket
// labels, empty-state texts, confirmation prompts, and notification
// messages. Keeping it in one value makes the copy swappable without
// touching router or builder logic.
type Catalog struct {
	GlobalLabel    string
	PartitionLabel string // format, one %s verb for the partition key

	EmptyGeneral         string
	EmptyOnInit          string
	EmptyAfterCompletion string

	ConfirmClear       string // format: %d item count, %s bucket label
	NoticeAlreadyEmpty string
	NoticeItemRemoved  string // format: %s removed title
	NoticeScopeCleared string // format: %s bucket label
	UndoLabel          string

	Strings Strings
}

// DefaultCatalog returns the stock English copy.
func DefaultCatalog() Catalog {
	return Catalog{
		GlobalLabel:    "My Tasks",
		PartitionLabel: "%s",

		EmptyGeneral:         "No tasks yet.",
		EmptyOnInit:          "Nothing on the list. Add a task to get started.",
		EmptyAfterCompletion: "All done. Nice work!",

		ConfirmClear:       "Remove all %d tasks from %s?",
		NoticeAlreadyEmpty: "The list is already empty.",
		NoticeItemRemoved:  "Deleted %q.",
		NoticeScopeCleared: "Cleared %s.",
		UndoLabel:          "Undo",

		Strings: Strings{
			AddItem:      "Add task",
			EditItem:     "Edit",
			RemoveItem:   "Delete",
			MarkComplete: "Mark done",
			MarkActive:   "Reopen",
			ClearScope:   "Clear list",
			Undo:         "Undo",
			DragHint:     "Drag to reorder",
		},
	}
}

// Label returns the display label for a bucket.
func (c Catalog) Label(target item.Target) string {
	if target.Scope == item.ScopeWorkspace {
		return fmt.Sprintf(c.PartitionLabel, target.Partition)
	}
	return c.GlobalLabel
}

// EmptyText returns the empty-state copy for the given context.
func (c Catalog) EmptyText(ctx EmptyContext) string {
	switch ctx {
	case EmptyOnInit:
		return c.EmptyOnInit
	case EmptyAfterCompletion:
		return c.EmptyAfterCompletion
	default:
		return c.EmptyGeneral
	}
}

// ConfirmClearPrompt builds the destructive-clear confirmation text.
func (c Catalog) ConfirmClearPrompt(count int, label string) string {
	return fmt.Sprintf(c.ConfirmClear, count, label)
}

// RemovedNotice builds the single-removal notification text.
func (c Catalog) RemovedNotice(title string) string {
	return fmt.Sprintf(c.NoticeItemRemoved, title)
}

// ClearedNotice builds the bucket-cleared notification text.
func (c Catalog) ClearedNotice(label string) string {
	return fmt.Sprintf(c.NoticeScopeCleared, label)
}
