package tui

import (
	"github.com/charmbracelet/bubbles/list"

	"briochat/internal/model"
)

type conversationItem struct {
	data model.Conversation
}

func (i conversationItem) Title() string { return i.data.DisplayTitle() }
func (i conversationItem) Description() string {
	if i.data.UpdatedAt.IsZero() {
		return "no activity yet"
	}
	return i.data.UpdatedAt.Format("Jan 2 15:04")
}
func (i conversationItem) FilterValue() string { return i.data.DisplayTitle() }

func buildConversationItems(in []model.Conversation) []list.Item {
	items := make([]list.Item, 0, len(in))
	for _, conv := range in {
		items = append(items, conversationItem{data: conv})
	}
	return items
}

func newListModel() list.Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowFilter(true)
	l.SetShowHelp(false)
	return l
}
