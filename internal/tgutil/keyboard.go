package tgutil

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zewedjobs/zewed-jobs-go/internal/config"
	"github.com/zewedjobs/zewed-jobs-go/internal/pagination"
	"github.com/zewedjobs/zewed-jobs-go/internal/storage"
)

// Callback data values. Parameterised ones are built with the *Data helpers.
const (
	CallbackMenu       = "menu"
	CallbackCategories = "cats"
	CallbackBrowse     = "browse"
	CallbackLatest     = "latest"
	CallbackView       = "view"
	CallbackSave       = "save"
	CallbackUnsave     = "unsave"
)

// BrowseData is the callback for page of category.
func BrowseData(category string, page int) string {
	return fmt.Sprintf("%s:%s:%d", CallbackBrowse, category, page)
}

// LatestData is the callback for page of the latest jobs.
func LatestData(page int) string {
	return fmt.Sprintf("%s:%d", CallbackLatest, page)
}

func ViewData(jobID int64) string   { return fmt.Sprintf("%s:%d", CallbackView, jobID) }
func SaveData(jobID int64) string   { return fmt.Sprintf("%s:%d", CallbackSave, jobID) }
func UnsaveData(jobID int64) string { return fmt.Sprintf("%s:%d", CallbackUnsave, jobID) }

// MainMenuKeyboard is shown on /start and from the "menu" callback.
func MainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔍 Browse Jobs", CallbackCategories)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🆕 Latest Jobs", LatestData(1))),
	)
}

// CategoryKeyboard lists the catalogue categories with their active job counts.
func CategoryKeyboard(catalog config.Catalog, counts []storage.CategoryCount) tgbotapi.InlineKeyboardMarkup {
	byCategory := make(map[string]int64, len(counts))
	for _, c := range counts {
		byCategory[c.Category] = c.Count
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(catalog.Categories)/CategoriesPerRow+2)
	row := make([]tgbotapi.InlineKeyboardButton, 0, CategoriesPerRow)
	for _, entry := range catalog.Categories {
		label := fmt.Sprintf("%s (%d)", entry.Display(), byCategory[entry.Key])
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, BrowseData(entry.Key, 1)))
		if len(row) == CategoriesPerRow {
			rows = append(rows, row)
			row = make([]tgbotapi.InlineKeyboardButton, 0, CategoriesPerRow)
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🆕 All Latest", LatestData(1)),
		tgbotapi.NewInlineKeyboardButtonData("🏠 Main Menu", CallbackMenu),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// PageKeyboard has one view button per job, then prev/next navigation built
// with pageData, then a way back to the categories.
func PageKeyboard(jobs []storage.Job, page pagination.Page, pageData func(page int) string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(jobs)+2)
	for _, j := range jobs {
		label := fmt.Sprintf("👉 #%d %s", j.ID, TruncateRunes(j.Title, ButtonLabelLimit))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, ViewData(j.ID)),
		))
	}

	var nav []tgbotapi.InlineKeyboardButton
	if page.HasPrev() {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("◀️ Prev", pageData(page.Prev())))
	}
	if page.HasNext() {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Next ▶️", pageData(page.Next())))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔙 Categories", CallbackCategories),
		tgbotapi.NewInlineKeyboardButtonData("🏠 Main Menu", CallbackMenu),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// JobActionsKeyboard is attached to a job card. The save button toggles.
func JobActionsKeyboard(jobID int64, saved bool) tgbotapi.InlineKeyboardMarkup {
	save := tgbotapi.NewInlineKeyboardButtonData("⭐ Save", SaveData(jobID))
	if saved {
		save = tgbotapi.NewInlineKeyboardButtonData("✖️ Unsave", UnsaveData(jobID))
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(save),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🆕 Latest", LatestData(1)),
			tgbotapi.NewInlineKeyboardButtonData("🏠 Main Menu", CallbackMenu),
		),
	)
}
