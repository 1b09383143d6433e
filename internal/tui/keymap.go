package tui

import (
	"strings"
	"unicode/utf8"

	"charm.land/bubbles/v2/key"
)

// keyMap represents key map data used by this package.
type keyMap struct {
	quit         key.Binding
	reload       key.Binding
	toggleHelp   key.Binding
	nextView     key.Binding
	nextProject  key.Binding
	moveUp       key.Binding
	moveDown     key.Binding
	moveLeft     key.Binding
	moveRight    key.Binding
	toggleRow    key.Binding
	toggleAll    key.Binding
	details      key.Binding
	filter       key.Binding
	clearFilters key.Binding
	narrow       key.Binding
	widen        key.Binding
	shiftLeft    key.Binding
	shiftRight   key.Binding
	resetLayout  key.Binding
	bulkUpdate   key.Binding
	copyIDs      key.Binding
	zoomIn       key.Binding
	zoomOut      key.Binding
	cancel       key.Binding
	confirm      key.Binding
}

// KeyConfig overrides selected default bindings. Blank fields keep the default.
type KeyConfig struct {
	Filter     string
	BulkUpdate string
	CopyIDs    string
	ZoomIn     string
	ZoomOut    string
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		nextView:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next view")),
		nextProject:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "next project")),
		moveUp:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "row up")),
		moveDown:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "row down")),
		moveLeft:     key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column left")),
		moveRight:    key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column right")),
		toggleRow:    key.NewBinding(key.WithKeys("space", " "), key.WithHelp("space", "select row")),
		toggleAll:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "select all")),
		details:      key.NewBinding(key.WithKeys("enter", "i"), key.WithHelp("enter", "details")),
		filter:       key.NewBinding(key.WithKeys("/", "f"), key.WithHelp("/", "filter column")),
		clearFilters: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear filters")),
		narrow:       key.NewBinding(key.WithKeys("<"), key.WithHelp("<", "narrow column")),
		widen:        key.NewBinding(key.WithKeys(">"), key.WithHelp(">", "widen column")),
		shiftLeft:    key.NewBinding(key.WithKeys("["), key.WithHelp("[", "move column left")),
		shiftRight:   key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "move column right")),
		resetLayout:  key.NewBinding(key.WithKeys("R", "shift+r"), key.WithHelp("R", "reset layout")),
		bulkUpdate:   key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "bulk update")),
		copyIDs:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy ids")),
		zoomIn:       key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		zoomOut:      key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "zoom out")),
		cancel:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		confirm:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
	}
}

// applyConfig applies configured key overrides.
func (k *keyMap) applyConfig(cfg KeyConfig) {
	configureBinding(&k.filter, cfg.Filter, "/", "filter column")
	configureBinding(&k.bulkUpdate, cfg.BulkUpdate, "b", "bulk update")
	configureBinding(&k.copyIDs, cfg.CopyIDs, "y", "copy ids")
	configureBinding(&k.zoomIn, cfg.ZoomIn, "+", "zoom in")
	configureBinding(&k.zoomOut, cfg.ZoomOut, "-", "zoom out")
}

// configureBinding replaces b's keys with the parsed override, or fallback when blank.
func configureBinding(b *key.Binding, raw, fallback, desc string) {
	if strings.TrimSpace(raw) == "" {
		return
	}
	keys, help := parseBindingKeys(raw, fallback)
	b.SetKeys(keys...)
	b.SetHelp(help, desc)
}

// parseBindingKeys maps one configured key to matcher keys and help text.
func parseBindingKeys(raw, fallback string) ([]string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = fallback
	}
	if strings.EqualFold(raw, "space") {
		return []string{" ", "space"}, "space"
	}
	if utf8.RuneCountInString(raw) == 1 {
		lower := strings.ToLower(raw)
		if lower != raw {
			return []string{raw, "shift+" + lower}, raw
		}
		return []string{raw}, raw
	}
	return []string{strings.ToLower(raw)}, raw
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.nextView, k.filter, k.toggleRow, k.bulkUpdate, k.details, k.zoomIn, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.nextView, k.nextProject, k.reload, k.toggleHelp, k.quit},
		{k.moveUp, k.moveDown, k.moveLeft, k.moveRight, k.details, k.cancel},
		{k.toggleRow, k.toggleAll, k.bulkUpdate, k.copyIDs},
		{k.filter, k.clearFilters, k.narrow, k.widen, k.shiftLeft, k.shiftRight, k.resetLayout},
		{k.zoomIn, k.zoomOut},
	}
}
