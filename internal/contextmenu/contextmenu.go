// Package contextmenu builds the web view's right-click menu.
package contextmenu

// Action identifies what a menu entry does.
type Action string

// Entry actions.
const (
	ActionSeparator    Action = "separator"
	ActionBack         Action = "navigate-back"
	ActionForward      Action = "navigate-forward"
	ActionReload       Action = "reload"
	ActionOpenExternal Action = "open-external"
	ActionCopy         Action = "copy-text"
	ActionViewSource   Action = "view-source"
	ActionInspect      Action = "inspect-element"
)

// Entry labels.
const (
	LabelBack         = "Back"
	LabelForward      = "Forward"
	LabelReload       = "Reload"
	LabelOpenExternal = "Open Link in External Browser"
	LabelCopy         = "Copy"
	LabelViewSource   = "View Source"
	LabelInspect      = "Inspect Element"
)

// Caps describes what the page under the cursor allows.
type Caps struct {
	CanBack       bool   `json:"canBack"`
	CanForward    bool   `json:"canForward"`
	CanReload     bool   `json:"canReload"`
	LinkURL       string `json:"linkUrl,omitempty"`
	SelectedText  string `json:"selectedText,omitempty"`
	CanViewSource bool   `json:"canViewSource"`
	CanInspect    bool   `json:"canInspect"`
}

// Entry is one row of the menu. Arg carries the link URL or selected text.
type Entry struct {
	Label   string `json:"label,omitempty"`
	Enabled bool   `json:"enabled"`
	Action  Action `json:"action"`
	Arg     string `json:"arg,omitempty"`
}

// IsSeparator reports whether e is a separator.
func (e Entry) IsSeparator() bool { return e.Action == ActionSeparator }

var separator = Entry{Action: ActionSeparator}

// Build returns the menu for caps. Separators only ever sit between two
// non-empty groups. A nil result means the platform's default menu should be
// used instead.
func Build(caps Caps) []Entry {
	var entries []Entry

	if caps.CanBack {
		entries = append(entries, entry(LabelBack, ActionBack, ""))
	}
	if caps.CanForward {
		entries = append(entries, entry(LabelForward, ActionForward, ""))
	}
	if caps.CanReload {
		entries = append(entries, entry(LabelReload, ActionReload, ""))
	}

	hasLink := caps.LinkURL != ""
	hasSelection := caps.SelectedText != ""

	if len(entries) > 0 && (hasLink || hasSelection) {
		entries = append(entries, separator)
	}
	if hasLink {
		entries = append(entries, entry(LabelOpenExternal, ActionOpenExternal, caps.LinkURL))
	}
	if hasSelection {
		entries = append(entries, entry(LabelCopy, ActionCopy, caps.SelectedText))
	}

	if caps.CanViewSource {
		if len(entries) > 0 {
			entries = append(entries, separator)
		}
		entries = append(entries, entry(LabelViewSource, ActionViewSource, ""))
	}

	if caps.CanInspect {
		if len(entries) > 0 {
			entries = append(entries, separator)
		}
		entries = append(entries, entry(LabelInspect, ActionInspect, ""))
	}

	return entries
}

func entry(label string, action Action, arg string) Entry {
	return Entry{Label: label, Enabled: true, Action: action, Arg: arg}
}
