package shell

import (
	goruntime "runtime"

	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/menu/keys"
)

// Menu labels.
const (
	MenuFile  = "File"
	MenuHelp  = "Help"
	MenuAbout = "About"
	MenuQuit  = "Quit"
)

// Menu returns the window's menu bar.
func (a *App) Menu() *menu.Menu {
	return a.buildMenu(goruntime.GOOS)
}

func (a *App) buildMenu(goos string) *menu.Menu {
	appMenu := menu.NewMenu()

	quit := func(_ *menu.CallbackData) { a.Quit() }
	about := func(_ *menu.CallbackData) { a.About() }

	if goos == "darwin" {
		app := appMenu.AddSubmenu(a.cfg.Window.Title)
		app.AddText(MenuAbout+" "+a.cfg.Window.Title, nil, about)
		app.AddSeparator()
		app.AddText(MenuQuit+" "+a.cfg.Window.Title, keys.CmdOrCtrl("q"), quit)
	} else {
		file := appMenu.AddSubmenu(MenuFile)
		file.AddText(MenuQuit, keys.CmdOrCtrl("q"), quit)
	}

	appMenu.Append(menu.EditMenu())
	if goos == "darwin" {
		appMenu.Append(menu.WindowMenu())
	}

	help := appMenu.AddSubmenu(MenuHelp)
	help.AddText(MenuAbout, nil, about)

	return appMenu
}
