package controller

import (
	"log"

	"github.com/csheth/chromaseek/internal/prefs"
)

// themeLabel names the mode the toggle switches to.
func themeLabel(dark bool) string {
	if dark {
		return "Light"
	}
	return "Dark"
}

// RestoreTheme applies the stored preference. Missing or unreadable values
// leave the light theme.
func (c *Controller) RestoreTheme() {
	dark := false
	if c.prefs != nil {
		value, ok, err := c.prefs.Get(prefs.ThemeKey)
		if err != nil {
			log.Printf("[controller] read theme preference: %v", err)
		}
		dark = ok && value == prefs.ThemeDark
	}
	c.view.update(func(r *Regions) {
		r.Dark = dark
		r.ThemeLabel = themeLabel(dark)
	})
}

// ToggleTheme flips the display mode and persists it.
func (c *Controller) ToggleTheme() {
	var dark bool
	c.view.update(func(r *Regions) {
		r.Dark = !r.Dark
		r.ThemeLabel = themeLabel(r.Dark)
		dark = r.Dark
	})
	if c.prefs == nil {
		return
	}
	value := prefs.ThemeLight
	if dark {
		value = prefs.ThemeDark
	}
	if err := c.prefs.Set(prefs.ThemeKey, value); err != nil {
		log.Printf("[controller] persist theme preference: %v", err)
	}
}
