package installer

import (
	"github.com/beevik/etree"
	"github.com/settle-sh/settle/pkg/errors"
)

// menuFragment renders the applications-merged menu fragment that places
// the .desktop entry under a Settle submenu.
func menuFragment(appName string) (string, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.CreateDirective(`DOCTYPE Menu PUBLIC "-//freedesktop//DTD Menu 1.0//EN" "http://www.freedesktop.org/standards/menu-spec/menu-1.0.dtd"`)

	menu := doc.CreateElement("Menu")
	menu.CreateElement("Name").SetText("Applications")

	sub := menu.CreateElement("Menu")
	sub.CreateElement("Name").SetText("Settle")
	include := sub.CreateElement("Include")
	include.CreateElement("Filename").SetText(appName + ".desktop")

	doc.Indent(2)
	out, err := doc.WriteToString()
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInternal, "cannot render menu fragment")
	}
	return out, nil
}
