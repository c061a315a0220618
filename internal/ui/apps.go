package ui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"adboss/internal/adb"
	"adboss/internal/parse"
)

// buildApplicationsTab lists installed packages and acts on the selected one.
func buildApplicationsTab(p *panel) fyne.CanvasObject {
	var (
		all      []string
		shown    []string
		selected string
	)
	search := widget.NewEntry()
	search.SetPlaceHolder(T("search"))
	count := widget.NewLabel("")

	list := widget.NewList(
		func() int { return len(shown) },
		func() fyne.CanvasObject { return widget.NewLabel("com.example.package") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i >= 0 && i < len(shown) {
				o.(*widget.Label).SetText(shown[i])
			}
		},
	)
	list.OnSelected = func(id widget.ListItemID) {
		if id >= 0 && id < len(shown) {
			selected = shown[id]
		}
	}

	applySearch := func() {
		q := strings.ToLower(strings.TrimSpace(search.Text))
		shown = shown[:0]
		for _, pkg := range all {
			if q == "" || strings.Contains(strings.ToLower(pkg), q) {
				shown = append(shown, pkg)
			}
		}
		selected = ""
		list.UnselectAll()
		list.Refresh()
		count.SetText(fmt.Sprintf("%s: %d", T("packages_count"), len(shown)))
	}
	search.OnChanged = func(string) { applySearch() }

	category := widget.NewRadioGroup([]string{T("user_apps"), T("system_apps")}, nil)
	category.Horizontal = true
	category.SetSelected(T("user_apps"))

	load := func() {
		if !p.requireDevice() {
			return
		}
		includeSystem := category.Selected == T("system_apps")
		submit(p, "packages", func(ctx context.Context) ([]string, error) {
			return p.gw.Packages(ctx, includeSystem), nil
		}, func(pkgs []string, _ error) {
			sort.Strings(pkgs)
			all = pkgs
			shown = make([]string, 0, len(pkgs))
			applySearch()
		})
	}
	category.OnChanged = func(string) { load() }

	// onPackage runs an action against the selected package.
	onPackage := func(title string, call func(ctx context.Context, pkg string) adb.CommandResult, reload bool) func() {
		return func() {
			if selected == "" {
				dialog.ShowInformation(title, T("please_select_at_least_one_app"), p.w)
				return
			}
			pkg := selected
			p.command(title+" "+pkg, func(ctx context.Context) adb.CommandResult {
				return call(ctx, pkg)
			}, func(adb.CommandResult) {
				if reload {
					load()
				}
			})
		}
	}
	confirm := func(title string, action func()) func() {
		return func() {
			if selected == "" {
				dialog.ShowInformation(title, T("please_select_at_least_one_app"), p.w)
				return
			}
			dialog.ShowConfirm(title, fmt.Sprintf("%s %s?", title, selected), func(ok bool) {
				if ok {
					action()
				}
			}, p.w)
		}
	}

	keepData := widget.NewCheck(T("keep_data"), nil)
	uninstall := onPackage(T("uninstall"), func(ctx context.Context, pkg string) adb.CommandResult {
		return p.gw.Uninstall(ctx, pkg, keepData.Checked)
	}, true)
	enable := onPackage(T("enable"), func(ctx context.Context, pkg string) adb.CommandResult {
		return p.gw.SetAppEnabled(ctx, pkg, true)
	}, false)
	disable := onPackage(T("disable"), func(ctx context.Context, pkg string) adb.CommandResult {
		return p.gw.SetAppEnabled(ctx, pkg, false)
	}, false)

	installBtn := widget.NewButton(T("install_apk"), func() {
		if !p.requireDevice() {
			return
		}
		dialog.ShowFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil || rc == nil {
				return
			}
			apk := rc.URI().Path()
			_ = rc.Close()
			p.command(T("install_apk"), func(ctx context.Context) adb.CommandResult {
				return p.gw.Install(ctx, apk)
			}, func(adb.CommandResult) { load() })
		}, p.w)
	})

	p.onDeviceChange(func(serial string) {
		all, shown, selected = nil, nil, ""
		list.UnselectAll()
		list.Refresh()
		if serial != "" {
			load()
		}
	})

	actions := container.NewGridWithColumns(4,
		widget.NewButton(T("launch"), onPackage(T("launch"), p.gw.Launch, false)),
		widget.NewButton(T("force_stop"), onPackage(T("force_stop"), p.gw.ForceStop, false)),
		widget.NewButton(T("clear_data"), confirm(T("clear_data"), onPackage(T("clear_data"), p.gw.ClearData, false))),
		widget.NewButton(T("uninstall"), confirm(T("uninstall"), uninstall)),
		widget.NewButton(T("enable"), enable),
		widget.NewButton(T("disable"), confirm(T("disable"), disable)),
		widget.NewButton(T("details"), func() { openPackageDialog(p, selected) }),
		installBtn,
	)
	top := container.NewVBox(
		container.NewBorder(nil, nil, category, widget.NewButton(T("refresh"), load), search),
		count,
	)
	bottom := container.NewVBox(keepData, actions)
	return container.NewBorder(top, bottom, nil, nil, list)
}

type packageDetails struct {
	info  parse.PackageInfo
	perms []parse.Permission
}

// openPackageDialog shows version data and the permission list of pkg, with
// a toggle per runtime permission.
func openPackageDialog(p *panel, pkg string) {
	if pkg == "" {
		dialog.ShowInformation(T("details"), T("please_select_at_least_one_app"), p.w)
		return
	}
	if !p.requireDevice() {
		return
	}
	submit(p, "package-info", func(ctx context.Context) (packageDetails, error) {
		return packageDetails{
			info:  p.gw.PackageInfo(ctx, pkg),
			perms: p.gw.Permissions(ctx, pkg),
		}, nil
	}, func(d packageDetails, _ error) {
		form := widget.NewForm(
			widget.NewFormItem(T("version"), widget.NewLabel(d.info.VersionName+" ("+d.info.VersionCode+")")),
			widget.NewFormItem(T("installed"), widget.NewLabel(d.info.Installed)),
			widget.NewFormItem(T("updated"), widget.NewLabel(d.info.Updated)),
		)
		perms := container.NewVBox()
		for _, perm := range d.perms {
			perm := perm
			check := widget.NewCheck(strings.TrimPrefix(perm.Name, "android.permission."), nil)
			check.SetChecked(perm.Granted)
			check.OnChanged = func(grant bool) {
				p.command(T("permissions"), func(ctx context.Context) adb.CommandResult {
					return p.gw.SetPermission(ctx, pkg, perm.Name, grant)
				}, nil)
			}
			perms.Add(check)
		}
		scroll := container.NewVScroll(perms)
		scroll.SetMinSize(fyne.NewSize(420, 280))
		content := container.NewBorder(form, nil, nil, nil,
			widget.NewCard(T("permissions"), fmt.Sprintf("%d", len(d.perms)), scroll))
		dialog.ShowCustom(pkg, T("close"), content, p.w)
	})
}
