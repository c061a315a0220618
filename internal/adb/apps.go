package adb

import (
	"context"
	"time"

	"adboss/internal/parse"
)

// Packages lists third-party packages, or every package when includeSystem
// is set.
func (g *Gateway) Packages(ctx context.Context, includeSystem bool) []string {
	args := []string{"pm", "list", "packages"}
	if !includeSystem {
		args = append(args, "-3")
	}
	return parse.ParsePackages(g.shell(ctx, "packages", 0, args...).Stdout)
}

func (g *Gateway) PackageInfo(ctx context.Context, pkg string) parse.PackageInfo {
	return parse.ParsePackageInfo(pkg, g.shell(ctx, "package-info", 0, "dumpsys", "package", pkg).Stdout)
}

func (g *Gateway) Permissions(ctx context.Context, pkg string) []parse.Permission {
	return parse.ParsePermissions(g.shell(ctx, "permissions", 0, "dumpsys", "package", pkg).Stdout)
}

// Install installs (or reinstalls) a local APK.
func (g *Gateway) Install(ctx context.Context, apk string) CommandResult {
	return g.Execute(ctx, CommandSpec{
		Name:    "install",
		Args:    []string{"install", "-r", apk},
		Timeout: 120 * time.Second,
		Device:  true,
	})
}

// Uninstall removes pkg, optionally keeping its data and cache.
func (g *Gateway) Uninstall(ctx context.Context, pkg string, keepData bool) CommandResult {
	args := []string{"uninstall"}
	if keepData {
		args = append(args, "-k")
	}
	args = append(args, pkg)
	return g.Execute(ctx, CommandSpec{Name: "uninstall", Args: args, Timeout: 30 * time.Second, Device: true})
}

func (g *Gateway) ForceStop(ctx context.Context, pkg string) CommandResult {
	return g.shell(ctx, "force-stop", 0, "am", "force-stop", pkg)
}

func (g *Gateway) ClearData(ctx context.Context, pkg string) CommandResult {
	return g.shell(ctx, "clear-data", 0, "pm", "clear", pkg)
}

// SetAppEnabled enables pkg or disables it for user 0.
func (g *Gateway) SetAppEnabled(ctx context.Context, pkg string, enabled bool) CommandResult {
	if enabled {
		return g.shell(ctx, "enable-app", 0, "pm", "enable", pkg)
	}
	return g.shell(ctx, "disable-app", 0, "pm", "disable-user", "--user", "0", pkg)
}

// SetPermission grants or revokes a runtime permission.
func (g *Gateway) SetPermission(ctx context.Context, pkg, permission string, grant bool) CommandResult {
	verb := "revoke"
	if grant {
		verb = "grant"
	}
	return g.shell(ctx, "permission-"+verb, 0, "pm", verb, pkg, permission)
}

// Launch starts the launcher activity of pkg.
func (g *Gateway) Launch(ctx context.Context, pkg string) CommandResult {
	return g.shell(ctx, "launch", 0, "monkey", "-p", pkg, "-c", "android.intent.category.LAUNCHER", "1")
}
