package parse

import "strings"

// ParsePackages reads `pm list packages` output. Lines look like
// "package:com.example.app"; with -f they look like
// "package:/data/app/.../base.apk=com.example.app" and the name after the
// last '=' is kept. Blank lines and noise are skipped.
func ParsePackages(out string) []string {
	var pkgs []string
	for _, ln := range strings.Split(out, "\n") {
		ln = strings.TrimSpace(ln)
		name, ok := strings.CutPrefix(ln, "package:")
		if !ok {
			continue
		}
		if eq := strings.LastIndex(name, "="); eq >= 0 && eq+1 < len(name) {
			name = name[eq+1:]
		}
		if name = strings.TrimSpace(name); name != "" {
			pkgs = append(pkgs, name)
		}
	}
	return pkgs
}

// PackageInfo holds the version block of `dumpsys package <pkg>`.
type PackageInfo struct {
	Package     string
	VersionName string
	VersionCode string
	Installed   string
	Updated     string
}

// ParsePackageInfo picks versionName, versionCode, firstInstallTime and
// lastUpdateTime from `dumpsys package <pkg>`. The first occurrence wins.
func ParsePackageInfo(pkg, out string) PackageInfo {
	info := PackageInfo{Package: pkg}
	set := func(dst *string, v string) {
		if *dst == "" {
			*dst = strings.TrimSpace(v)
		}
	}
	for _, ln := range strings.Split(out, "\n") {
		s := strings.TrimSpace(ln)
		switch {
		case strings.HasPrefix(s, "versionName="):
			set(&info.VersionName, strings.TrimPrefix(s, "versionName="))
		case strings.HasPrefix(s, "versionCode="):
			code := strings.TrimPrefix(s, "versionCode=")
			if f := strings.Fields(code); len(f) > 0 {
				set(&info.VersionCode, f[0])
			}
		case strings.HasPrefix(s, "firstInstallTime="):
			set(&info.Installed, strings.TrimPrefix(s, "firstInstallTime="))
		case strings.HasPrefix(s, "lastUpdateTime="):
			set(&info.Updated, strings.TrimPrefix(s, "lastUpdateTime="))
		}
	}
	return info
}

// Permission is one requested permission and whether it is granted.
type Permission struct {
	Name    string
	Granted bool
}

// ParsePermissions reads the permission sections of `dumpsys package <pkg>`:
//
//	requested permissions:
//	  android.permission.INTERNET
//	install permissions:
//	  android.permission.INTERNET: granted=true
//	runtime permissions:
//	  android.permission.CAMERA: granted=false, flags=[ ...]
//
// Requested permissions are returned in order, each marked with the grant
// state found in the install/runtime sections (false when absent).
func ParsePermissions(out string) []Permission {
	const (
		sectionNone = iota
		sectionRequested
		sectionGrants
	)
	var requested []string
	seen := make(map[string]bool)
	granted := make(map[string]bool)
	section := sectionNone
	for _, ln := range strings.Split(out, "\n") {
		s := strings.TrimSpace(ln)
		lower := strings.ToLower(s)
		switch {
		case s == "":
			continue
		case strings.HasSuffix(lower, "requested permissions:"):
			section = sectionRequested
			continue
		case strings.HasSuffix(lower, "install permissions:"), strings.HasSuffix(lower, "runtime permissions:"):
			section = sectionGrants
			continue
		case strings.HasSuffix(s, ":") && !strings.Contains(s, "."):
			section = sectionNone
			continue
		}
		switch section {
		case sectionRequested:
			name := strings.TrimRight(strings.Fields(s)[0], ",:")
			if !looksLikePermission(name) {
				section = sectionNone
				continue
			}
			if !seen[name] {
				seen[name] = true
				requested = append(requested, name)
			}
		case sectionGrants:
			name, rest, ok := strings.Cut(s, ":")
			if !ok || !looksLikePermission(name) {
				section = sectionNone
				continue
			}
			if strings.Contains(rest, "granted=true") {
				granted[name] = true
			}
		}
	}
	perms := make([]Permission, 0, len(requested))
	for _, name := range requested {
		perms = append(perms, Permission{Name: name, Granted: granted[name]})
	}
	return perms
}

func looksLikePermission(s string) bool {
	return strings.Count(s, ".") >= 1 && !strings.ContainsAny(s, " =")
}
