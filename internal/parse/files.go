package parse

import (
	"regexp"
	"strconv"
	"strings"
)

// RemoteFile is one entry of a device directory listing.
type RemoteFile struct {
	Name    string
	IsDir   bool
	Size    int64  // bytes, best effort
	Mode    string // e.g. drwxrwx--x
	ModTime string // date/time text as printed, may vary by ROM
}

// ParseLsLong reads `ls -la` style output (toybox or busybox):
// perms links owner group size date time name. "total N", "." and ".." are
// skipped. Rows that do not have enough columns are kept by name only.
func ParseLsLong(out string) []RemoteFile {
	var list []RemoteFile
	for _, ln := range strings.Split(out, "\n") {
		line := strings.TrimSpace(ln)
		if line == "" || strings.HasPrefix(line, "total ") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 6 {
			name := strings.TrimSuffix(line, "/")
			if name == "" || name == "." || name == ".." {
				continue
			}
			list = append(list, RemoteFile{Name: name, IsDir: strings.HasSuffix(line, "/")})
			continue
		}
		mode := fields[0]
		nameIdx := len(fields) - 1
		if strings.HasPrefix(mode, "l") {
			// symlink: "name -> target"
			for i, f := range fields {
				if f == "->" && i > 0 {
					nameIdx = i - 1
					break
				}
			}
		}
		// toybox: perms links owner group size date time name
		sizeIdx := -1
		if len(fields) >= 8 {
			sizeIdx = 4
		} else {
			for i := 1; i < nameIdx; i++ {
				if _, err := strconv.ParseInt(fields[i], 10, 64); err == nil {
					sizeIdx = i
				}
			}
		}
		var size int64
		if sizeIdx >= 0 && sizeIdx < nameIdx {
			size, _ = strconv.ParseInt(fields[sizeIdx], 10, 64)
		}
		name := strings.TrimSuffix(fields[nameIdx], "/")
		if len(fields) >= 8 && nameIdx > 7 && !strings.HasPrefix(mode, "l") {
			// file names with spaces
			name = strings.TrimSuffix(strings.Join(fields[7:], " "), "/")
		}
		if name == "" || name == "." || name == ".." {
			continue
		}
		modTime := ""
		if nameIdx >= 7 {
			modTime = fields[5] + " " + fields[6]
		}
		list = append(list, RemoteFile{
			Name:    name,
			IsDir:   strings.HasPrefix(mode, "d"),
			Size:    size,
			Mode:    mode,
			ModTime: modTime,
		})
	}
	return list
}

var (
	progressPattern = regexp.MustCompile(`\[\s*(\d{1,3})%\]`)
	transferPattern = regexp.MustCompile(`\((\d+) bytes in [\d.]+s\)`)
)

// ParseProgress extracts the percentage from an adb push/pull progress line
// ("[ 45%] /sdcard/file.bin").
func ParseProgress(line string) (int, bool) {
	m := progressPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	p, err := strconv.Atoi(m[1])
	if err != nil || p > 100 {
		return 0, false
	}
	return p, true
}

// ParseTransferBytes extracts the byte count from the summary adb prints when
// a transfer finishes ("1 file pushed. 35.2 MB/s (1234567 bytes in 0.033s)").
func ParseTransferBytes(line string) (int64, bool) {
	m := transferPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
