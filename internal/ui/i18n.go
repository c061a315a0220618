package ui

import (
	"os"
	"strings"
	"sync"
)

// Language is a UI translation.
type Language string

const (
	English Language = "en"
	Chinese Language = "zh"
)

var (
	langMu  sync.RWMutex
	current = detectSystemLanguage()
)

// detectSystemLanguage reads the usual locale variables and falls back to
// English.
func detectSystemLanguage() Language {
	for _, v := range []string{"LC_ALL", "LANGUAGE", "LANG"} {
		lang := strings.ToLower(os.Getenv(v))
		if lang == "" {
			continue
		}
		if strings.HasPrefix(lang, "zh") {
			return Chinese
		}
		return English
	}
	return English
}

// SetLanguage switches the UI language. An empty or unknown value selects
// the system language. Widgets built before the switch keep their text.
func SetLanguage(lang Language) {
	if _, ok := translations[lang]; !ok {
		lang = detectSystemLanguage()
	}
	langMu.Lock()
	current = lang
	langMu.Unlock()
}

// GetLanguage returns the active language.
func GetLanguage() Language {
	langMu.RLock()
	defer langMu.RUnlock()
	return current
}

// T translates key, falling back to English and then to the key itself.
func T(key string) string {
	if s, ok := translations[GetLanguage()][key]; ok {
		return s
	}
	if s, ok := translations[English][key]; ok {
		return s
	}
	return key
}

var translations = map[Language]map[string]string{
	English: {
		// window
		"about":             "About",
		"about_description": "adboss: an Android Debug Bridge control panel.",
		"applications":      "Applications",
		"controls":          "Controls",
		"dashboard":         "Dashboard",
		"devices":           "Devices",
		"file":              "File",
		"files":             "Files",
		"help":              "Help",
		"logcat":            "Logcat",
		"settings":          "Settings",
		"shell":             "Shell",

		// common
		"apply":                    "Apply",
		"busy":                     "Busy",
		"cancel":                   "Cancel",
		"clear":                    "Clear",
		"close":                    "Close",
		"command_failed":           "Command failed",
		"details":                  "Details",
		"done":                     "done",
		"export":                   "Export",
		"items":                    "items",
		"no_device":                "No device",
		"open":                     "Open",
		"please_select_device":     "Please select a device.",
		"device_not_ready":         "Device is not ready",
		"device_not_responding":    "Device not responding",
		"refresh":                  "Refresh",
		"reset":                    "Reset",
		"run":                      "Run",
		"save":                     "Save",
		"saved":                    "Saved",
		"search":                   "Search",
		"send":                     "Send",
		"start":                    "Start",
		"stop":                     "Stop",
		"timed_out":                "Timed out",
		"adb_not_found":            "ADB not found",
		"adb_not_detected":         "ADB was not detected. Set its location under File > Settings.",
		"invalid_number":           "enter a positive whole number",
		"settings_saved":           "Settings saved.",
		"confirm_reboot":           "Reboot the selected device?",
		"transfer_running":         "A transfer is already running.",
		"backup_confirm_on_device": "Confirm the backup on the device screen.",

		// dashboard
		"battery":       "Battery",
		"display":       "Display",
		"memory":        "Memory",
		"network":       "Network",
		"reset_battery": "Reset battery",
		"set_battery":   "Set battery level",
		"storage":       "Storage",
		"top_processes": "Top processes",
		"updated":       "Updated",
		"uptime":        "Uptime",

		// logcat
		"auto_scroll":    "Auto-scroll",
		"lines":          "lines",
		"lines_exported": "lines exported to",
		"min_level":      "Minimum level",
		"pause":          "Pause",
		"tag":            "Tag",

		// shell
		"reboot":            "Reboot",
		"reboot_bootloader": "Reboot to bootloader",
		"reboot_recovery":   "Reboot to recovery",
		"shell_placeholder": "Shell command, Up/Down for history",

		// files
		"download":            "Download",
		"path":                "Path:",
		"please_select_files": "Select a file in the list first.",
		"recording_saved":     "Recording saved on device:",
		"screenshot":          "Screenshot",
		"screenshot_saved":    "Screenshot saved to",
		"start_recording":     "Record screen",
		"stop_recording":      "Stop recording",
		"up":                  "Up",
		"upload":              "Upload…",

		// applications
		"clear_data":                     "Clear data",
		"disable":                        "Disable",
		"enable":                         "Enable",
		"force_stop":                     "Force stop",
		"install_apk":                    "Install APK…",
		"installed":                      "Installed",
		"keep_data":                      "Keep data on uninstall",
		"launch":                         "Launch",
		"packages_count":                 "Packages",
		"permissions":                    "Permissions",
		"please_select_at_least_one_app": "Select an application first.",
		"system_apps":                    "System apps",
		"uninstall":                      "Uninstall",
		"user_apps":                      "User apps",
		"version":                        "Version",

		// controls
		"airplane_mode":  "Airplane mode",
		"alarm_volume":   "Alarm volume",
		"backup":         "Backup…",
		"brightness":     "Brightness",
		"do_not_disturb": "Do not disturb",
		"gpu_overdraw":   "GPU overdraw",
		"include_apks":   "Include APKs",
		"input":          "Input",
		"layout_bounds":  "Layout bounds",
		"lock_screen":    "Lock",
		"media_volume":   "Media volume",
		"ring_volume":    "Ring volume",
		"screen":         "Screen",
		"screen_off":     "Screen off",
		"screen_on":      "Screen on",
		"screen_timeout": "Screen timeout",
		"swipe":          "Swipe",
		"system":         "System",
		"tap":            "Tap",
		"text_to_type":   "Text to type on the device",
		"type_text":      "Type",

		// settings
		"adb_path":                  "ADB path",
		"adb_path_placeholder":      "Path to the adb executable",
		"browse":                    "Browse…",
		"could_not_auto_detect_adb": "Could not find adb automatically.",
		"dark":                      "Dark",
		"detect":                    "Detect",
		"device_poll_interval":      "Device poll interval (ms)",
		"language":                  "Language",
		"light":                     "Light",
		"logcat_ceiling_factor":     "Logcat ceiling while browsing (× max lines)",
		"logcat_flush_interval":     "Logcat flush interval (ms)",
		"logcat_max_lines":          "Logcat max lines",
		"refresh_interval":          "Dashboard refresh interval (ms)",
		"shell_history_max":         "Shell history size",
		"theme_mode":                "Theme",
	},
	Chinese: {
		"about":             "关于",
		"about_description": "adboss：Android 调试桥控制面板。",
		"applications":      "应用程序",
		"controls":          "控制",
		"dashboard":         "仪表盘",
		"devices":           "设备",
		"file":              "文件",
		"files":             "文件",
		"help":              "帮助",
		"logcat":            "日志",
		"settings":          "设置",
		"shell":             "终端",

		"apply":                    "应用",
		"busy":                     "忙碌",
		"cancel":                   "取消",
		"clear":                    "清空",
		"close":                    "关闭",
		"command_failed":           "命令失败",
		"details":                  "详情",
		"done":                     "完成",
		"export":                   "导出",
		"items":                    "项",
		"no_device":                "无设备",
		"open":                     "打开",
		"please_select_device":     "请选择设备。",
		"device_not_ready":         "设备未就绪",
		"device_not_responding":    "设备无响应",
		"refresh":                  "刷新",
		"reset":                    "重置",
		"run":                      "运行",
		"save":                     "保存",
		"saved":                    "已保存",
		"search":                   "搜索",
		"send":                     "发送",
		"start":                    "开始",
		"stop":                     "停止",
		"timed_out":                "超时",
		"adb_not_found":            "未找到 ADB",
		"adb_not_detected":         "未检测到 ADB，请在 文件 > 设置 中配置路径。",
		"invalid_number":           "请输入正整数",
		"settings_saved":           "设置已保存。",
		"confirm_reboot":           "重启所选设备？",
		"transfer_running":         "已有传输正在进行。",
		"backup_confirm_on_device": "请在设备屏幕上确认备份。",

		"battery":       "电池",
		"display":       "显示",
		"memory":        "内存",
		"network":       "网络",
		"reset_battery": "重置电池",
		"set_battery":   "设置电量",
		"storage":       "存储",
		"top_processes": "进程占用",
		"updated":       "更新于",
		"uptime":        "运行时间",

		"auto_scroll":    "自动滚动",
		"lines":          "行",
		"lines_exported": "行已导出到",
		"min_level":      "最低级别",
		"pause":          "暂停",
		"tag":            "标签",

		"reboot":            "重启",
		"reboot_bootloader": "重启到Bootloader",
		"reboot_recovery":   "重启到Recovery",
		"shell_placeholder": "Shell 命令，上下键查看历史",

		"download":            "下载",
		"path":                "路径:",
		"please_select_files": "请先在列表中选择文件。",
		"recording_saved":     "录屏已保存在设备:",
		"screenshot":          "截图",
		"screenshot_saved":    "截图已保存到",
		"start_recording":     "录屏",
		"stop_recording":      "停止录屏",
		"up":                  "上级",
		"upload":              "上传…",

		"clear_data":                     "清除数据",
		"disable":                        "禁用",
		"enable":                         "启用",
		"force_stop":                     "强制停止",
		"install_apk":                    "安装APK…",
		"installed":                      "安装时间",
		"keep_data":                      "卸载时保留数据",
		"launch":                         "启动",
		"packages_count":                 "包数量",
		"permissions":                    "权限",
		"please_select_at_least_one_app": "请先选择一个应用。",
		"system_apps":                    "系统应用",
		"uninstall":                      "卸载",
		"user_apps":                      "用户应用",
		"version":                        "版本",

		"airplane_mode":  "飞行模式",
		"alarm_volume":   "闹钟音量",
		"backup":         "备份…",
		"brightness":     "亮度",
		"do_not_disturb": "勿扰模式",
		"gpu_overdraw":   "GPU过度绘制",
		"include_apks":   "包含APK",
		"input":          "输入",
		"layout_bounds":  "布局边界",
		"lock_screen":    "锁屏",
		"media_volume":   "媒体音量",
		"ring_volume":    "铃声音量",
		"screen":         "屏幕",
		"screen_off":     "关闭屏幕",
		"screen_on":      "点亮屏幕",
		"screen_timeout": "屏幕超时",
		"swipe":          "滑动",
		"system":         "系统",
		"tap":            "点击",
		"text_to_type":   "要输入到设备的文字",
		"type_text":      "输入",

		"adb_path":                  "ADB路径",
		"adb_path_placeholder":      "adb 可执行文件路径",
		"browse":                    "浏览…",
		"could_not_auto_detect_adb": "无法自动检测 adb。",
		"dark":                      "深色",
		"detect":                    "检测",
		"device_poll_interval":      "设备轮询间隔 (毫秒)",
		"language":                  "语言",
		"light":                     "浅色",
		"logcat_ceiling_factor":     "浏览时日志上限 (× 最大行数)",
		"logcat_flush_interval":     "日志刷新间隔 (毫秒)",
		"logcat_max_lines":          "日志最大行数",
		"refresh_interval":          "仪表盘刷新间隔 (毫秒)",
		"shell_history_max":         "终端历史条数",
		"theme_mode":                "主题",
	},
}
