package fusion

import (
	"strings"

	"github.com/zoeyai/elementmap/pkg/element"
)

// 常见按钮文字
var buttonWords = map[string]bool{
	"ok": true, "cancel": true, "save": true, "save as": true, "apply": true,
	"close": true, "yes": true, "no": true, "submit": true, "send": true,
	"next": true, "back": true, "previous": true, "finish": true, "open": true,
	"delete": true, "remove": true, "add": true, "continue": true, "done": true,
	"search": true, "login": true, "log in": true, "sign in": true, "sign up": true,
	"retry": true, "browse": true, "install": true, "confirm": true, "accept": true,
	"decline": true, "skip": true, "start": true, "stop": true, "reset": true,
	"确定": true, "取消": true, "保存": true, "应用": true, "关闭": true,
	"是": true, "否": true, "提交": true, "发送": true, "下一步": true,
	"上一步": true, "完成": true, "打开": true, "删除": true, "添加": true,
	"搜索": true, "登录": true, "注册": true, "重试": true, "浏览": true,
}

// 常见菜单栏文字
var menuWords = map[string]bool{
	"file": true, "edit": true, "view": true, "help": true, "tools": true,
	"window": true, "format": true, "insert": true, "options": true, "settings": true,
	"selection": true, "go": true, "run": true, "terminal": true, "project": true,
	"build": true, "debug": true, "navigate": true, "code": true, "history": true,
	"bookmarks": true, "image": true, "layer": true, "select": true, "filter": true,
	"文件": true, "编辑": true, "视图": true, "帮助": true, "工具": true,
	"窗口": true, "格式": true, "插入": true, "选项": true, "设置": true,
}

// guessType 根据文字猜测合成元素类型
func guessType(text string) string {
	key := strings.Trim(normalizeText(text), " .…:：&*")
	key = strings.ReplaceAll(key, "&", "")
	switch {
	case buttonWords[key]:
		return element.TypeButton
	case menuWords[key]:
		return element.TypeMenuItem
	default:
		return element.TypeText
	}
}
