package fusion

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// normalizeText 转小写并合并空白
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// TextSimilarity 计算两个文本的相似度，范围 [0,1]
//
// 相等为 1，任一为空为 0；否则取编辑距离相似度与包含关系长度比中的较大者。
func TextSimilarity(a, b string) float64 {
	a = normalizeText(a)
	b = normalizeText(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	la := utf8.RuneCountInString(a)
	lb := utf8.RuneCountInString(b)
	longer := max(la, lb)

	dist := levenshtein.ComputeDistance(a, b)
	sim := 1 - float64(dist)/float64(longer)
	if sim < 0 {
		sim = 0
	}

	if strings.Contains(a, b) || strings.Contains(b, a) {
		ratio := float64(min(la, lb)) / float64(longer)
		if ratio > sim {
			sim = ratio
		}
	}
	return sim
}

// wordCount 按空白切分的单词数
func wordCount(s string) int {
	return len(strings.Fields(s))
}
