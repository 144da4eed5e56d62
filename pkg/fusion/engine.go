// Package fusion 将无障碍树、OCR 和像素分析三层结果融合为一个去重、编号的元素列表
//
// 无障碍树结果作为基准；OCR 与像素分析只做印证或补缺，
// 匹配阈值较宽，升级为新元素的阈值较严。
package fusion

import (
	"math"
	"sort"

	"github.com/samber/lo"

	"github.com/zoeyai/elementmap/internal/logger"
	"github.com/zoeyai/elementmap/pkg/element"
)

// Stats 一次融合的统计
type Stats struct {
	AccessibilityIn int
	OcrIn           int
	VisualIn        int
	OcrMatched      int
	OcrPromoted     int
	VisualMatched   int
	VisualAdded     int
	Merged          int
	SyntheticOut    int
}

// Engine 融合引擎，无状态，可并发使用
type Engine struct {
	opts Options
}

// New 创建融合引擎
func New(opts ...Option) *Engine {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{opts: o}
}

// Options 返回当前参数
func (e *Engine) Options() Options {
	return e.opts
}

// Fuse 融合三层检测结果，输入切片不会被修改
func (e *Engine) Fuse(tier1 []element.DetectedElement, regions []element.TextRegion, visuals []element.VisualElement) ([]element.DetectedElement, Stats) {
	stats := Stats{
		AccessibilityIn: len(tier1),
		OcrIn:           len(regions),
		VisualIn:        len(visuals),
	}

	// 1. 以无障碍树结果为种子
	fused := make([]element.DetectedElement, len(tier1), len(tier1)+len(regions)+len(visuals))
	copy(fused, tier1)

	// 2. OCR 匹配
	var unmatched []element.TextRegion
	for _, region := range regions {
		if idx := e.bestTextMatch(fused, region); idx >= 0 {
			e.confirm(&fused[idx], element.SourceOcr)
			if fused[idx].Name == "" {
				fused[idx].Name = region.Text
			}
			stats.OcrMatched++
			continue
		}
		unmatched = append(unmatched, region)
	}

	// 3. 未匹配的 OCR 区域升级为合成元素，整行先于单词尝试，成功的行会压住其中的单词
	sort.SliceStable(unmatched, func(i, j int) bool {
		return unmatched[i].Granularity == element.GranularityLine &&
			unmatched[j].Granularity != element.GranularityLine
	})
	for _, region := range unmatched {
		if !e.canPromote(fused, region) {
			continue
		}
		fused = append(fused, element.DetectedElement{
			Type:           guessType(region.Text),
			Name:           region.Text,
			Bounds:         region.Bounds.Expand(e.opts.PadX, e.opts.PadY),
			IsEnabled:      true,
			IsInteractable: true,
			Sources:        element.SourceOcr,
			Confidence:     clamp01(region.Confidence * e.opts.OcrConfidenceScale),
		})
		stats.OcrPromoted++
	}

	// 4. 像素分析
	for _, v := range visuals {
		if idx := e.bestOverlap(fused, v.Bounds, e.opts.VisualMatchIoU); idx >= 0 {
			e.confirm(&fused[idx], element.SourcePixelAnalysis)
			stats.VisualMatched++
			continue
		}
		fused = append(fused, element.DetectedElement{
			Type:           v.Type,
			Bounds:         v.Bounds,
			IsEnabled:      true,
			IsInteractable: true,
			Sources:        element.SourcePixelAnalysis,
			Confidence:     clamp01(v.Confidence * e.opts.VisualConfidenceScale),
		})
		stats.VisualAdded++
	}

	// 5. 全局去重
	var merged int
	fused, merged = e.dedup(fused)
	stats.Merged = merged

	// 6. 编号
	for i := range fused {
		fused[i].ID = i + 1
	}

	stats.SyntheticOut = lo.CountBy(fused, func(el element.DetectedElement) bool {
		return el.IsSynthetic()
	})
	logger.Debug("融合完成: 输入 %d/%d/%d, OCR 匹配 %d, 合成 %d, 视觉匹配 %d, 视觉新增 %d, 去重合并 %d, 输出 %d",
		stats.AccessibilityIn, stats.OcrIn, stats.VisualIn,
		stats.OcrMatched, stats.OcrPromoted, stats.VisualMatched, stats.VisualAdded, stats.Merged, len(fused))
	return fused, stats
}

// ==================== 内部函数 ====================

// matchScore OCR 区域与元素的匹配分，不满足候选条件时返回 false
func (e *Engine) matchScore(el element.DetectedElement, region element.TextRegion) (float64, bool) {
	iou := el.Bounds.IoU(region.Bounds)
	dist := el.Bounds.CenterDistance(region.Bounds)
	c := region.Bounds.Center()

	if iou <= e.opts.MatchIoU && dist >= e.opts.MatchDistance && !el.Bounds.Contains(c.X, c.Y) {
		return 0, false
	}

	proximity := 1 - math.Min(dist, e.opts.MaxDistance)/e.opts.MaxDistance
	score := e.opts.IoUWeight*iou +
		e.opts.TextWeight*TextSimilarity(region.Text, el.Name) +
		e.opts.DistanceWeight*proximity
	return score, true
}

// bestTextMatch 返回得分最高且超过阈值的元素下标，没有时返回 -1
func (e *Engine) bestTextMatch(fused []element.DetectedElement, region element.TextRegion) int {
	best := -1
	bestScore := e.opts.MatchScore
	for i := range fused {
		score, ok := e.matchScore(fused[i], region)
		if !ok {
			continue
		}
		if score > bestScore {
			best = i
			bestScore = score
		}
	}
	return best
}

// bestOverlap 返回 IoU 最大且超过阈值的元素下标，没有时返回 -1
func (e *Engine) bestOverlap(fused []element.DetectedElement, bounds element.BoundingRect, threshold float64) int {
	best := -1
	bestIoU := threshold
	for i := range fused {
		if iou := fused[i].Bounds.IoU(bounds); iou > bestIoU {
			best = i
			bestIoU = iou
		}
	}
	return best
}

// canPromote 判断未匹配的 OCR 区域能否成为合成元素
func (e *Engine) canPromote(fused []element.DetectedElement, region element.TextRegion) bool {
	n := wordCount(region.Text)
	if n == 0 || n > e.opts.PromoteMaxWords {
		return false
	}
	c := region.Bounds.Center()
	for i := range fused {
		if fused[i].Bounds.IoU(region.Bounds) > e.opts.PromoteOverlapIoU {
			return false
		}
		if fused[i].Bounds.Contains(c.X, c.Y) {
			return false
		}
	}
	return true
}

// confirm 被其它层印证：合并来源位并提升置信度
func (e *Engine) confirm(el *element.DetectedElement, src element.Source) {
	el.Sources |= src
	el.Confidence = clamp01(el.Confidence + e.opts.ConfirmBoost)
}

// dedup 按置信度降序去重，被丢弃元素的来源位合并到保留的元素上
//
// 无障碍树元素不会被丢弃。
func (e *Engine) dedup(fused []element.DetectedElement) ([]element.DetectedElement, int) {
	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Confidence > fused[j].Confidence
	})

	kept := make([]element.DetectedElement, 0, len(fused))
	merged := 0
	for _, el := range fused {
		if !el.Sources.Has(element.SourceAccessibility) {
			if idx := e.bestOverlap(kept, el.Bounds, e.opts.DedupIoU); idx >= 0 {
				kept[idx].Sources |= el.Sources
				merged++
				continue
			}
		}
		kept = append(kept, el)
	}
	return kept, merged
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
