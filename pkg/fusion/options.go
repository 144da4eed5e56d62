package fusion

// Options 融合参数，各阈值相互独立
type Options struct {
	// OCR 匹配打分权重
	IoUWeight      float64
	TextWeight     float64
	DistanceWeight float64
	// MaxDistance 距离项归一化上限（像素）
	MaxDistance float64

	// MatchIoU 参与打分的最小 IoU
	MatchIoU float64
	// MatchDistance 参与打分的最大中心距离（像素）
	MatchDistance float64
	// MatchScore 接受匹配的最低分
	MatchScore float64

	// ConfirmBoost 被其它层印证时的置信度增量
	ConfirmBoost float64

	// PromoteMaxWords 可提升为合成元素的最大单词数
	PromoteMaxWords int
	// PromoteOverlapIoU 与已有元素重叠超过该值时不提升
	PromoteOverlapIoU float64
	// PadX/PadY 合成元素的点击区域扩展
	PadX int
	PadY int
	// OcrConfidenceScale 合成 OCR 元素置信度系数
	OcrConfidenceScale float64

	// VisualMatchIoU 视觉检测与已有元素的匹配阈值
	VisualMatchIoU float64
	// VisualConfidenceScale 新增视觉元素置信度系数
	VisualConfidenceScale float64

	// DedupIoU 全局去重阈值
	DedupIoU float64
}

// DefaultOptions 默认参数
func DefaultOptions() Options {
	return Options{
		IoUWeight:             0.5,
		TextWeight:            0.3,
		DistanceWeight:        0.2,
		MaxDistance:           200,
		MatchIoU:              0.1,
		MatchDistance:         50,
		MatchScore:            0.15,
		ConfirmBoost:          0.05,
		PromoteMaxWords:       3,
		PromoteOverlapIoU:     0.3,
		PadX:                  8,
		PadY:                  4,
		OcrConfidenceScale:    0.7,
		VisualMatchIoU:        0.3,
		VisualConfidenceScale: 0.8,
		DedupIoU:              0.5,
	}
}

// Option 配置函数
type Option func(*Options)

// WithMatchScore 设置 OCR 匹配最低分
func WithMatchScore(score float64) Option {
	return func(o *Options) {
		o.MatchScore = score
	}
}

// WithPromoteOverlapIoU 设置合成元素的重叠拒绝阈值
func WithPromoteOverlapIoU(iou float64) Option {
	return func(o *Options) {
		o.PromoteOverlapIoU = iou
	}
}

// WithDedupIoU 设置去重阈值
func WithDedupIoU(iou float64) Option {
	return func(o *Options) {
		o.DedupIoU = iou
	}
}

// WithPadding 设置合成元素的扩展像素
func WithPadding(x, y int) Option {
	return func(o *Options) {
		o.PadX = x
		o.PadY = y
	}
}

// WithOptions 整体替换参数
func WithOptions(opts Options) Option {
	return func(o *Options) {
		*o = opts
	}
}
