package layout

// Metrics 测量某一字体下文本的绘制宽度（像素）。
type Metrics interface {
	TextWidth(text string) float64
}

// Measurer 负责根据字体描述提供度量，绘制后端（canvas、raster）均实现该接口。
type Measurer interface {
	Face(font FontSpec) (Metrics, error)
}

// MetricsFunc 让普通函数满足 Metrics 接口。
type MetricsFunc func(text string) float64

func (f MetricsFunc) TextWidth(text string) float64 { return f(text) }
