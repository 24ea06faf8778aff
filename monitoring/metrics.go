// Package monitoring 提供指标收集与导出
package monitoring

import (
	"encoding/json"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// PredictionBuckets 预测分布直方图的固定桶边界
var PredictionBuckets = []float64{1, 2, 4, 5, 10}

// MetricType 指标类型
type MetricType string

const (
	MetricTypeCounter   MetricType = "counter"
	MetricTypeGauge     MetricType = "gauge"
	MetricTypeHistogram MetricType = "histogram"
)

type sample struct {
	Labels map[string]string `json:"labels,omitempty"`
	Value  float64           `json:"value"`
}

type metricFamily struct {
	Type    MetricType         `json:"type"`
	Samples map[string]*sample `json:"samples"`
}

type histogramFamily struct {
	Buckets []float64 `json:"buckets"`
	Counts  []uint64  `json:"counts"` // cumulative, one per bucket
	Sum     float64   `json:"sum"`
	Count   uint64    `json:"count"`
}

// Collector 指标收集器
type Collector struct {
	mu         sync.RWMutex
	families   map[string]*metricFamily
	histograms map[string]*histogramFamily
	helps      map[string]string

	startTime time.Time
}

// NewCollector 创建指标收集器
func NewCollector() *Collector {
	collector := &Collector{
		families:   make(map[string]*metricFamily),
		histograms: make(map[string]*histogramFamily),
		helps:      make(map[string]string),
		startTime:  time.Now(),
	}

	// 启动系统指标采集
	go collector.collectSystemMetrics()

	return collector
}

// IncrCounter 累加计数器
func (c *Collector) IncrCounter(name string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	family := c.family(name, MetricTypeCounter)
	family.sample(labels).Value += value
}

// SetGauge 设置仪表
func (c *Collector) SetGauge(name string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	family := c.family(name, MetricTypeGauge)
	family.sample(labels).Value = value
}

// ObserveHistogram 记录直方图观测值；首次调用固定桶边界
func (c *Collector) ObserveHistogram(name string, value float64, buckets []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hist, ok := c.histograms[name]
	if !ok {
		hist = &histogramFamily{
			Buckets: append([]float64(nil), buckets...),
			Counts:  make([]uint64, len(buckets)),
		}
		c.histograms[name] = hist
	}

	for i, bound := range hist.Buckets {
		if value <= bound {
			hist.Counts[i]++
		}
	}
	hist.Sum += value
	hist.Count++
}

// Describe 设置指标帮助文本
func (c *Collector) Describe(name, help string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.helps[name] = help
}

func (c *Collector) family(name string, metricType MetricType) *metricFamily {
	family, ok := c.families[name]
	if !ok {
		family = &metricFamily{
			Type:    metricType,
			Samples: make(map[string]*sample),
		}
		c.families[name] = family
	}
	return family
}

func (f *metricFamily) sample(labels map[string]string) *sample {
	key := renderLabels(labels)
	s, ok := f.Samples[key]
	if !ok {
		s = &sample{Labels: copyLabels(labels)}
		f.Samples[key] = s
	}
	return s
}

// ExportPrometheus 导出Prometheus文本格式
func (c *Collector) ExportPrometheus() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var b strings.Builder

	names := make([]string, 0, len(c.families))
	for name := range c.families {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		family := c.families[name]
		help := c.helps[name]
		if help == "" {
			help = fmt.Sprintf("Metric %s", name)
		}
		fmt.Fprintf(&b, "# HELP %s %s\n", name, help)
		fmt.Fprintf(&b, "# TYPE %s %s\n", name, family.Type)

		keys := make([]string, 0, len(family.Samples))
		for key := range family.Samples {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(&b, "%s%s %s\n", name, key, formatValue(family.Samples[key].Value))
		}
	}

	histNames := make([]string, 0, len(c.histograms))
	for name := range c.histograms {
		histNames = append(histNames, name)
	}
	sort.Strings(histNames)

	for _, name := range histNames {
		hist := c.histograms[name]
		help := c.helps[name]
		if help == "" {
			help = fmt.Sprintf("Metric %s", name)
		}
		fmt.Fprintf(&b, "# HELP %s %s\n", name, help)
		fmt.Fprintf(&b, "# TYPE %s histogram\n", name)
		for i, bound := range hist.Buckets {
			fmt.Fprintf(&b, "%s_bucket{le=\"%s\"} %d\n", name, formatValue(bound), hist.Counts[i])
		}
		fmt.Fprintf(&b, "%s_bucket{le=\"+Inf\"} %d\n", name, hist.Count)
		fmt.Fprintf(&b, "%s_sum %s\n", name, formatValue(hist.Sum))
		fmt.Fprintf(&b, "%s_count %d\n", name, hist.Count)
	}

	return b.String()
}

// ExportJSON 导出JSON格式快照
func (c *Collector) ExportJSON() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return json.Marshal(map[string]interface{}{
		"uptime":     time.Since(c.startTime).String(),
		"metrics":    c.families,
		"histograms": c.histograms,
	})
}

// collectSystemMetrics 周期采集运行时指标
func (c *Collector) collectSystemMetrics() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		c.SetGauge("memory_heap_alloc", float64(m.HeapAlloc), nil)
		c.SetGauge("memory_heap_sys", float64(m.HeapSys), nil)
		c.SetGauge("system_goroutines", float64(runtime.NumGoroutine()), nil)
	}
}

// GetUptime 获取运行时间
func (c *Collector) GetUptime() time.Duration {
	return time.Since(c.startTime)
}

// GetSystemStats 获取系统统计
func (c *Collector) GetSystemStats() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]interface{}{
		"uptime":     c.GetUptime().String(),
		"goroutines": runtime.NumGoroutine(),
		"memory": map[string]interface{}{
			"alloc":        m.Alloc,
			"total_alloc":  m.TotalAlloc,
			"sys":          m.Sys,
			"heap_alloc":   m.HeapAlloc,
			"heap_sys":     m.HeapSys,
			"heap_objects": m.HeapObjects,
			"gc_count":     m.NumGC,
		},
		"num_cpu": runtime.NumCPU(),
	}
}

func renderLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for key := range labels {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", key, labels[key]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func copyLabels(labels map[string]string) map[string]string {
	if len(labels) == 0 {
		return nil
	}
	out := make(map[string]string, len(labels))
	for key, value := range labels {
		out[key] = value
	}
	return out
}

func formatValue(value float64) string {
	return strconv.FormatFloat(value, 'g', -1, 64)
}
